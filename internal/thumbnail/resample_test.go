package thumbnail

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

// stripes builds a w x h image split into three vertical bands.
func stripes(w, h int, left, mid, right color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	q := w / 4
	draw.Draw(img, image.Rect(0, 0, q, h), &image.Uniform{C: left}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(q, 0, w-q, h), &image.Uniform{C: mid}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(w-q, 0, w, h), &image.Uniform{C: right}, image.Point{}, draw.Src)
	return img
}

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func TestResampleOutputSize(t *testing.T) {
	sources := [][2]int{{200, 200}, {400, 200}, {200, 400}, {1000, 10}, {10, 1000}, {3, 2}, {640, 480}}
	boxes := [][2]int{{100, 100}, {1, 1}, {160, 90}, {90, 160}, {300, 100}}

	for _, s := range sources {
		for _, b := range boxes {
			g, err := ResolveGeometry(s[0], s[1], b[0], b[1])
			if err != nil {
				t.Fatalf("ResolveGeometry(%v, %v) error = %v", s, b, err)
			}
			out := Resample(solid(s[0], s[1], color.White), g)
			if got := out.Bounds(); got.Dx() != b[0] || got.Dy() != b[1] {
				t.Errorf("Resample(%v -> %v) size = %dx%d", s, b, got.Dx(), got.Dy())
			}
		}
	}
}

func TestResampleCentreCrop(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	green := color.NRGBA{G: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}

	// 400x200 with 100px red/blue bands; scaled to 200x100 the bands are
	// 50px wide and the centred 100x100 window is entirely green.
	src := stripes(400, 200, red, green, blue)
	g, err := ResolveGeometry(400, 200, 100, 100)
	if err != nil {
		t.Fatalf("ResolveGeometry() error = %v", err)
	}

	out := Resample(src, g)
	for _, x := range []int{5, 50, 94} {
		c := out.NRGBAAt(x, 50)
		if c.G < 200 || c.R > 60 || c.B > 60 {
			t.Errorf("pixel (%d,50) = %v, want green", x, c)
		}
	}
}

func TestResampleIdentityCopies(t *testing.T) {
	src := solid(10, 10, color.Black)
	g, err := ResolveGeometry(10, 10, 10, 10)
	if err != nil {
		t.Fatalf("ResolveGeometry() error = %v", err)
	}

	out := Resample(src, g)
	if &out.Pix[0] == &src.Pix[0] {
		t.Error("Resample returned the source buffer, want a copy")
	}
}

func TestResampleExtremeAspectRatio(t *testing.T) {
	tests := []struct {
		srcW, srcH, w, h int
	}{
		{1, 100000, 100, 100},
		{100000, 1, 100, 100},
		{3, 50000, 640, 480},
		{50000, 2, 90, 160},
	}

	for _, tt := range tests {
		g, err := ResolveGeometry(tt.srcW, tt.srcH, tt.w, tt.h)
		if err != nil {
			t.Fatalf("ResolveGeometry(%dx%d) error = %v", tt.srcW, tt.srcH, err)
		}

		win := SourceWindow(image.Rect(0, 0, tt.srcW, tt.srcH), g)
		// The window must stay proportional to the output, not the scaled raster.
		if area := win.Dx() * win.Dy(); area > 4*tt.srcW*tt.srcH/max(tt.srcW, tt.srcH)+4 {
			t.Errorf("%dx%d -> %dx%d: window %v is larger than the crop needs", tt.srcW, tt.srcH, tt.w, tt.h, win)
		}

		out := Resample(solid(tt.srcW, tt.srcH, color.White), g)
		if got := out.Bounds(); got.Dx() != tt.w || got.Dy() != tt.h {
			t.Errorf("%dx%d -> %dx%d: size = %dx%d", tt.srcW, tt.srcH, tt.w, tt.h, got.Dx(), got.Dy())
		}
	}
}

func TestSourceWindow(t *testing.T) {
	tests := []struct {
		name       string
		bounds     image.Rectangle
		srcW, srcH int
		w, h       int
		want       image.Rectangle
	}{
		{"square", image.Rect(0, 0, 200, 200), 200, 200, 100, 100, image.Rect(0, 0, 200, 200)},
		{"landscape", image.Rect(0, 0, 400, 200), 400, 200, 100, 100, image.Rect(100, 0, 300, 200)},
		{"portrait", image.Rect(0, 0, 200, 400), 200, 400, 100, 100, image.Rect(0, 100, 200, 300)},
		{"offset bounds", image.Rect(10, 20, 410, 220), 400, 200, 100, 100, image.Rect(110, 20, 310, 220)},
		{"thin", image.Rect(0, 0, 1, 100000), 1, 100000, 100, 100, image.Rect(0, 49999, 1, 50001)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := ResolveGeometry(tt.srcW, tt.srcH, tt.w, tt.h)
			if err != nil {
				t.Fatalf("ResolveGeometry() error = %v", err)
			}
			if got := SourceWindow(tt.bounds, g); got != tt.want {
				t.Errorf("SourceWindow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResampleOffsetBounds(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	green := color.NRGBA{G: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}

	full := stripes(400, 200, red, green, blue)
	sub := full.SubImage(image.Rect(0, 0, 400, 200)).(*image.NRGBA)
	shifted := &image.NRGBA{Pix: sub.Pix, Stride: sub.Stride, Rect: image.Rect(10, 20, 410, 220)}

	g, err := ResolveGeometry(400, 200, 100, 100)
	if err != nil {
		t.Fatalf("ResolveGeometry() error = %v", err)
	}
	out := Resample(shifted, g)
	if c := out.NRGBAAt(50, 50); c.G < 200 || c.R > 60 || c.B > 60 {
		t.Errorf("centre pixel = %v, want green", c)
	}
}
