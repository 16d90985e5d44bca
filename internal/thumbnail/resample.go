package thumbnail

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Resample cuts the part of src that the geometry's crop window covers and
// scales it straight to the output size with a bilinear filter. Only the
// window and the output are allocated, never the full scaled raster. The
// result is always g.OutputWidth x g.OutputHeight.
func Resample(src image.Image, g Geometry) *image.NRGBA {
	window := SourceWindow(src.Bounds(), g)
	if window == src.Bounds() && window.Dx() == g.OutputWidth && window.Dy() == g.OutputHeight {
		return imaging.Clone(src)
	}
	return imaging.Resize(imaging.Crop(src, window), g.OutputWidth, g.OutputHeight, imaging.Linear)
}

// SourceWindow maps the crop rectangle of g back onto the source raster:
// the crop edges divided by the scale, widened to whole pixels and clamped
// to bounds. The window is never empty.
func SourceWindow(bounds image.Rectangle, g Geometry) image.Rectangle {
	if g.Scale <= 0 {
		return bounds
	}
	crop := g.CropRect()
	x0 := int(math.Floor(float64(crop.Min.X)/g.Scale + scaleEpsilon))
	y0 := int(math.Floor(float64(crop.Min.Y)/g.Scale + scaleEpsilon))
	x1 := int(math.Ceil(float64(crop.Max.X)/g.Scale - scaleEpsilon))
	y1 := int(math.Ceil(float64(crop.Max.Y)/g.Scale - scaleEpsilon))

	w := image.Rect(x0, y0, x1, y1).Add(bounds.Min).Intersect(bounds)
	if w.Dx() < 1 || w.Dy() < 1 {
		// Degenerate only through rounding at the far edge.
		x := min(max(bounds.Min.X+x0, bounds.Min.X), bounds.Max.X-1)
		y := min(max(bounds.Min.Y+y0, bounds.Min.Y), bounds.Max.Y-1)
		w = image.Rect(x, y, x+1, y+1)
	}
	return w
}
