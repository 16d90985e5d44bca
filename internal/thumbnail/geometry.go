package thumbnail

import (
	"fmt"
	"image"
	"math"
)

// scaleEpsilon absorbs float error in products like 300 * (100/300.0).
const scaleEpsilon = 1e-9

// Geometry describes how a source raster is scaled and cropped into the
// requested box. Scaled* is the notional scaled raster; Crop* is the top-left
// corner of the Output* window inside it.
type Geometry struct {
	Scale        float64
	CropX        int
	CropY        int
	ScaledWidth  int
	ScaledHeight int
	OutputWidth  int
	OutputHeight int
}

// CropRect is the window cut out of the scaled raster.
func (g Geometry) CropRect() image.Rectangle {
	return image.Rect(g.CropX, g.CropY, g.CropX+g.OutputWidth, g.CropY+g.OutputHeight)
}

// ResolveGeometry computes the cover-fit geometry for a srcW x srcH source
// and a reqW x reqH box.
//
// The scale follows the source's shorter side: a portrait source is scaled
// to the requested width, a landscape source to the requested height, and a
// square source to the requested width. If that still leaves the raster
// short of the box on the other axis the scale is raised to cover it.
func ResolveGeometry(srcW, srcH, reqW, reqH int) (Geometry, error) {
	if srcW <= 0 || srcH <= 0 {
		return Geometry{}, NewError(DecodeFailed, fmt.Sprintf("source has invalid dimensions %dx%d", srcW, srcH), nil)
	}
	if reqW <= 0 || reqH <= 0 {
		return Geometry{}, NewError(InvalidParameters, fmt.Sprintf("invalid requested size %dx%d", reqW, reqH), nil)
	}

	var scale float64
	switch {
	case srcW < srcH:
		scale = float64(reqW) / float64(srcW)
	case srcH < srcW:
		scale = float64(reqH) / float64(srcH)
	default:
		scale = float64(reqW) / float64(srcW)
	}

	if scaled(srcW, scale) < reqW || scaled(srcH, scale) < reqH {
		scale = math.Max(float64(reqW)/float64(srcW), float64(reqH)/float64(srcH))
	}

	g := Geometry{
		Scale:        scale,
		ScaledWidth:  max(reqW, scaled(srcW, scale)),
		ScaledHeight: max(reqH, scaled(srcH, scale)),
		OutputWidth:  reqW,
		OutputHeight: reqH,
	}
	g.CropX = max(0, (g.ScaledWidth-reqW)/2)
	g.CropY = max(0, (g.ScaledHeight-reqH)/2)
	return g, nil
}

func scaled(n int, scale float64) int {
	return int(math.Floor(float64(n)*scale + scaleEpsilon))
}
