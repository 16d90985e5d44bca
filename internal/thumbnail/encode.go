package thumbnail

import (
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// JPEGQuality is the fixed quality used for JPEG thumbnails.
const JPEGQuality = 90

// Encode writes img to w in the given format. PNG is lossless at maximum
// compression.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatPNG:
		return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	case FormatJPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality))
	default:
		return fmt.Errorf("unsupported format %q", f)
	}
}

// NewFilename returns a fresh thumb-<uuid>.<ext> name.
func NewFilename(f Format) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID for thumbnail: %w", err)
	}
	return "thumb-" + id.String() + "." + f.Extension(), nil
}

// DataURIPrefix returns e.g. "data:image/png;base64,".
func DataURIPrefix(f Format) string {
	return "data:" + f.MIMEType() + ";base64,"
}

// DataURI base64-encodes data behind the format's data URI prefix.
func DataURI(f Format, data []byte) string {
	return DataURIPrefix(f) + base64.StdEncoding.EncodeToString(data)
}
