package thumbnail

import (
	"image"
	"strings"
	"sync"

	"media-thumbnailer/internal/mediatypes"
)

// Format is the encoding of the generated thumbnail.
type Format string

const (
	// FormatJPEG encodes thumbnails as JPEG at JPEGQuality.
	FormatJPEG Format = "jpeg"
	// FormatPNG encodes thumbnails as lossless PNG.
	FormatPNG Format = "png"
)

// Valid reports whether f is a supported output format.
func (f Format) Valid() bool {
	return f == FormatJPEG || f == FormatPNG
}

// Extension returns the filename extension without the leading dot.
func (f Format) Extension() string {
	if f == FormatPNG {
		return "png"
	}
	return "jpeg"
}

// MIMEType returns the content type of the encoded thumbnail.
func (f Format) MIMEType() string {
	return mediatypes.GetMimeType("." + f.Extension())
}

// MediaKind says whether the source is a still photo or a video.
type MediaKind string

const (
	// MediaPhoto is a still image source.
	MediaPhoto MediaKind = "photo"
	// MediaVideo is a video source; a single frame is extracted.
	MediaVideo MediaKind = "video"
)

// Valid reports whether k is a known media kind.
func (k MediaKind) Valid() bool {
	return k == MediaPhoto || k == MediaVideo
}

// Dir is the thumbnail subdirectory used for this kind of source.
func (k MediaKind) Dir() string {
	if k == MediaVideo {
		return "videos"
	}
	return "photos"
}

// OutputMode selects how the encoded thumbnail is delivered.
type OutputMode string

const (
	// OutputFilePath writes the thumbnail to disk and returns its absolute path.
	OutputFilePath OutputMode = "filePath"
	// OutputInline returns the thumbnail as a base64 data URI.
	OutputInline OutputMode = "inlineEncoded"
)

// Valid reports whether m is a known output mode.
func (m OutputMode) Valid() bool {
	return m == OutputFilePath || m == OutputInline
}

// Request describes a single thumbnail to generate.
type Request struct {
	SourceRef   string
	Width       int
	Height      int
	Format      Format
	MediaKind   MediaKind
	TimestampMs int64
	OutputMode  OutputMode
}

// WithDefaults fills in the optional fields: JPEG output written to a file.
func (r Request) WithDefaults() Request {
	if r.Format == "" {
		r.Format = FormatJPEG
	}
	if r.OutputMode == "" {
		r.OutputMode = OutputFilePath
	}
	r.SourceRef = strings.TrimSpace(r.SourceRef)
	return r
}

// Validate checks the request before any I/O happens. maxDimension caps
// Width and Height; zero disables the cap.
func (r Request) Validate(maxDimension int) error {
	switch {
	case r.SourceRef == "":
		return NewError(InvalidParameters, "source reference is required", nil)
	case r.Width <= 0 || r.Height <= 0:
		return NewError(InvalidParameters, "width and height must be positive", nil)
	case maxDimension > 0 && (r.Width > maxDimension || r.Height > maxDimension):
		return NewError(InvalidParameters, "requested size exceeds the maximum thumbnail dimension", nil)
	case !r.Format.Valid():
		return NewError(InvalidParameters, "unsupported format "+string(r.Format), nil)
	case !r.MediaKind.Valid():
		return NewError(InvalidParameters, "unsupported media kind "+string(r.MediaKind), nil)
	case !r.OutputMode.Valid():
		return NewError(InvalidParameters, "unsupported output mode "+string(r.OutputMode), nil)
	case r.TimestampMs < 0:
		return NewError(InvalidParameters, "timestamp must not be negative", nil)
	}
	return nil
}

// DecodedFrame is a decoded raster owned by exactly one request.
type DecodedFrame struct {
	Image        image.Image
	SourceWidth  int
	SourceHeight int

	release func()
	once    sync.Once
}

// NewDecodedFrame wraps img. release, if non-nil, runs once when the frame is
// released and should free any buffers backing img.
func NewDecodedFrame(img image.Image, release func()) *DecodedFrame {
	f := &DecodedFrame{Image: img, release: release}
	if img != nil {
		b := img.Bounds()
		f.SourceWidth, f.SourceHeight = b.Dx(), b.Dy()
	}
	return f
}

// Release drops the raster. It is safe to call more than once and on a nil
// frame.
func (f *DecodedFrame) Release() {
	if f == nil {
		return
	}
	f.once.Do(func() {
		if f.release != nil {
			f.release()
		}
		f.Image = nil
	})
}

// Result is the outcome of a successful request. Data is either an absolute
// file path or a data URI, depending on the request's OutputMode.
type Result struct {
	Data   string `json:"data"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
