package thumbnail

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// WireRequest is the JSON shape accepted by the HTTP bridge and CLI.
type WireRequest struct {
	SourceRef   string `json:"sourceRef"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Format      string `json:"format,omitempty"`
	TimestampMs int64  `json:"timestampMs,omitempty"`
	MediaKind   string `json:"mediaKind"`
	OutputMode  string `json:"outputMode,omitempty"`
}

var formatAliases = map[string]Format{
	"":     "",
	"jpeg": FormatJPEG,
	"jpg":  FormatJPEG,
	"png":  FormatPNG,
}

var kindAliases = map[string]MediaKind{
	"photo":  MediaPhoto,
	"photos": MediaPhoto,
	"image":  MediaPhoto,
	"video":  MediaVideo,
	"videos": MediaVideo,
}

var modeAliases = map[string]OutputMode{
	"":              "",
	"filepath":      OutputFilePath,
	"file":          OutputFilePath,
	"inlineencoded": OutputInline,
	"inline":        OutputInline,
	"base64":        OutputInline,
}

// ParseRequest normalizes a wire request. Enum values are matched
// case-insensitively; unknown values are InvalidParameters. Dimensions are
// checked later by Request.Validate.
func ParseRequest(w WireRequest) (Request, error) {
	format, ok := formatAliases[strings.ToLower(strings.TrimSpace(w.Format))]
	if !ok {
		return Request{}, NewError(InvalidParameters, fmt.Sprintf("unsupported format %q", w.Format), nil)
	}
	kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(w.MediaKind))]
	if !ok {
		return Request{}, NewError(InvalidParameters, fmt.Sprintf("unsupported media kind %q", w.MediaKind), nil)
	}
	mode, ok := modeAliases[strings.ToLower(strings.TrimSpace(w.OutputMode))]
	if !ok {
		return Request{}, NewError(InvalidParameters, fmt.Sprintf("unsupported output mode %q", w.OutputMode), nil)
	}

	return Request{
		SourceRef:   w.SourceRef,
		Width:       w.Width,
		Height:      w.Height,
		Format:      format,
		MediaKind:   kind,
		TimestampMs: w.TimestampMs,
		OutputMode:  mode,
	}.WithDefaults(), nil
}

// DecodeRequest reads a JSON wire request from r and parses it.
func DecodeRequest(r io.Reader) (Request, error) {
	var w WireRequest
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return Request{}, NewError(InvalidParameters, "invalid request body", err)
	}
	return ParseRequest(w)
}
