package mediatypes

import "strings"

// FileType classifies a thumbnail source.
type FileType string

const (
	// FileTypeImage is a still photo decodable to a raster.
	FileTypeImage FileType = "image"
	// FileTypeVideo is a container ffmpeg can extract a frame from.
	FileTypeVideo FileType = "video"
	// FileTypeOther is anything unknown or unsupported.
	FileTypeOther FileType = "other"
)

type format struct {
	fileType FileType
	mime     string
}

// formats is keyed by lowercase extension with its leading dot.
var formats = map[string]format{
	".jpg":  {FileTypeImage, "image/jpeg"},
	".jpeg": {FileTypeImage, "image/jpeg"},
	".png":  {FileTypeImage, "image/png"},
	".gif":  {FileTypeImage, "image/gif"},
	".bmp":  {FileTypeImage, "image/bmp"},
	".webp": {FileTypeImage, "image/webp"},
	".tiff": {FileTypeImage, "image/tiff"},
	".tif":  {FileTypeImage, "image/tiff"},
	".heic": {FileTypeImage, "image/heic"},
	".heif": {FileTypeImage, "image/heif"},

	".mp4":  {FileTypeVideo, "video/mp4"},
	".m4v":  {FileTypeVideo, "video/x-m4v"},
	".mov":  {FileTypeVideo, "video/quicktime"},
	".3gp":  {FileTypeVideo, "video/3gpp"},
	".mkv":  {FileTypeVideo, "video/x-matroska"},
	".webm": {FileTypeVideo, "video/webm"},
	".avi":  {FileTypeVideo, "video/x-msvideo"},
	".wmv":  {FileTypeVideo, "video/x-ms-wmv"},
	".flv":  {FileTypeVideo, "video/x-flv"},
	".mpeg": {FileTypeVideo, "video/mpeg"},
	".mpg":  {FileTypeVideo, "video/mpeg"},
	".ts":   {FileTypeVideo, "video/mp2t"},
}

// GetFileType classifies a lowercase extension such as ".jpg".
func GetFileType(ext string) FileType {
	if f, ok := formats[ext]; ok {
		return f.fileType
	}
	return FileTypeOther
}

// GetFileTypeForMIME classifies a sniffed MIME type. Parameters such as
// "; charset=binary" are ignored.
func GetFileTypeForMIME(mime string) FileType {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	mime = strings.ToLower(strings.TrimSpace(mime))

	switch {
	case mime == "image/svg+xml":
		// Vector sources have no raster to sample.
		return FileTypeOther
	case strings.HasPrefix(mime, "image/"):
		return FileTypeImage
	case strings.HasPrefix(mime, "video/"), mime == "application/vnd.rn-realmedia":
		return FileTypeVideo
	}
	return FileTypeOther
}

// GetMimeType returns the MIME type for a lowercase extension, or
// "application/octet-stream".
func GetMimeType(ext string) string {
	if f, ok := formats[ext]; ok {
		return f.mime
	}
	return "application/octet-stream"
}
