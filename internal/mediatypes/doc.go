// Package mediatypes provides shared type definitions for classifying
// thumbnail sources and outputs.
//
// It has no dependencies beyond the standard library so that both the frame
// providers and the thumbnail pipeline can import it without cycles.
//
// # File Types
//
//	mediatypes.FileTypeImage // Photos decodable to a raster (jpg, png, webp, ...)
//	mediatypes.FileTypeVideo // Containers ffmpeg can extract a frame from
//	mediatypes.FileTypeOther // Anything else
//
// Classify by extension with GetFileType, or by a sniffed MIME type with
// GetFileTypeForMIME:
//
//	fileType := mediatypes.GetFileTypeForMIME("image/jpeg") // FileTypeImage
//
// # MIME Types
//
// GetMimeType maps an extension (with leading dot) to a MIME type and is
// used for Content-Type headers and data URI prefixes:
//
//	mediatypes.GetMimeType(".png") // "image/png"
package mediatypes
