// Package thumbnail implements the aspect-preserving thumbnail pipeline.
//
// A Generator takes a Request (source reference, requested box, output
// format and output mode) and runs it through a fixed sequence of stages:
//
//	Validate -> FetchFrame -> ResolveGeometry -> Resample -> Encode -> Sink
//
// Any stage failure stops the pipeline and is returned as an *Error carrying
// an ErrorKind; a Result is only returned when every stage succeeded.
//
// The output is a cover-fit: the source is scaled so that it fills the whole
// requested box and the overflow is cropped from the centre. The output
// raster is always exactly Width x Height.
//
// Decoding is delegated to a FrameProvider (see package frames) and delivery
// to a Sink: FileSink writes thumb-<uuid>.<ext> files below a thumbnail
// directory, InlineSink returns a base64 data URI.
package thumbnail
