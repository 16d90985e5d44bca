// Package frames decodes thumbnail sources into rasters.
//
// A Resolver maps a source reference to a local file. Plain paths and
// file:// URIs are used as-is; content:// and asset:// references are
// resolved beneath the configured media library directory. Remote URLs
// never reach this package.
//
// Two providers implement thumbnail.FrameProvider:
//
//   - ImageProvider sniffs the file with mimetype, picks a power-of-two
//     sample size for the requested box and decodes either with libvips
//     shrink-on-load (when InitVips succeeded) or with imaging.
//   - VideoProvider pipes a single PNG frame out of ffmpeg at the requested
//     timestamp, falling back to the first frame.
//
// Router dispatches on the request's media kind:
//
//	resolver := frames.NewResolver(cfg.LibraryDir)
//	provider := frames.New(resolver)
//	gen := thumbnail.NewGenerator(provider, opts)
package frames
