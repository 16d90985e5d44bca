package frames

import (
	"context"

	"media-thumbnailer/internal/thumbnail"
)

// Router dispatches frame requests by media kind.
type Router struct {
	photo thumbnail.FrameProvider
	video thumbnail.FrameProvider
}

// NewRouter combines a photo and a video provider.
func NewRouter(photo, video thumbnail.FrameProvider) *Router {
	return &Router{photo: photo, video: video}
}

// New returns a Router over an ImageProvider and a VideoProvider sharing
// resolver.
func New(resolver *Resolver) *Router {
	return NewRouter(NewImageProvider(resolver), NewVideoProvider(resolver))
}

// Fetch implements thumbnail.FrameProvider.
func (r *Router) Fetch(ctx context.Context, fr thumbnail.FrameRequest) (*thumbnail.DecodedFrame, error) {
	switch fr.MediaKind {
	case thumbnail.MediaPhoto:
		return r.photo.Fetch(ctx, fr)
	case thumbnail.MediaVideo:
		return r.video.Fetch(ctx, fr)
	default:
		return nil, thumbnail.NewError(thumbnail.InvalidParameters, "unsupported media kind "+string(fr.MediaKind), nil)
	}
}
