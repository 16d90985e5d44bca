package frames

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"media-thumbnailer/internal/thumbnail"
)

func requireFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available, skipping video tests")
	}
}

// createTestVideo renders a two second 320x240 test pattern.
func createTestVideo(t *testing.T, path string) {
	t.Helper()
	cmd := exec.Command("ffmpeg", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=size=320x240:rate=10",
		"-t", "2", "-c:v", "mpeg4", "-pix_fmt", "yuv420p", "-y", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("ffmpeg could not create a test video: %v: %s", err, out)
	}
}

func TestVideoProviderFetch(t *testing.T) {
	requireFFmpeg(t)

	dir := t.TempDir()
	video := filepath.Join(dir, "clip.mp4")
	createTestVideo(t, video)

	p := NewVideoProvider(NewResolver(dir))

	tests := []struct {
		name        string
		timestampMs int64
	}{
		{"first frame", 0},
		{"mid clip", 1500},
		{"past the end falls back", 600000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := p.Fetch(context.Background(), thumbnail.FrameRequest{
				SourceRef: video, MediaKind: thumbnail.MediaVideo, TimestampMs: tt.timestampMs, Width: 64, Height: 64,
			})
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			defer frame.Release()

			if frame.SourceWidth != 320 || frame.SourceHeight != 240 {
				t.Errorf("frame = %dx%d, want 320x240", frame.SourceWidth, frame.SourceHeight)
			}
		})
	}
}

func TestVideoProviderRejectsNonVideo(t *testing.T) {
	dir := t.TempDir()
	text := filepath.Join(dir, "readme.txt")
	if err := os.WriteFile(text, []byte("plain text\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := NewVideoProvider(NewResolver(dir)).Fetch(context.Background(), thumbnail.FrameRequest{
		SourceRef: text, MediaKind: thumbnail.MediaVideo, Width: 10, Height: 10,
	})
	if got := thumbnail.KindOf(err); got != thumbnail.UnsupportedSource {
		t.Errorf("kind = %v, want %v (err = %v)", got, thumbnail.UnsupportedSource, err)
	}
}

func TestVideoProviderWithoutFFmpeg(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(video, []byte{0x00, 0x01, 0x02, 0x03}, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	p := NewVideoProvider(NewResolver(dir))
	p.ffmpeg = "ffmpeg-not-installed-for-this-test"

	_, err := p.Fetch(context.Background(), thumbnail.FrameRequest{
		SourceRef: video, MediaKind: thumbnail.MediaVideo, Width: 10, Height: 10,
	})
	if got := thumbnail.KindOf(err); got != thumbnail.UnsupportedSource {
		t.Errorf("kind = %v, want %v (err = %v)", got, thumbnail.UnsupportedSource, err)
	}
}

func TestVideoProviderUndecodableVideo(t *testing.T) {
	requireFFmpeg(t)

	dir := t.TempDir()
	video := filepath.Join(dir, "broken.mp4")
	if err := os.WriteFile(video, []byte("this is not really a video"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := NewVideoProvider(NewResolver(dir)).Fetch(context.Background(), thumbnail.FrameRequest{
		SourceRef: video, MediaKind: thumbnail.MediaVideo, TimestampMs: 1000, Width: 10, Height: 10,
	})
	if got := thumbnail.KindOf(err); got != thumbnail.DecodeFailed {
		t.Errorf("kind = %v, want %v (err = %v)", got, thumbnail.DecodeFailed, err)
	}
}

func TestSeekPosition(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0.000"},
		{5, "0.005"},
		{1500, "1.500"},
		{61001, "61.001"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := seekPosition(tt.ms); got != tt.want {
				t.Errorf("seekPosition(%d) = %q, want %q", tt.ms, got, tt.want)
			}
		})
	}
}
