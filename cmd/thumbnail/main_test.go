package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"media-thumbnailer/internal/handlers"
	"media-thumbnailer/internal/thumbnail"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestRunFileOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.png")
	writePNG(t, src, 120, 80)
	out := filepath.Join(dir, "out")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-src", src, "-width", "40", "-height", "40", "-format", "png", "-dir", out,
	}, &stdout, &stderr, false)

	if code != exitOK {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr.String())
	}
	var res thumbnail.Result
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		t.Fatalf("stdout is not a JSON result: %q", stdout.String())
	}
	if res.Width != 40 || res.Height != 40 {
		t.Errorf("size = %dx%d, want 40x40", res.Width, res.Height)
	}
	if !strings.HasPrefix(res.Data, filepath.Join(out, "photos")) {
		t.Errorf("Data = %q, want a file under %s", res.Data, out)
	}
	if _, err := os.Stat(res.Data); err != nil {
		t.Errorf("thumbnail file missing: %v", err)
	}
	if strings.Count(stdout.String(), "\n") != 1 {
		t.Errorf("non-terminal output should be compact, got %q", stdout.String())
	}
}

func TestRunInlinePretty(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.png")
	writePNG(t, src, 30, 60)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-src", src, "-width", "15", "-height", "30", "-output", "inline",
	}, &stdout, &stderr, true)

	if code != exitOK {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr.String())
	}
	var res thumbnail.Result
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(res.Data, "data:image/jpeg;base64,") {
		t.Errorf("Data = %.40q, want a JPEG data URI", res.Data)
	}
	if !strings.Contains(stdout.String(), "\n  \"data\"") {
		t.Errorf("terminal output should be indented, got %.60q", stdout.String())
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantKind string
	}{
		{"missing file", []string{"-src", filepath.Join(dir, "nope.jpg"), "-width", "10", "-height", "10"}, exitError, "SourceUnavailable"},
		{"zero width", []string{"-src", "/x.jpg", "-width", "0", "-height", "10"}, exitError, "InvalidParameters"},
		{"remote", []string{"-src", "https://example.com/a.jpg", "-width", "10", "-height", "10"}, exitError, "UnsupportedSource"},
		{"bad kind", []string{"-src", "/x.jpg", "-width", "10", "-height", "10", "-kind", "audio"}, exitError, "InvalidParameters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr, false)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			if stdout.Len() != 0 {
				t.Errorf("stdout should be empty on failure, got %q", stdout.String())
			}
			var resp handlers.ErrorResponse
			if err := json.Unmarshal(stderr.Bytes(), &resp); err != nil {
				t.Fatalf("stderr is not a JSON error: %q", stderr.String())
			}
			if resp.Error.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", resp.Error.Kind, tt.wantKind)
			}
		})
	}
}

func TestRunUsage(t *testing.T) {
	tests := [][]string{
		{},
		{"-width", "10"},
		{"-src", "/x.jpg", "extra"},
		{"-bogus"},
	}
	for _, args := range tests {
		var stdout, stderr bytes.Buffer
		if code := run(context.Background(), args, &stdout, &stderr, false); code != exitUsage {
			t.Errorf("run(%v) = %d, want %d", args, code, exitUsage)
		}
		if stderr.Len() == 0 {
			t.Errorf("run(%v) should print usage", args)
		}
	}

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"-h"}, &stdout, &stderr, false); code != exitOK {
		t.Errorf("-h exit code = %d, want 0", code)
	}
	if !strings.Contains(stderr.String(), "Usage: thumbnail") {
		t.Error("-h should print usage")
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv("TEST_THUMB_CLI", "")
	if got := envOr("TEST_THUMB_CLI", "fallback"); got != "fallback" {
		t.Errorf("envOr() = %q, want fallback", got)
	}
	t.Setenv("TEST_THUMB_CLI", "set")
	if got := envOr("TEST_THUMB_CLI", "fallback"); got != "set" {
		t.Errorf("envOr() = %q, want set", got)
	}
}
