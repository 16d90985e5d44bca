package filesystem

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

// stubStat replaces statFn for the duration of the test.
func stubStat(t *testing.T, fn func(string) (os.FileInfo, error)) {
	t.Helper()
	orig := statFn
	statFn = fn
	t.Cleanup(func() { statFn = orig })
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
	if config.VolumeResolver != nil {
		t.Error("VolumeResolver should be nil by default")
	}
}

func TestIsStale(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"ESTALE", syscall.ESTALE, true},
		{"wrapped ESTALE", &fs.PathError{Op: "stat", Path: "/x", Err: syscall.ESTALE}, true},
		{"ENOENT", syscall.ENOENT, false},
		{"not exist", os.ErrNotExist, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStale(tt.err); got != tt.want {
				t.Errorf("IsStale(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestVolumeResolverResolve(t *testing.T) {
	vr := NewVolumeResolver(map[string]string{
		"library":    "/media",
		"thumbnails": "/media/.cache/thumbnails",
		"empty":      "",
	})

	tests := []struct {
		path string
		want string
	}{
		{"/media/photos/a.jpg", "library"},
		{"/media", "library"},
		{"/media/.cache/thumbnails/photos/t.jpeg", "thumbnails"},
		{"/mediafoo/a.jpg", "unknown"},
		{"/srv/a.jpg", "unknown"},
	}

	for _, tt := range tests {
		if got := vr.Resolve(tt.path); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestVolumeResolverNil(t *testing.T) {
	var vr *VolumeResolver
	if got := vr.Resolve("/media/a.jpg"); got != "unknown" {
		t.Errorf("nil resolver returned %q, want unknown", got)
	}
}

func TestRetryConfigVolume(t *testing.T) {
	SetDefaultVolumeResolver(NewVolumeResolver(map[string]string{"library": "/media"}))
	t.Cleanup(func() { SetDefaultVolumeResolver(nil) })

	config := DefaultRetryConfig()
	if got := config.volume("/media/a.jpg"); got != "library" {
		t.Errorf("default resolver: volume = %q, want library", got)
	}

	config.VolumeResolver = NewVolumeResolver(map[string]string{"nfs": "/media"})
	if got := config.volume("/media/a.jpg"); got != "nfs" {
		t.Errorf("config resolver: volume = %q, want nfs", got)
	}
}

func TestStat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.jpg")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := Stat(context.Background(), path, fastRetryConfig())
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 4 {
		t.Errorf("Size = %d, want 4", info.Size())
	}

	_, err = Stat(context.Background(), filepath.Join(t.TempDir(), "missing"), fastRetryConfig())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat(missing) error = %v, want ErrNotExist", err)
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.jpg")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Open(context.Background(), path, fastRetryConfig())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	buf := make([]byte, 4)
	if _, err := f.Read(buf); err != nil || string(buf) != "data" {
		t.Errorf("Read = %q, %v", buf, err)
	}
}

func TestStatRetriesStaleHandle(t *testing.T) {
	dir := t.TempDir()
	calls := 0
	stubStat(t, func(name string) (os.FileInfo, error) {
		calls++
		if calls < 3 {
			return nil, &fs.PathError{Op: "stat", Path: name, Err: syscall.ESTALE}
		}
		return os.Stat(dir)
	})

	info, err := Stat(context.Background(), dir, fastRetryConfig())
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected directory info")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestStatGivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	stubStat(t, func(name string) (os.FileInfo, error) {
		calls++
		return nil, &fs.PathError{Op: "stat", Path: name, Err: syscall.ESTALE}
	})

	_, err := Stat(context.Background(), "/media/a.jpg", fastRetryConfig())
	if !IsStale(err) {
		t.Errorf("error = %v, want ESTALE", err)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4 (1 + 3 retries)", calls)
	}
}

func TestStatDoesNotRetryOtherErrors(t *testing.T) {
	calls := 0
	stubStat(t, func(name string) (os.FileInfo, error) {
		calls++
		return nil, &fs.PathError{Op: "stat", Path: name, Err: syscall.EACCES}
	})

	if _, err := Stat(context.Background(), "/media/a.jpg", fastRetryConfig()); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestStatStopsOnCancel(t *testing.T) {
	calls := 0
	stubStat(t, func(name string) (os.FileInfo, error) {
		calls++
		return nil, syscall.ESTALE
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	config := fastRetryConfig()
	config.InitialBackoff = time.Hour
	config.MaxBackoff = time.Hour

	start := time.Now()
	if _, err := Stat(ctx, "/media/a.jpg", config); !IsStale(err) {
		t.Errorf("error = %v, want ESTALE", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if time.Since(start) > time.Second {
		t.Error("Stat waited for backoff despite a cancelled context")
	}
}

func BenchmarkVolumeResolverResolve(b *testing.B) {
	vr := NewVolumeResolver(map[string]string{
		"library":    "/media",
		"thumbnails": "/cache/thumbnails",
	})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		vr.Resolve("/media/photos/2024/summer/beach.jpg")
	}
}

func BenchmarkStat(b *testing.B) {
	path := filepath.Join(b.TempDir(), "a.jpg")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		b.Fatal(err)
	}
	config := DefaultRetryConfig()
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Stat(ctx, path, config); err != nil {
			b.Fatal(err)
		}
	}
}
