package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-thumbnailer/internal/frames"
	"media-thumbnailer/internal/handlers"
	"media-thumbnailer/internal/logging"
	"media-thumbnailer/internal/thumbnail"

	"golang.org/x/term"
)

const (
	// Default limit for a single request, decode included
	defaultTimeout = 60 * time.Second
	// Default output directory when THUMBNAIL_DIR is unset
	defaultThumbnailDir = "thumbnails"
	// Default root for content:// and asset:// references
	defaultLibraryDir = "/media"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	if err := frames.InitVips(); err != nil {
		logging.Debug("libvips unavailable: %v", err)
	}
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, term.IsTerminal(int(os.Stdout.Fd())))
	frames.ShutdownVips()
	os.Exit(code)
}

// options holds the parsed command line.
type options struct {
	wire       thumbnail.WireRequest
	dir        string
	libraryDir string
	maxDim     int
	timeout    time.Duration
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options

	fs := flag.NewFlagSet("thumbnail", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(fs, stderr) }

	fs.StringVar(&o.wire.SourceRef, "src", "", "source reference: path, file://, content:// or asset:// URI")
	fs.IntVar(&o.wire.Width, "width", 0, "thumbnail width in pixels")
	fs.IntVar(&o.wire.Height, "height", 0, "thumbnail height in pixels")
	fs.StringVar(&o.wire.Format, "format", "jpeg", "output format: jpeg or png")
	fs.StringVar(&o.wire.MediaKind, "kind", "photo", "source kind: photo or video")
	fs.Int64Var(&o.wire.TimestampMs, "timestamp", 0, "video frame position in milliseconds")
	fs.StringVar(&o.wire.OutputMode, "output", "filePath", "output mode: filePath or inlineEncoded")
	fs.StringVar(&o.dir, "dir", envOr("THUMBNAIL_DIR", defaultThumbnailDir), "directory for filePath output")
	fs.StringVar(&o.libraryDir, "library", envOr("LIBRARY_DIR", defaultLibraryDir), "root for content:// and asset:// references")
	fs.IntVar(&o.maxDim, "max-dimension", 4096, "largest accepted width or height")
	fs.DurationVar(&o.timeout, "timeout", defaultTimeout, "give up after this long")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if o.wire.SourceRef == "" {
		fs.Usage()
		return o, errors.New("-src is required")
	}
	return o, nil
}

// run executes one request and writes the JSON result to stdout, or the
// JSON error to stderr. pretty selects indented output.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, pretty bool) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	req, err := thumbnail.ParseRequest(o.wire)
	if err != nil {
		writeError(stderr, err, pretty)
		return exitError
	}

	gen := thumbnail.NewGenerator(frames.New(frames.NewResolver(o.libraryDir)), thumbnail.Options{
		ThumbnailDir: o.dir,
		MaxDimension: o.maxDim,
	})

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	res, err := gen.Generate(ctx, req)
	if err != nil {
		writeError(stderr, err, pretty)
		return exitError
	}

	if err := encode(stdout, res, pretty); err != nil {
		fmt.Fprintf(stderr, "Error: failed to write result: %v\n", err)
		return exitError
	}
	return exitOK
}

func writeError(w io.Writer, err error, pretty bool) {
	kind := thumbnail.KindOf(err)
	message := err.Error()
	var te *thumbnail.Error
	if errors.As(err, &te) {
		message = te.Message
	}
	body := handlers.ErrorResponse{Error: handlers.ErrorBody{
		Kind:    string(kind),
		Code:    kind.Code(),
		Message: message,
	}}
	if encErr := encode(w, body, pretty); encErr != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
}

func encode(w io.Writer, v interface{}, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Thumbnail Generator")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: thumbnail -src <ref> -width N -height N [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Flags:")
	fs.PrintDefaults()
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  THUMBNAIL_DIR - default for -dir (fallback: %s)\n", defaultThumbnailDir)
	fmt.Fprintf(w, "  LIBRARY_DIR   - default for -library (fallback: %s)\n", defaultLibraryDir)
}
