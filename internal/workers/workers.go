package workers

import (
	"os"
	"runtime"
	"strconv"
)

// OverrideEnv names the environment variable that pins the pool size.
const OverrideEnv = "THUMBNAIL_WORKERS"

// Count returns a worker count of multiplier x GOMAXPROCS, at least 1 and
// at most limit (0 = no limit). GOMAXPROCS follows container CPU limits, so
// the count does too.
//
// A positive integer in THUMBNAIL_WORKERS replaces the computed value; the
// limit still applies.
func Count(multiplier float64, limit int) int {
	if n, ok := override(); ok {
		return clamp(n, limit)
	}
	return clamp(int(float64(runtime.GOMAXPROCS(0))*multiplier), limit)
}

func override() (int, bool) {
	raw := os.Getenv(OverrideEnv)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func clamp(n, limit int) int {
	if n < 1 {
		n = 1
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}

// ForMixed returns worker count for mixed tasks (1.5 per CPU). Thumbnail
// generation is mixed: it reads a file or waits on ffmpeg, then resamples.
func ForMixed(limit int) int {
	return Count(1.5, limit)
}
