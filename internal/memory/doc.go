// Package memory keeps thumbnail decoding within the container's memory
// budget.
//
// Decoded sources are by far the largest allocations the service makes: a
// 24 megapixel photo is ~96 MB as NRGBA before it is resampled. Two
// mechanisms bound that:
//
//   - [ConfigureFromEnv] sets GOMEMLIMIT from the container limit so the
//     garbage collector works harder before the kernel OOM-kills the process.
//   - [Monitor] samples heap usage and pauses new pool tasks while usage is
//     above the pause ratio, resuming once it drops below the resume ratio.
//     Requests already decoding are never interrupted.
//
// # Environment Variables
//
//   - GOMEMLIMIT: standard Go variable; takes precedence when set.
//   - MEMORY_LIMIT: container limit, either in bytes (as the Kubernetes
//     Downward API provides it) or with a unit suffix such as "512Mi" or "2G".
//   - MEMORY_RATIO: share of MEMORY_LIMIT given to the Go heap, 0.0-1.0
//     (default 0.85). The rest is left for ffmpeg and libvips, which
//     allocate outside the Go heap.
//
// Kubernetes example:
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//	- name: MEMORY_RATIO
//	  value: "0.75"
//
// # Backpressure
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
//
//	if err := monitor.Wait(ctx); err != nil {
//	    return err // cancelled or monitor stopped while paused
//	}
//
// Without a limit (no GOMEMLIMIT and no MemoryLimitBytes) the monitor never
// pauses.
package memory
