/*
Package workers runs thumbnail generation off the caller's goroutine on a
bounded pool.

# Sizing

Count and ForMixed derive a worker count from GOMAXPROCS,
which Go 1.19+ sets from the container's CPU limit (runtime.NumCPU would
report the host's CPUs instead). THUMBNAIL_WORKERS overrides the computed
value:

	size := workers.ForMixed(8) // 1.5 per CPU, at most 8

# Pool

Pool wraps a github.com/Jeffail/tunny pool. Each request is an independent
task that delivers exactly one Outcome:

	pool := workers.NewPool(size, generator, monitor)
	defer pool.Close()

	select {
	case o := <-pool.Submit(ctx, req):
		// o.Result or o.Err
	case <-time.After(timeout):
		// the task keeps running; its Outcome is dropped
	}

Generate is the blocking form. The caller's context bounds the wait only;
a request that reached a worker is never interrupted halfway through the
pipeline, so it never leaves a half-written thumbnail behind.

Before taking a worker each task waits on the memory monitor, which holds
new decodes back while the heap is near its limit. A panic inside a task is
recovered and reported as a DecodeFailed error.
*/
package workers
