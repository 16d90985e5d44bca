/*
Package filesystem wraps os.Stat and os.Open with retries for stale file
handle errors (ESTALE).

Media libraries are often NFS mounts. When the server replaces a file, a
client holding an old handle sees ESTALE until its cache catches up, which
usually takes a few milliseconds. Only ESTALE is retried; every other error
is returned immediately.

	info, err := filesystem.Stat(ctx, path, filesystem.DefaultRetryConfig())

Retries back off exponentially (50ms, 100ms, 200ms by default) and stop
early when ctx ends. Metrics are labeled by volume, resolved from the
directories registered with [SetDefaultVolumeResolver].
*/
package filesystem
