// Package main provides a command-line tool that generates a single
// thumbnail.
//
// It runs the request through the same pipeline as the server and prints
// the result as JSON. Output is indented when stdout is a terminal and
// compact otherwise, so it can be piped into other tools.
//
// Usage:
//
//	thumbnail -src /media/IMG_0001.jpg -width 256 -height 256
//	thumbnail -src content://albums/trip.mp4 -kind video -timestamp 1500 -output inlineEncoded
//
// Exit status is 0 on success, 1 when the request fails, and 2 on a usage
// error. Failures are written to stderr as {"error": {"kind", "code",
// "message"}}.
package main
