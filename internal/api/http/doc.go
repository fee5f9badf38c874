// Package http exposes the desktop over REST.
//
// Handlers translate requests into launcher, process table, window manager
// and session calls and map domain errors onto status codes: unknown ids are
// 404, refused transitions (busy, wrong mode, not resizable, system process)
// are 409, an open launch circuit is 503 and other launch failures are 500
// with the failed step in "reason". Malformed input is 400.
package http
