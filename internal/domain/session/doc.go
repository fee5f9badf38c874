// Package session saves and restores desktop layouts.
//
// A session records every window bottom to top: its app, title, geometry,
// mode and the geometry it returns to when leaving Maximized or Minimized.
// Sessions are encoded with sonic and kept in a Store, one file per session
// for FileStore.
//
// Restoring terminates the current app processes (system apps keep running
// and only lose their windows), then relaunches each saved window at its
// normal geometry and re-applies Maximized or Minimized:
//
//	s, err := sessions.Save(ctx, "coding", "terminals on the left")
//	res, err := sessions.Restore(ctx, string(s.ID))
package session
