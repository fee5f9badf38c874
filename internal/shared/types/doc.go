// Package types provides shared data structures for the desktop session.
//
// This package defines the value types and contracts that cross component
// boundaries: window and process snapshots, app descriptors and the app
// lifecycle contract, menu entries, bus events and HTTP request payloads.
//
// Core Types:
//   - WindowInfo, Mode: window snapshot and lifecycle mode
//   - ProcessInfo, ProcessStatus: process snapshot and status
//   - AppDescriptor, AppInfo: registration record and its public view
//   - AppLifecycle: hooks every app instance implements
//   - Menu, MenuEntry: tagged menu variant (action, submenu, separator, toggle)
//   - Event: notification published on the session bus
//
// Optional app capabilities are discovered with type assertions:
// MenuProvider, MenuActionHandler, GridResizeListener, QuitPolicy.
package types
