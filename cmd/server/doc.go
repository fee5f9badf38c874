// Package main is the entry point for the OmegaDesk desktop server.
//
// The server hosts the window manager, the process table and the app
// launcher behind a REST API, and streams desktop events to the front end
// over a WebSocket.
//
// Architecture:
//
//	Frontend (React) → REST / WebSocket → Launcher → Process Table
//	                                              → Window Manager → Surface
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -manifests ./apps -sessions ./data/sessions
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown, every process runs its cleanup
package main
