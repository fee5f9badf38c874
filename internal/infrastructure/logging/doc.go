// Package logging builds the zap logger the desktop runs with.
//
// Production writes JSON lines; development (LOG_DEV=true) writes colored
// console output at debug level. Each component takes a named logger from
// Logger.Component and tags entries with the Window, PID and App helpers.
//
//	logger := logging.NewDefault()
//	wm := window.NewManager(surf, dock, procs, window.WithLogger(logger.Component("window")))
//	logger.Info("Server starting", zap.String("port", "8000"))
package logging
