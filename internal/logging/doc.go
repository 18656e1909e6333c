// Package logging wires log/slog for lightpilot.
//
// Every module asks for its own logger once and keeps it:
//
//	var logger = logging.GetLogger("sampler")
//
// Levels are global with per-module overrides, and can be changed at run
// time without rebuilding loggers (each module holds a slog.LevelVar):
//
//	[logging]
//	level = "info"
//	format = "text"        # or "json"
//
//	[logging.modules]
//	scheduler = "debug"    # step overruns and cancel handshakes
//	sampler = "warn"
//
// Records go to stdout when it is attached, to journald when its socket is
// present, and always to an in-memory ring served by GET /api/logs. With
// journald, attributes become upper-case fields:
//
//	journalctl -t lightpilot MODULE=scheduler -p warning
package logging
