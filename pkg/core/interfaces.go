package core

import "log/slog"

// Renderable is anything a scene graph node can carry: meshes, lights, water surfaces
type Renderable interface {
	// Kind names the renderable for listings and inspection ("mesh", "water", ...)
	Kind() string
}

// LoggerOrDefault returns logger, or slog.Default() when logger is nil
func LoggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
