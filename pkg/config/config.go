// Package config loads the TOML configuration shared by the render and
// serve commands.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
)

// Config is the decoded configuration file
type Config struct {
	Viewport Viewport `toml:"viewport"`
	Loop     Loop     `toml:"loop"`
	Assets   Assets   `toml:"assets"`
	Server   Server   `toml:"server"`
	Output   Output   `toml:"output"`
	Log      Log      `toml:"log"`

	// Panel holds per-scene control presets: scene id -> control name -> value
	Panel map[string]map[string]any `toml:"panel"`
}

// Viewport is the size of each scene's drawing surface
type Viewport struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Loop configures the frame loop
type Loop struct {
	FPS int `toml:"fps"`
}

// Assets configures where scene assets are opened from
type Assets struct {
	Root string            `toml:"root"` // Directory for non-HTTP asset URLs
	URLs map[string]string `toml:"urls"` // Asset role -> URL overrides
}

// Server configures the host page server
type Server struct {
	Port int `toml:"port"`
}

// Output configures headless rendering
type Output struct {
	Dir    string `toml:"dir"`
	Frames int    `toml:"frames"`
}

// Log configures the log level
type Log struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Viewport: Viewport{Width: 800, Height: 600},
		Loop:     Loop{FPS: 60},
		Assets:   Assets{Root: "static"},
		Server:   Server{Port: 8080},
		Output:   Output{Dir: "output", Frames: 60},
		Log:      Log{Level: "info"},
	}
}

// Load reads the file at path over the defaults
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads TOML from r over the defaults. Unknown keys are errors.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("unknown config keys:\n%s", strict.String())
		}
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c Config) Validate() error {
	var errs []error
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		errs = append(errs, fmt.Errorf("viewport must be positive, got %dx%d", c.Viewport.Width, c.Viewport.Height))
	}
	if c.Loop.FPS <= 0 {
		errs = append(errs, fmt.Errorf("loop.fps must be positive, got %d", c.Loop.FPS))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Output.Frames < 0 {
		errs = append(errs, fmt.Errorf("output.frames must not be negative, got %d", c.Output.Frames))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LogLevel parses Log.Level
func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Presets returns the panel presets for scene, or nil
func (c Config) Presets(scene string) map[string]any {
	return c.Panel[scene]
}

// Encode writes c as TOML
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Watch calls fn with the re-read configuration every time the file at
// path is written or replaced, until ctx is done. A file that fails to
// load is reported through fn's error and the previous values stay in
// effect for the caller.
func Watch(ctx context.Context, path string, fn func(Config, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file are seen
	clean := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(clean)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != clean {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			fn(Load(clean))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fn(Config{}, fmt.Errorf("watch %s: %w", path, err))
		}
	}
}
