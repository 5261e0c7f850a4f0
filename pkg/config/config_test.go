package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
[viewport]
width = 320
height = 240

[loop]
fps = 30

[assets]
root = "assets"

[assets.urls]
water-normals = "/textures/normals.png"

[log]
level = "debug"

[panel.iceberg]
intensity = 1.5
"target x" = 2
color = "#ff8800"

[panel.solar-system]
earth = false
`

func TestDecodeOverDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, Viewport{Width: 320, Height: 240}, cfg.Viewport)
	assert.Equal(t, 30, cfg.Loop.FPS)
	assert.Equal(t, "assets", cfg.Assets.Root)
	assert.Equal(t, "/textures/normals.png", cfg.Assets.URLs["water-normals"])

	// Untouched sections keep their defaults
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, Output{Dir: "output", Frames: 60}, cfg.Output)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	iceberg := cfg.Presets("iceberg")
	assert.Equal(t, 1.5, iceberg["intensity"])
	assert.Equal(t, int64(2), iceberg["target x"])
	assert.Equal(t, "#ff8800", iceberg["color"])
	assert.Equal(t, false, cfg.Presets("solar-system")["earth"])
	assert.Nil(t, cfg.Presets("unknown"))
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"syntax", "[viewport\nwidth = 1", "failed to decode"},
		{"unknown key", "[viewport]\ndepth = 3", "unknown config keys"},
		{"bad viewport", "[viewport]\nwidth = 0", "viewport must be positive"},
		{"bad fps", "[loop]\nfps = -1", "loop.fps"},
		{"bad port", "[server]\nport = 70000", "server.port"},
		{"bad level", "[log]\nlevel = \"loud\"", "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Viewport.Width = 1024

	var buf bytes.Buffer
	require.NoError(t, cfg.Encode(&buf))
	back, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1024, back.Viewport.Width)
	assert.Equal(t, cfg.Loop, back.Loop)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenes.toml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Viewport.Width)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenes.toml")
	require.NoError(t, os.WriteFile(path, []byte("[loop]\nfps = 30\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Config, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg Config, err error) {
			if err == nil {
				got <- cfg
			}
		})
	}()

	// Give the watcher time to register, then rewrite until an event lands
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case cfg := <-got:
			if cfg.Loop.FPS == 24 {
				cancel()
				assert.NoError(t, <-done)
				return
			}
		case <-tick.C:
			require.NoError(t, os.WriteFile(path, []byte("[loop]\nfps = 24\n"), 0o644))
			// Unrelated files in the directory are ignored
			require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0o644))
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}
