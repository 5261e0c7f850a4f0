package main

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-animated-scenes/pkg/config"
	"github.com/df07/go-animated-scenes/pkg/scene"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// offlineConfig keeps every asset load on the local filesystem
func offlineConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.Assets.Root = t.TempDir()
	cfg.Assets.URLs = map[string]string{scene.AssetWaterNormals: "/missing.png"}
	return cfg
}

func TestRenderFrames(t *testing.T) {
	tests := []struct {
		name  string
		scene string
	}{
		{"iceberg", "iceberg"},
		{"solar system", "solar-system"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := t.TempDir()
			files, err := renderFrames(context.Background(), offlineConfig(t), renderOptions{
				Scene: tt.scene, Frames: 3, FPS: 30, Width: 40, Height: 30, OutDir: out,
			}, quietLogger())
			require.NoError(t, err)
			require.Len(t, files, 3)

			assert.Equal(t, filepath.Join(out, tt.scene, "frame_0002.png"), files[2])
			f, err := os.Open(files[0])
			require.NoError(t, err)
			defer f.Close()
			img, err := png.Decode(f)
			require.NoError(t, err)
			assert.Equal(t, 40, img.Bounds().Dx())
			assert.Equal(t, 30, img.Bounds().Dy())
		})
	}
}

func TestRenderFramesErrors(t *testing.T) {
	tests := []struct {
		name string
		opts renderOptions
	}{
		{"unknown scene", renderOptions{Scene: "nonexistent", Frames: 1, FPS: 30, Width: 10, Height: 10}},
		{"bad viewport", renderOptions{Scene: "iceberg", Frames: 1, FPS: 30, Width: 0, Height: 10}},
		{"bad fps", renderOptions{Scene: "iceberg", Frames: 1, FPS: 0, Width: 10, Height: 10}},
		{"negative frames", renderOptions{Scene: "iceberg", Frames: -1, FPS: 30, Width: 10, Height: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.OutDir = t.TempDir()
			_, err := renderFrames(context.Background(), offlineConfig(t), tt.opts, quietLogger())
			assert.Error(t, err)
		})
	}
}

func TestRenderFramesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := renderFrames(ctx, offlineConfig(t), renderOptions{
		Scene: "solar-system", Frames: 5, FPS: 30, Width: 10, Height: 10, OutDir: t.TempDir(),
	}, quietLogger())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScenesCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"scenes"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "iceberg")
	assert.Contains(t, out.String(), "Solar System")
}

func TestRenderCommandUsesConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "scenes.toml")
	outDir := filepath.Join(dir, "frames")
	content := "[viewport]\nwidth = 32\nheight = 24\n\n[output]\nframes = 2\ndir = \"" + filepath.ToSlash(outDir) + "\"\n\n" +
		"[assets]\nroot = \"" + filepath.ToSlash(dir) + "\"\n\n[log]\nlevel = \"error\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"render", "--config", cfgPath, "--scene", "solar-system", "--frames", "1"})
	require.NoError(t, cmd.Execute())

	// --frames overrides the file, the rest comes from it
	entries, err := os.ReadDir(filepath.Join(outDir, "solar-system"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Contains(t, out.String(), "Rendered 1 frames")
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
