package main

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/df07/go-animated-scenes/pkg/config"
	"github.com/df07/go-animated-scenes/pkg/loaders"
	"github.com/df07/go-animated-scenes/pkg/scene"
	"github.com/df07/go-animated-scenes/web/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "animated-scenes",
		Short:        "Render and serve animated 3D scenes",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "TOML configuration file")
	root.AddCommand(newRenderCmd(&configPath), newServeCmd(&configPath), newScenesCmd())
	return root
}

// loadConfig reads path, or returns the defaults when path is empty
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level, _ := cfg.LogLevel()
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// renderOptions configures a headless render
type renderOptions struct {
	Scene      string
	Frames     int
	FPS        int
	Width      int
	Height     int
	OutDir     string
	WaitAssets bool
}

func newRenderCmd(configPath *string) *cobra.Command {
	opts := renderOptions{Scene: "iceberg"}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render frames of a scene to PNG files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			// Flags override the config file
			flags := cmd.Flags()
			if !flags.Changed("frames") {
				opts.Frames = cfg.Output.Frames
			}
			if !flags.Changed("fps") {
				opts.FPS = cfg.Loop.FPS
			}
			if !flags.Changed("width") {
				opts.Width = cfg.Viewport.Width
			}
			if !flags.Changed("height") {
				opts.Height = cfg.Viewport.Height
			}
			if !flags.Changed("out") {
				opts.OutDir = cfg.Output.Dir
			}

			logger := newLogger(cfg, cmd.ErrOrStderr())
			files, err := renderFrames(cmd.Context(), cfg, opts, logger)
			if err != nil {
				return err
			}
			if len(files) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Rendered %d frames to %s\n", len(files), filepath.Dir(files[0]))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.Scene, "scene", opts.Scene, "scene id (see the scenes command)")
	f.IntVar(&opts.Frames, "frames", 60, "number of frames")
	f.IntVar(&opts.FPS, "fps", 60, "frames per second of scene time")
	f.IntVar(&opts.Width, "width", 800, "image width")
	f.IntVar(&opts.Height, "height", 600, "image height")
	f.StringVar(&opts.OutDir, "out", "output", "output directory")
	f.BoolVar(&opts.WaitAssets, "wait-assets", false, "wait for asset loads before the first frame")
	return cmd
}

// renderFrames draws opts.Frames frames at elapsed times i/fps and writes
// them as <out>/<scene>/frame_NNNN.png. Assets that finish loading during
// the run appear from the next frame on, as in a live loop.
func renderFrames(ctx context.Context, cfg config.Config, opts renderOptions, logger *slog.Logger) ([]string, error) {
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", opts.FPS)
	}
	if opts.Frames < 0 {
		return nil, fmt.Errorf("frames must not be negative, got %d", opts.Frames)
	}

	sc, err := scene.New(opts.Scene, nil, opts.Width, opts.Height, scene.Options{
		Loader:  loaders.NewLoader(os.DirFS(cfg.Assets.Root), logger),
		Logger:  logger,
		Context: ctx,
		Assets:  cfg.Assets.URLs,
	})
	if err != nil {
		return nil, err
	}
	defer sc.Close()

	if presets := cfg.Presets(opts.Scene); presets != nil {
		if err := sc.Panel().Apply(presets); err != nil {
			logger.Warn("panel presets partly applied", "error", err)
		}
	}
	if opts.WaitAssets {
		if err := sc.WaitAssets(ctx); err != nil {
			return nil, fmt.Errorf("failed waiting for assets: %w", err)
		}
	}

	// Create output directory for this scene
	outputDir := filepath.Join(opts.OutDir, opts.Scene)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	// Frames are drawn in order; encoding runs in parallel
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	files := make([]string, opts.Frames)
	start := time.Now()
	for i := 0; i < opts.Frames; i++ {
		if gctx.Err() != nil {
			break
		}
		elapsed := time.Duration(i) * time.Second / time.Duration(opts.FPS)
		sc.RenderFrame(elapsed)
		img := sc.Surface().Snapshot()

		filename := filepath.Join(outputDir, fmt.Sprintf("frame_%04d.png", i))
		files[i] = filename
		g.Go(func() error {
			file, err := os.Create(filename)
			if err != nil {
				return fmt.Errorf("failed to create file: %w", err)
			}
			if err := png.Encode(file, img); err != nil {
				file.Close()
				return fmt.Errorf("failed to save PNG: %w", err)
			}
			return file.Close()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Info("render completed", "scene", opts.Scene, "frames", opts.Frames, "duration", time.Since(start))
	return files, nil
}

func newServeCmd(configPath *string) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve live scenes to the browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())

			srv := server.NewServer(cfg, logger)
			srv.ConfigPath = *configPath
			logger.Info("visit the scenes", "url", fmt.Sprintf("http://localhost:%d", cfg.Server.Port))
			if err := srv.Start(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "port to serve on")
	return cmd
}

func newScenesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenes",
		Short: "List the available scenes",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, info := range scene.Builtins() {
				fmt.Fprintf(out, "%-14s %-14s %s\n", info.ID, info.DisplayName, info.Description)
			}
			return nil
		},
	}
}
