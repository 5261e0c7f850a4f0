// Package scene assembles the animated scenes: a scene graph, a camera,
// a parameter panel and a per-frame animation function.
package scene

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/df07/go-animated-scenes/pkg/core"
	"github.com/df07/go-animated-scenes/pkg/graph"
	"github.com/df07/go-animated-scenes/pkg/loaders"
	"github.com/df07/go-animated-scenes/pkg/panel"
	"github.com/df07/go-animated-scenes/pkg/renderer"
)

// ErrInvalidViewport is returned for a width or height that is not positive
var ErrInvalidViewport = errors.New("invalid viewport")

// Asset roles that can be redirected with Options.Assets
const (
	AssetModel        = "model"
	AssetWaterNormals = "water-normals"
)

// Scene is implemented by every animated scene. All methods must be
// called from the goroutine that drives the scene, normally a
// renderer.Loop.
type Scene interface {
	Name() string
	Camera() *renderer.Camera
	Graph() *graph.Graph
	Panel() *panel.Panel
	Surface() *renderer.Surface
	Background() core.Color

	// RenderFrame resolves finished asset loads, advances the animation
	// to elapsed and draws one frame
	RenderFrame(elapsed time.Duration) renderer.FrameStats
	LastStats() renderer.FrameStats

	// OnCameraParameterChanged recomputes the camera projection after a
	// lens edit
	OnCameraParameterChanged()

	Resize(width, height int) error
	WaitAssets(ctx context.Context) error
	Close()
}

// Options configures scene construction
type Options struct {
	Loader     *loaders.Loader      // nil disables asset loading
	Rasterizer *renderer.Rasterizer // nil gives the scene its own
	Logger     *slog.Logger
	Context    context.Context   // governs asset loads, defaults to Background
	Assets     map[string]string // role -> URL overrides
}

func (o Options) context() context.Context {
	if o.Context == nil {
		return context.Background()
	}
	return o.Context
}

func (o Options) assetURL(role, fallback string) string {
	if u, ok := o.Assets[role]; ok && u != "" {
		return u
	}
	return fallback
}

type pendingAsset struct {
	p       *loaders.Pending
	onReady func(loaders.Asset)
	onError func(error)
}

// Base holds what every scene shares and implements the Scene methods
// that do not depend on the scene's content
type Base struct {
	name       string
	camera     *renderer.Camera
	graph      *graph.Graph
	panel      *panel.Panel
	surface    *renderer.Surface
	background core.Color

	raster     *renderer.Rasterizer
	ownsRaster bool
	loader     *loaders.Loader
	ctx        context.Context
	pending    []pendingAsset
	logger     *slog.Logger
	lastStats  renderer.FrameStats
}

// lens describes the perspective camera of a scene
type lens struct {
	fov, near, far float32
}

// newBase validates the viewport and only then creates the surface and
// hands it to host
func newBase(name string, host renderer.Host, width, height int, l lens, opts Options) (*Base, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidViewport, width, height)
	}
	logger := core.LoggerOrDefault(opts.Logger).With("scene", name)

	b := &Base{
		name:    name,
		camera:  renderer.NewPerspectiveCamera(l.fov, float32(width)/float32(height), l.near, l.far),
		graph:   graph.New("scene"),
		panel:   panel.New(logger),
		surface: renderer.NewSurface(width, height),
		raster:  opts.Rasterizer,
		loader:  opts.Loader,
		ctx:     opts.context(),
		logger:  logger,
	}
	if b.raster == nil {
		b.raster = renderer.NewRasterizer(0)
		b.ownsRaster = true
	}
	if host != nil {
		host.Mount(b.surface)
	}
	logger.Info("scene created", "width", width, "height", height)
	return b, nil
}

func (b *Base) Name() string                   { return b.name }
func (b *Base) Camera() *renderer.Camera       { return b.camera }
func (b *Base) Graph() *graph.Graph            { return b.graph }
func (b *Base) Panel() *panel.Panel            { return b.panel }
func (b *Base) Surface() *renderer.Surface     { return b.surface }
func (b *Base) Background() core.Color         { return b.background }
func (b *Base) LastStats() renderer.FrameStats { return b.lastStats }

// OnCameraParameterChanged implements Scene
func (b *Base) OnCameraParameterChanged() {
	b.camera.UpdateProjectionMatrix()
}

// Resize changes the surface size and the camera aspect ratio
func (b *Base) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidViewport, width, height)
	}
	b.surface.Resize(width, height)
	b.camera.Aspect = float32(width) / float32(height)
	b.camera.UpdateProjectionMatrix()
	return nil
}

// Close releases the scene's own rasterizer, if it has one
func (b *Base) Close() {
	if b.ownsRaster {
		b.raster.Close()
	}
}

// load starts a background load. onReady or onError runs at the start of
// the first frame after it completes. Without a loader nothing happens.
func (b *Base) load(kind loaders.Kind, url string, onReady func(loaders.Asset), onError func(error)) {
	if b.loader == nil {
		b.logger.Debug("asset loading disabled", "url", url)
		return
	}
	b.pending = append(b.pending, pendingAsset{p: b.loader.Load(b.ctx, kind, url), onReady: onReady, onError: onError})
}

// PendingAssets returns the number of loads not yet applied to the scene
func (b *Base) PendingAssets() int { return len(b.pending) }

// resolvePending applies every finished load, in the order of the load calls
func (b *Base) resolvePending() {
	if len(b.pending) == 0 {
		return
	}
	remaining := b.pending[:0]
	for _, pa := range b.pending {
		a, done, err := pa.p.Poll()
		if !done {
			remaining = append(remaining, pa)
			continue
		}
		if err != nil {
			if pa.onError != nil {
				pa.onError(err)
			}
			continue
		}
		if pa.onReady != nil {
			pa.onReady(a)
		}
	}
	b.pending = remaining
}

// WaitAssets blocks until every load started so far has completed and
// applies them. It gives callers a strict mode where the first frame
// already shows every asset.
func (b *Base) WaitAssets(ctx context.Context) error {
	for _, pa := range b.pending {
		if _, err := pa.p.Wait(ctx); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}
	b.resolvePending()
	return nil
}

// draw rasterizes and presents the current state of the graph
func (b *Base) draw() renderer.FrameStats {
	b.lastStats = b.raster.Draw(b.graph, b.camera, b.surface, b.background)
	b.surface.Present()
	return b.lastStats
}

// seconds converts elapsed time to the float seconds animations use
func seconds(elapsed time.Duration) float32 {
	return float32(elapsed.Seconds())
}
