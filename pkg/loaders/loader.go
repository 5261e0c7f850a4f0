// Package loaders fetches model and texture assets in the background.
//
// A Load call returns a Pending immediately. The Pending resolves exactly
// once, to either an Asset or a *LoadError. There are no retries and no
// timeouts other than the context passed to Load.
package loaders

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/df07/go-animated-scenes/pkg/core"
)

// Kind selects the decoder used for an asset
type Kind int

const (
	KindModel    Kind = iota // glTF 2.0 (.gltf or .glb)
	KindAltModel             // Wavefront OBJ
	KindPLY                  // PLY mesh
	KindTexture              // PNG, JPEG or WebP
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindModel:
		return "model"
	case KindAltModel:
		return "alt-model"
	case KindPLY:
		return "ply"
	case KindTexture:
		return "texture"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ErrUnknownKind is returned for a Kind with no decoder
var ErrUnknownKind = errors.New("unknown asset kind")

// LoadError describes a failed load
type LoadError struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s %q: %v", e.Kind, e.URL, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Asset is a decoded model or texture
type Asset interface {
	AssetKind() Kind
}

// Loader resolves asset URLs. URLs with an http or https scheme are
// fetched with Client; anything else is a path inside Root.
type Loader struct {
	Root   fs.FS
	Client *http.Client
	Logger *slog.Logger
}

// NewLoader creates a loader reading local assets from root
func NewLoader(root fs.FS, logger *slog.Logger) *Loader {
	return &Loader{
		Root:   root,
		Client: http.DefaultClient,
		Logger: core.LoggerOrDefault(logger),
	}
}

// Load starts loading url in the background and returns immediately
func (l *Loader) Load(ctx context.Context, kind Kind, url string) *Pending {
	p := newPending(kind, url)
	go func() {
		start := time.Now()
		l.logger().Info("asset load started", "kind", kind, "url", url)
		a, err := l.load(ctx, kind, url)
		if err != nil {
			le := &LoadError{Kind: kind, URL: url, Err: err}
			l.logger().Warn("asset load failed", "kind", kind, "url", url, "err", err)
			p.resolve(nil, le)
			return
		}
		l.logger().Info("asset loaded", "kind", kind, "url", url, "elapsed", time.Since(start))
		p.resolve(a, nil)
	}()
	return p
}

func (l *Loader) logger() *slog.Logger {
	return core.LoggerOrDefault(l.Logger)
}

func (l *Loader) load(ctx context.Context, kind Kind, rawURL string) (Asset, error) {
	if kind < KindModel || kind > KindTexture {
		return nil, ErrUnknownKind
	}
	fsys, name, err := l.resolve(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch kind {
	case KindModel:
		dir, _ := fs.Sub(fsys, path.Dir(name))
		return DecodeGLTF(f, dir, path.Base(name))
	case KindAltModel:
		return DecodeOBJ(f, path.Base(name))
	case KindPLY:
		data, err := ParsePLY(f)
		if err != nil {
			return nil, err
		}
		return data.Model(path.Base(name))
	case KindTexture:
		return DecodeTexture(f)
	default:
		return nil, ErrUnknownKind
	}
}

// resolve maps a URL to a filesystem and a name inside it
func (l *Loader) resolve(ctx context.Context, rawURL string) (fs.FS, string, error) {
	u, err := url.Parse(rawURL)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		base := *u
		base.Path = path.Dir(u.Path) + "/"
		base.RawQuery = ""
		client := l.Client
		if client == nil {
			client = http.DefaultClient
		}
		return &httpFS{ctx: ctx, client: client, base: &base}, path.Base(u.Path), nil
	}
	if l.Root == nil {
		return nil, "", fmt.Errorf("no asset root for %q", rawURL)
	}
	name := path.Clean(strings.TrimPrefix(rawURL, "/"))
	if !fs.ValidPath(name) {
		return nil, "", fmt.Errorf("invalid asset path %q", rawURL)
	}
	return l.Root, name, nil
}

// Pending is the one-shot result of a Load
type Pending struct {
	Kind Kind
	URL  string

	done  chan struct{}
	asset Asset
	err   error
}

func newPending(kind Kind, url string) *Pending {
	return &Pending{Kind: kind, URL: url, done: make(chan struct{})}
}

func (p *Pending) resolve(a Asset, err error) {
	p.asset, p.err = a, err
	close(p.done)
}

// Done is closed when the load completes
func (p *Pending) Done() <-chan struct{} { return p.done }

// Result blocks until the load completes
func (p *Pending) Result() (Asset, error) {
	<-p.done
	return p.asset, p.err
}

// Wait blocks until the load completes or ctx is done
func (p *Pending) Wait(ctx context.Context) (Asset, error) {
	select {
	case <-p.done:
		return p.asset, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Poll returns the result without blocking. done is false while the
// load is still in flight.
func (p *Pending) Poll() (a Asset, done bool, err error) {
	select {
	case <-p.done:
		return p.asset, true, p.err
	default:
		return nil, false, nil
	}
}
