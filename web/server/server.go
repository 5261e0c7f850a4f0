// Package server hosts live scenes over HTTP: scene listing, panel edits,
// graph inspection, an SSE frame stream and a websocket control channel.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/df07/go-animated-scenes/pkg/config"
	"github.com/df07/go-animated-scenes/pkg/core"
	"github.com/df07/go-animated-scenes/pkg/loaders"
	"github.com/df07/go-animated-scenes/pkg/panel"
	"github.com/df07/go-animated-scenes/pkg/renderer"
	"github.com/df07/go-animated-scenes/pkg/scene"
)

// DefaultStreamFPS caps how many frames per second are sent to each
// stream subscriber
const DefaultStreamFPS = 10

// Server handles web requests for live scenes
type Server struct {
	// ConfigPath, when set before Start, is watched and re-applied
	ConfigPath string

	cfgMu     sync.RWMutex
	cfg       config.Config
	logger    *slog.Logger
	loader    *loaders.Loader
	raster    *renderer.Rasterizer
	static    fs.FS
	streamFPS int
	upgrader  websocket.Upgrader

	base   context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*session
}

// NewServer creates a new web server. Assets are opened from
// cfg.Assets.Root and the page from the static directory if present.
func NewServer(cfg config.Config, logger *slog.Logger) *Server {
	logger = core.LoggerOrDefault(logger)
	base, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		loader:    loaders.NewLoader(os.DirFS(cfg.Assets.Root), logger),
		raster:    renderer.NewRasterizer(0),
		streamFPS: DefaultStreamFPS,
		base:      base,
		cancel:    cancel,
		sessions:  make(map[string]*session),
	}
	if _, err := os.Stat("static"); err == nil {
		s.static = os.DirFS("static")
	}
	return s
}

// SetStatic replaces the filesystem the page is served from
func (s *Server) SetStatic(fsys fs.FS) { s.static = fsys }

// SetLoader replaces the asset loader used for new sessions
func (s *Server) SetLoader(l *loaders.Loader) { s.loader = l }

func (s *Server) config() config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Serve static files
	if s.static != nil {
		mux.Handle("GET /", http.FileServer(http.FS(s.static)))
	}

	// API endpoints
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/scenes", s.handleScenes)
	mux.HandleFunc("GET /api/panel", s.handlePanelGet)
	mux.HandleFunc("POST /api/panel", s.handlePanelSet)
	mux.HandleFunc("GET /api/graph", s.handleGraph)
	mux.HandleFunc("GET /api/inspect", s.handleInspect)
	mux.HandleFunc("GET /api/stream", s.handleStream)
	mux.HandleFunc("GET /api/control", s.handleControl)
	return mux
}

// Start serves until ctx is done, then shuts down and stops every scene
func (s *Server) Start(ctx context.Context) error {
	cfg := s.config()
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("starting web server", "addr", "http://localhost"+srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Close()
		return srv.Shutdown(shutdownCtx)
	})
	if s.ConfigPath != "" {
		g.Go(func() error {
			return config.Watch(ctx, s.ConfigPath, func(cfg config.Config, err error) {
				if err != nil {
					s.logger.Warn("config reload failed", "path", s.ConfigPath, "error", err)
					return
				}
				s.logger.Info("config reloaded", "path", s.ConfigPath)
				s.ApplyConfig(cfg)
			})
		})
	}
	return g.Wait()
}

// Close stops every live scene
func (s *Server) Close() {
	s.cancel()
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.close()
	}
	s.raster.Close()
}

// ApplyConfig stores cfg for new sessions and re-applies its panel
// presets to every live scene on that scene's loop
func (s *Server) ApplyConfig(cfg config.Config) {
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		presets := cfg.Presets(id)
		if presets == nil {
			continue
		}
		err := sess.loop.Post(func() {
			if err := sess.scene.Panel().Apply(presets); err != nil {
				sess.logger.Warn("panel presets partly applied", "error", err)
			}
		})
		if err != nil {
			sess.logger.Warn("failed to apply presets", "error", err)
		}
	}
}

// session returns the live scene for id, starting it on first use
func (s *Server) session(id string) (*session, error) {
	if id == "" {
		return nil, errors.New("missing scene parameter")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.base.Err() != nil {
		return nil, errors.New("server is shutting down")
	}
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	sess, err := s.newSession(id)
	if err != nil {
		return nil, err
	}
	s.sessions[id] = sess
	s.logger.Info("scene session started", "scene", id)
	return sess, nil
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the available scenes
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, scene.ListAllScenes())
}

// handlePanelGet returns the panel controls of a live scene
func (s *Server) handlePanelGet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.URL.Query().Get("scene"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	var state *PanelState
	err = sess.loop.Do(r.Context(), func() error {
		state = panelState(sess)
		return nil
	})
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

// PanelEdit is the body of POST /api/panel
type PanelEdit struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// handlePanelSet edits one control of a live scene
func (s *Server) handlePanelSet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.URL.Query().Get("scene"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var edit PanelEdit
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&edit); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request: %w", err))
		return
	}
	value, err := decodeValue(edit.Value)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var state *PanelState
	err = sess.loop.Do(r.Context(), func() error {
		if err := sess.scene.Panel().Set(edit.Name, value); err != nil {
			return err
		}
		state = panelState(sess)
		return nil
	})
	switch {
	case errors.Is(err, panel.ErrUnknownControl):
		s.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, panel.ErrTypeMismatch):
		s.writeError(w, http.StatusBadRequest, err)
	case err != nil:
		s.writeError(w, http.StatusServiceUnavailable, err)
	default:
		s.writeJSON(w, http.StatusOK, state)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
