package server

import (
	"context"
	"encoding/json"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/df07/go-animated-scenes/pkg/renderer"
	"github.com/df07/go-animated-scenes/pkg/scene"
)

// session is one live scene driven by its own loop. Everything that
// touches the scene runs on the loop goroutine.
type session struct {
	id     string
	scene  scene.Scene
	loop   *renderer.Loop
	logger *slog.Logger
	cancel context.CancelFunc

	console chan ConsoleMessage

	subsMu         sync.Mutex
	subs           map[chan SSEEvent]struct{}
	streamInterval time.Duration
	lastStream     time.Time
	elapsed        time.Duration
}

// newSession constructs a scene whose logs also feed the session console
func (s *Server) newSession(id string) (*session, error) {
	sess := &session{
		id:             id,
		console:        make(chan ConsoleMessage, 50),
		subs:           make(map[chan SSEEvent]struct{}),
		streamInterval: time.Second / time.Duration(s.streamFPS),
	}
	sess.logger = slog.New(NewConsoleHandler(s.logger.Handler(), sess.console)).With("session", id)

	cfg := s.config()
	ctx, cancel := context.WithCancel(s.base)
	sess.cancel = cancel

	sc, err := scene.New(id, nil, cfg.Viewport.Width, cfg.Viewport.Height, scene.Options{
		Loader:     s.loader,
		Rasterizer: s.raster,
		Logger:     sess.logger,
		Context:    ctx,
		Assets:     cfg.Assets.URLs,
	})
	if err != nil {
		cancel()
		return nil, err
	}
	sess.scene = sc
	if presets := cfg.Presets(id); presets != nil {
		if err := sc.Panel().Apply(presets); err != nil {
			sess.logger.Warn("panel presets partly applied", "error", err)
		}
	}
	sc.Surface().OnPresent(sess.present)

	sess.loop = renderer.NewLoop(cfg.Loop.FPS, sess.logger)
	go sess.pumpConsole(ctx)
	go func() {
		err := sess.loop.Run(ctx, func(elapsed time.Duration) {
			sess.elapsed = elapsed
			sc.RenderFrame(elapsed)
		})
		if err != nil && ctx.Err() == nil {
			sess.logger.Error("render loop failed", "error", err)
		}
		sc.Close()
	}()
	return sess, nil
}

// close stops the loop and waits for it to finish
func (sess *session) close() {
	sess.cancel()
	sess.loop.Stop()
	<-sess.loop.Done()
}

func (sess *session) subscribe() chan SSEEvent {
	ch := make(chan SSEEvent, 16)
	sess.subsMu.Lock()
	sess.subs[ch] = struct{}{}
	sess.subsMu.Unlock()
	return ch
}

func (sess *session) unsubscribe(ch chan SSEEvent) {
	sess.subsMu.Lock()
	delete(sess.subs, ch)
	sess.subsMu.Unlock()
}

func (sess *session) subscribers() int {
	sess.subsMu.Lock()
	defer sess.subsMu.Unlock()
	return len(sess.subs)
}

// publish sends ev to every subscriber, dropping it for slow ones
func (sess *session) publish(ev SSEEvent) {
	sess.subsMu.Lock()
	defer sess.subsMu.Unlock()
	for ch := range sess.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber behind, skip
		}
	}
}

// present runs on the loop goroutine after every frame
func (sess *session) present(img *image.RGBA) {
	if sess.subscribers() == 0 {
		return
	}
	now := time.Now()
	if now.Sub(sess.lastStream) < sess.streamInterval {
		return
	}
	sess.lastStream = now

	imageData, err := imageToBase64PNG(img)
	if err != nil {
		sess.logger.Error("failed to encode frame", "error", err)
		return
	}
	update := FrameUpdate{
		Frame:     sess.loop.Frames(),
		ElapsedMs: sess.elapsed.Milliseconds(),
		ImageData: imageData,
		Stats:     newStats(sess.scene.LastStats()),
	}
	data, err := json.Marshal(update)
	if err != nil {
		sess.logger.Error("failed to marshal frame", "error", err)
		return
	}
	sess.publish(SSEEvent{Type: "frame", Data: string(data)})
}

// pumpConsole forwards console messages to every subscriber
func (sess *session) pumpConsole(ctx context.Context) {
	for {
		select {
		case msg := <-sess.console:
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			sess.publish(SSEEvent{Type: "console", Data: string(data)})
		case <-ctx.Done():
			return
		}
	}
}
