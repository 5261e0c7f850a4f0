package renderer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/df07/go-animated-scenes/pkg/core"
)

// ErrLoopStopped is returned when posting to or running a stopped loop
var ErrLoopStopped = errors.New("render loop stopped")

// Loop calls a frame function at a fixed rate on a single goroutine.
// Work posted from other goroutines runs on that same goroutine, between
// frames, so frame state never needs locking.
type Loop struct {
	interval time.Duration
	tasks    chan func()
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool
	frames   atomic.Int64
	logger   *slog.Logger
}

// NewLoop creates a loop ticking fps times per second
func NewLoop(fps int, logger *slog.Logger) *Loop {
	if fps <= 0 {
		fps = 60
	}
	return &Loop{
		interval: time.Second / time.Duration(fps),
		tasks:    make(chan func(), 64),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		logger:   core.LoggerOrDefault(logger),
	}
}

// Run calls frame with the wall-clock time elapsed since Run started,
// once per tick, until Stop is called or ctx is done. Posted tasks are
// drained before each frame. Run returns nil after Stop and ctx.Err()
// on cancellation.
func (l *Loop) Run(ctx context.Context, frame func(elapsed time.Duration)) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("render loop already running")
	}
	select {
	case <-l.stop:
		close(l.done)
		return ErrLoopStopped
	default:
	}
	defer close(l.done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	start := time.Now()
	l.logger.Info("render loop started", "interval", l.interval)

	for {
		select {
		case <-ctx.Done():
			l.Stop()
			l.logger.Info("render loop cancelled", "frames", l.frames.Load())
			return ctx.Err()
		case <-l.stop:
			l.logger.Info("render loop stopped", "frames", l.frames.Load())
			return nil
		case task := <-l.tasks:
			task()
		case <-ticker.C:
			l.drain()
			frame(time.Since(start))
			l.frames.Add(1)
		}
	}
}

func (l *Loop) drain() {
	for {
		select {
		case task := <-l.tasks:
			task()
		default:
			return
		}
	}
}

// Post queues fn to run on the loop goroutine. Tasks posted before Run
// wait for it to start.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.stop:
		return ErrLoopStopped
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.stop:
		return ErrLoopStopped
	}
}

// Do runs fn on the loop goroutine and waits for its result
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	if err := l.Post(func() { result <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-l.stop:
		// The task may still have run just before stopping
		select {
		case err := <-result:
			return err
		default:
			return ErrLoopStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop ends the loop. It is safe to call more than once and from any
// goroutine, including from inside a frame.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Done is closed once Run has returned
func (l *Loop) Done() <-chan struct{} { return l.done }

// Frames returns the number of frames drawn so far
func (l *Loop) Frames() int64 { return l.frames.Load() }

// Interval returns the tick interval
func (l *Loop) Interval() time.Duration { return l.interval }
