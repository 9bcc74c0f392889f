package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/gesturebridge/internal/app"
	"github.com/bft-labs/gesturebridge/internal/domain"
	"github.com/bft-labs/gesturebridge/internal/ports"
)

type task func(ctx context.Context) error

// runner drives a lifecycle around a group of tasks. The first task to fail
// cancels the others and crashes the lifecycle.
type runner struct {
	name      string
	logger    ports.Logger
	lifecycle *app.Lifecycle

	mu sync.Mutex
}

func newRunner(name string, logger ports.Logger, observer app.StateObserver) *runner {
	return &runner{
		name:      name,
		logger:    logger,
		lifecycle: app.NewLifecycle(logger, observer),
	}
}

// start runs prepare, then launches tasks. prepare errors crash the
// lifecycle and are returned.
func (r *runner) start(ctx context.Context, prepare func() ([]task, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := r.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	tasks, err := prepare()
	if err != nil {
		r.lifecycle.Crash(err)
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)
	for _, t := range tasks {
		t := t
		g.Go(func() error { return t(gctx) })
	}

	done := make(chan struct{})
	r.lifecycle.Track(cancel, done)
	go func() {
		defer close(done)
		err := g.Wait()
		cancel()
		if err != nil {
			r.logger.Error(r.name+" failed", ports.Err(err))
			r.lifecycle.Crash(err)
		}
	}()

	_ = r.lifecycle.TransitionTo(app.StateRunning, r.name+" started")
	return nil
}

// stop cancels the tasks and waits for them.
func (r *runner) stop() error {
	r.mu.Lock()
	if !r.lifecycle.CanStop() {
		r.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := r.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	err := r.lifecycle.Shutdown(app.ShutdownTimeout)
	if err != nil {
		r.lifecycle.Crash(err)
		return err
	}
	_ = r.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	return nil
}

// doneCh is closed when the current run ends. Before the first Start it is
// already closed.
func (r *runner) doneCh() <-chan struct{} {
	return r.lifecycle.Done()
}

// every calls fn each interval until ctx is done. A non-positive interval
// waits for ctx only.
func every(interval time.Duration, fn func()) task {
	return func(ctx context.Context) error {
		if interval <= 0 {
			<-ctx.Done()
			return nil
		}
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				fn()
			}
		}
	}
}
