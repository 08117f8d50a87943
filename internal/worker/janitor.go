package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/namerapp/namer/internal/service"
)

// ErrShutdownTimeout is returned when the janitor doesn't stop within timeout.
var ErrShutdownTimeout = errors.New("janitor shutdown timed out")

// Janitor periodically sweeps expired sessions, releases their staged
// payloads, and prunes persisted events past their retention period.
type Janitor struct {
	interval   time.Duration
	sessionSvc *service.SessionService
	eventSvc   *service.EventService
	logger     *slog.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// Config holds janitor configuration.
type Config struct {
	SweepInterval time.Duration
}

// NewJanitor creates a new session janitor.
func NewJanitor(cfg Config, sessionSvc *service.SessionService, eventSvc *service.EventService, logger *slog.Logger) *Janitor {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Janitor{
		interval:   cfg.SweepInterval,
		sessionSvc: sessionSvc,
		eventSvc:   eventSvc,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start launches the sweep loop.
func (j *Janitor) Start() {
	j.logger.Info("starting session janitor", "interval", j.interval)

	j.wg.Add(1)
	go j.run()
}

// Stop gracefully stops the janitor.
func (j *Janitor) Stop(timeout time.Duration) error {
	j.logger.Info("stopping session janitor")
	j.cancel()

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		j.logger.Info("session janitor stopped")
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}

func (j *Janitor) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.ctx.Done():
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *Janitor) sweep() {
	removed, err := j.sessionSvc.SweepExpired(j.ctx)
	if err != nil {
		j.logger.Error("session sweep failed", "error", err)
	} else if removed > 0 {
		j.logger.Info("swept expired sessions", "removed", removed)
	}

	if j.eventSvc != nil {
		if err := j.eventSvc.CleanupOldEvents(j.ctx); err != nil {
			j.logger.Error("event cleanup failed", "error", err)
		}
	}
}
