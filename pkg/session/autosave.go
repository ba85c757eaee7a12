package session

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/errors"
)

// DefaultAutosaveDelay is the quiet period before a scheduled save runs.
const DefaultAutosaveDelay = 2 * time.Second

// SaveFunc persists a model.
type SaveFunc func(ctx context.Context, m chart.Model) error

// Autosaver debounces saves of an interactively edited chart. Each Schedule
// replaces the pending model and restarts the delay; when the delay passes
// without another Schedule the latest model is saved. Saves never overlap
// and always write the most recently scheduled model (last write wins).
type Autosaver struct {
	save   SaveFunc
	delay  time.Duration
	logger *log.Logger

	mu      sync.Mutex
	pending *chart.Model
	timer   *time.Timer
	closed  bool
	lastErr error

	saveMu sync.Mutex
}

// NewAutosaver creates an autosaver. A delay of zero or less selects
// DefaultAutosaveDelay.
func NewAutosaver(save SaveFunc, delay time.Duration, logger *log.Logger) *Autosaver {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	return &Autosaver{save: save, delay: delay, logger: logger}
}

// ForSession returns an autosaver that saves into one session through svc.
func ForSession(svc *Service, code string, delay time.Duration) *Autosaver {
	return NewAutosaver(func(ctx context.Context, m chart.Model) error {
		_, err := svc.Save(ctx, code, m)
		return err
	}, delay, svc.logger)
}

// Schedule queues m for saving after the delay.
func (a *Autosaver) Schedule(m chart.Model) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return errors.New(errors.ErrCodeInternal, "autosaver is closed")
	}
	clone := m.Clone()
	a.pending = &clone
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, func() {
		if err := a.flush(context.Background()); err != nil && a.logger != nil {
			a.logger.Error("autosave failed", "error", err)
		}
	})
	return nil
}

// Pending reports whether a model is waiting to be saved.
func (a *Autosaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending != nil
}

// Err returns the error of the most recent save, if it failed.
func (a *Autosaver) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Flush saves the pending model immediately.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.mu.Unlock()
	return a.flush(ctx)
}

func (a *Autosaver) flush(ctx context.Context) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	a.mu.Lock()
	m := a.pending
	a.pending = nil
	a.mu.Unlock()
	if m == nil {
		return nil
	}

	err := a.save(ctx, *m)
	a.mu.Lock()
	a.lastErr = err
	a.mu.Unlock()
	return err
}

// Close flushes the pending model and rejects further schedules.
func (a *Autosaver) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
	}
	a.mu.Unlock()
	return a.flush(ctx)
}
