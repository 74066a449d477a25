package app

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrRunInFlight is returned when a run is triggered while another is still
// executing.
var ErrRunInFlight = errors.New("run already in flight")

// Runner serializes live re-runs. A trigger that arrives while a run is in
// progress is rejected rather than queued; the next edit triggers again.
type Runner struct {
	app  *App
	busy atomic.Bool

	mu   sync.Mutex
	last *Result
}

// NewRunner creates a runner over a.
func NewRunner(a *App) *Runner {
	return &Runner{app: a}
}

// Trigger runs the full pipeline on source unless a run is in flight.
func (r *Runner) Trigger(source string) (*Result, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return nil, ErrRunInFlight
	}
	defer r.busy.Store(false)

	res, err := r.app.Evaluate(source)
	if err == nil && res != nil && len(res.Errors) == 0 {
		r.mu.Lock()
		r.last = res
		r.mu.Unlock()
	}
	return res, err
}

// Busy reports whether a run is in flight.
func (r *Runner) Busy() bool { return r.busy.Load() }

// Last returns the most recent successful result, or nil.
func (r *Runner) Last() *Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}
