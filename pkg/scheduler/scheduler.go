// Package scheduler drives recurring work such as the layout simulation.
// Ticker is the seam between the work and wall-clock time: Interval runs
// the work on a real timer, Manual lets tests step it by hand.
package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// ErrAlreadyRunning is returned by Start on a running ticker.
var ErrAlreadyRunning = errors.New("ticker already running")

// TickFunc is one unit of recurring work.
type TickFunc func()

// ErrorHandler handles a panic raised by a TickFunc.
// Returns true to keep ticking, false to stop the ticker.
type ErrorHandler func(err error) bool

// Ticker starts and stops recurring work.
type Ticker interface {
	Start(interval time.Duration, fn TickFunc) error
	Stop()
	Running() bool
}

// Interval runs its TickFunc on a single goroutine fed by a time.Ticker,
// so ticks never overlap.
type Interval struct {
	mu      sync.Mutex
	running atomic.Bool
	stopCh  chan struct{}
	done    chan struct{}
	ticks   atomic.Uint64
	onError ErrorHandler
	logger  *slog.Logger
}

// NewInterval creates a stopped interval ticker.
func NewInterval(logger *slog.Logger) *Interval {
	if logger == nil {
		logger = slog.Default()
	}
	return &Interval{logger: logger.With("component", "scheduler")}
}

// SetErrorHandler replaces the panic handler. The default logs and keeps going.
func (t *Interval) SetErrorHandler(h ErrorHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onError = h
}

// Start begins calling fn every interval.
func (t *Interval) Start(interval time.Duration, fn TickFunc) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	t.stopCh = make(chan struct{})
	t.done = make(chan struct{})
	t.logger.Debug("ticker started", "interval", interval)
	go t.loop(interval, fn, t.stopCh, t.done)
	return nil
}

// Stop halts the ticker and waits for an in-flight tick to finish.
// Safe to call more than once.
func (t *Interval) Stop() {
	t.mu.Lock()
	if !t.running.CompareAndSwap(true, false) {
		t.mu.Unlock()
		return
	}
	close(t.stopCh)
	done := t.done
	t.mu.Unlock()
	<-done
	t.logger.Debug("ticker stopped", "ticks", t.ticks.Load())
}

// Running reports whether the ticker is active.
func (t *Interval) Running() bool { return t.running.Load() }

// Ticks returns how many ticks have completed.
func (t *Interval) Ticks() uint64 { return t.ticks.Load() }

func (t *Interval) loop(interval time.Duration, fn TickFunc, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	tk := time.NewTicker(interval)
	defer tk.Stop()
	for {
		select {
		case <-stop:
			return
		case <-tk.C:
			if !t.run(fn) {
				t.running.Store(false)
				return
			}
		}
	}
}

// run executes one tick and reports whether ticking should continue.
func (t *Interval) run(fn TickFunc) (keep bool) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("tick panic: %v\n%s", r, debug.Stack())
			t.mu.Lock()
			h := t.onError
			t.mu.Unlock()
			if h == nil {
				t.logger.Error("tick panicked", "err", err)
				keep = true
				return
			}
			keep = h(err)
		}
	}()
	fn()
	t.ticks.Add(1)
	return true
}

// Manual is a Ticker advanced explicitly with Step or Advance.
type Manual struct {
	mu       sync.Mutex
	fn       TickFunc
	interval time.Duration
	running  bool
	ticks    uint64
}

// NewManual creates a stopped manual ticker.
func NewManual() *Manual { return &Manual{} }

// Start records fn; no tick happens until Step or Advance.
func (m *Manual) Start(interval time.Duration, fn TickFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return ErrAlreadyRunning
	}
	m.fn, m.interval, m.running = fn, interval, true
	return nil
}

// Stop forgets the work; later steps are no-ops.
func (m *Manual) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	m.fn = nil
}

// Running reports whether Start was called without a matching Stop.
func (m *Manual) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Interval returns the interval passed to Start.
func (m *Manual) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

// Step runs n ticks synchronously and returns how many ran.
func (m *Manual) Step(n int) int {
	ran := 0
	for i := 0; i < n; i++ {
		m.mu.Lock()
		fn := m.fn
		m.mu.Unlock()
		if fn == nil {
			break
		}
		fn()
		m.mu.Lock()
		m.ticks++
		m.mu.Unlock()
		ran++
	}
	return ran
}

// Advance runs as many ticks as fit into d.
func (m *Manual) Advance(d time.Duration) int {
	iv := m.Interval()
	if iv <= 0 {
		return 0
	}
	return m.Step(int(d / iv))
}

// Ticks returns how many ticks have run.
func (m *Manual) Ticks() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticks
}
