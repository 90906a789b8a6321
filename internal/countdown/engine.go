// Package countdown drives the time-until-reset display.
package countdown

import (
	"context"
	"sync"
	"time"

	"daily-leaderboard/internal/constants"
	"daily-leaderboard/internal/domain"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

type State int

const (
	Running State = iota
	Ended
)

func (s State) String() string {
	if s == Ended {
		return "ended"
	}
	return "running"
}

// Boundary is what the engine needs from the timezone clock: the time left
// until the next reset, or false once there is none.
type Boundary interface {
	Remaining() (time.Duration, bool)
}

type Sink interface {
	ShowCountdown(state domain.CountdownState)
}

type Engine struct {
	clock    clockwork.Clock
	boundary Boundary
	sink     Sink
	interval time.Duration
	logger   zerolog.Logger

	mu      sync.Mutex
	state   State
	last    domain.CountdownState
	emitted bool
}

func NewEngine(clock clockwork.Clock, boundary Boundary, sink Sink, logger zerolog.Logger) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{
		clock:    clock,
		boundary: boundary,
		sink:     sink,
		interval: constants.CountdownTickInterval,
		logger:   logger,
	}
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Tick recomputes the remaining time and forwards it to the sink when the
// displayed value changed. Once ended, Tick does nothing but report it.
func (e *Engine) Tick() domain.CountdownState {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Ended {
		return e.last
	}

	remaining, ok := e.boundary.Remaining()
	if !ok {
		e.state = Ended
		e.logger.Info().Msg("countdown window ended")
		e.emit(domain.CountdownState{Ended: true})
		return e.last
	}

	h, m, s := Split(remaining)
	e.emit(domain.CountdownState{Hours: h, Minutes: m, Seconds: s})
	return e.last
}

func (e *Engine) emit(next domain.CountdownState) {
	if e.emitted && next == e.last {
		return
	}
	e.last = next
	e.emitted = true
	if e.sink != nil {
		e.sink.ShowCountdown(next)
	}
}

// Run ticks immediately and then on every interval until the window ends or
// ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info().Dur("interval", e.interval).Msg("countdown started")

	if e.Tick().Ended {
		return nil
	}

	ticker := e.clock.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info().Msg("countdown stopped")
			return ctx.Err()
		case <-ticker.Chan():
			if e.Tick().Ended {
				return nil
			}
		}
	}
}

// Split breaks d into whole hours, minutes and seconds. Negative durations
// count as zero.
func Split(d time.Duration) (hours, minutes, seconds int) {
	ms := max(d.Milliseconds(), 0)
	hours = int(ms / 3_600_000)
	minutes = int(ms % 3_600_000 / 60_000)
	seconds = int(ms % 60_000 / 1000)
	return hours, minutes, seconds
}
