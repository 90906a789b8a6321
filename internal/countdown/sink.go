package countdown

import (
	"sync"
	"time"

	"daily-leaderboard/internal/domain"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// LatestSink keeps the most recent state for readers such as HTTP handlers.
type LatestSink struct {
	clock clockwork.Clock

	mu        sync.RWMutex
	state     domain.CountdownState
	updatedAt time.Time
}

func NewLatestSink(clock clockwork.Clock) *LatestSink {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &LatestSink{clock: clock}
}

func (l *LatestSink) ShowCountdown(state domain.CountdownState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = state
	l.updatedAt = l.clock.Now()
}

func (l *LatestSink) Latest() (domain.CountdownState, time.Time) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state, l.updatedAt
}

type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) ShowCountdown(state domain.CountdownState) {
	if state.Ended {
		s.logger.Info().Msg("countdown shows ENDED")
		return
	}
	s.logger.Trace().
		Int("hours", state.Hours).
		Int("minutes", state.Minutes).
		Int("seconds", state.Seconds).
		Msg("countdown tick")
}

type MultiSink []Sink

func (m MultiSink) ShowCountdown(state domain.CountdownState) {
	for _, s := range m {
		s.ShowCountdown(state)
	}
}
