package countdown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"daily-leaderboard/internal/domain"
	"daily-leaderboard/internal/tzclock"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

var september = domain.Window{Start: "2025-09-01", End: "2025-09-30"}

type recordingSink struct {
	mu     sync.Mutex
	states []domain.CountdownState
	ch     chan domain.CountdownState
}

func newRecordingSink() *recordingSink {
	return &recordingSink{ch: make(chan domain.CountdownState, 64)}
}

func (r *recordingSink) ShowCountdown(state domain.CountdownState) {
	r.mu.Lock()
	r.states = append(r.states, state)
	r.mu.Unlock()
	r.ch <- state
}

func (r *recordingSink) all() []domain.CountdownState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.CountdownState(nil), r.states...)
}

func (r *recordingSink) next(t *testing.T) domain.CountdownState {
	t.Helper()
	select {
	case s := <-r.ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for countdown emission")
		return domain.CountdownState{}
	}
}

func newEngine(at time.Time, window domain.Window) (*Engine, *clockwork.FakeClock, *recordingSink) {
	fake := clockwork.NewFakeClockAt(at)
	tz := tzclock.New(fake, time.UTC, window)
	sink := newRecordingSink()
	return NewEngine(fake, tz, sink, zerolog.Nop()), fake, sink
}

func TestSplit(t *testing.T) {
	tests := []struct {
		d       time.Duration
		h, m, s int
	}{
		{0, 0, 0, 0},
		{-5 * time.Second, 0, 0, 0},
		{1500 * time.Millisecond, 0, 0, 1},
		{999 * time.Millisecond, 0, 0, 0},
		{23*time.Hour + 59*time.Minute + 59*time.Second, 23, 59, 59},
		{49*time.Hour + 30*time.Second, 49, 0, 30},
	}

	for _, tt := range tests {
		h, m, s := Split(tt.d)
		if h != tt.h || m != tt.m || s != tt.s {
			t.Errorf("Split(%v) = %d:%d:%d, want %d:%d:%d", tt.d, h, m, s, tt.h, tt.m, tt.s)
		}
	}
}

func TestTickAcrossMidnight(t *testing.T) {
	engine, fake, sink := newEngine(time.Date(2025, 9, 15, 23, 59, 58, 500_000_000, time.UTC), september)

	want := []domain.CountdownState{
		{Hours: 0, Minutes: 0, Seconds: 1},
		{Hours: 0, Minutes: 0, Seconds: 0},
		{Hours: 23, Minutes: 59, Seconds: 59},
	}

	for i, w := range want {
		if i > 0 {
			fake.Advance(time.Second)
		}
		if got := engine.Tick(); got != w {
			t.Errorf("tick %d = %+v, want %+v", i, got, w)
		}
	}

	if got := len(sink.all()); got != len(want) {
		t.Errorf("sink received %d states, want %d", got, len(want))
	}
}

func TestTickOnMidnightStaysUnderADay(t *testing.T) {
	engine, _, _ := newEngine(time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC), september)

	if got := engine.Tick(); got != (domain.CountdownState{Hours: 23, Minutes: 59, Seconds: 59}) {
		t.Errorf("Tick() = %+v, want 23:59:59", got)
	}
}

func TestTickSuppressesUnchangedValues(t *testing.T) {
	engine, fake, sink := newEngine(time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC), september)

	for i := 0; i < 4; i++ {
		engine.Tick()
		fake.Advance(250 * time.Millisecond)
	}
	engine.Tick()

	states := sink.all()
	if len(states) != 2 {
		t.Fatalf("sink received %d states, want 2: %+v", len(states), states)
	}
	if states[0] != (domain.CountdownState{Hours: 12}) {
		t.Errorf("first state = %+v, want 12:00:00", states[0])
	}
	if states[1] != (domain.CountdownState{Hours: 11, Minutes: 59, Seconds: 59}) {
		t.Errorf("second state = %+v, want 11:59:59", states[1])
	}
}

func TestTickEndedIsTerminal(t *testing.T) {
	engine, fake, sink := newEngine(time.Date(2025, 10, 2, 8, 0, 0, 0, time.UTC), september)

	for i := 0; i < 3; i++ {
		got := engine.Tick()
		if !got.Ended {
			t.Fatalf("tick %d = %+v, want ended", i, got)
		}
		fake.Advance(time.Hour)
	}

	if engine.State() != Ended {
		t.Errorf("State() = %v, want ended", engine.State())
	}
	if got := len(sink.all()); got != 1 {
		t.Errorf("sink received %d states, want exactly one ended state", got)
	}
}

func TestTickBeforeWindowCountsToStart(t *testing.T) {
	engine, _, _ := newEngine(time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC), september)

	got := engine.Tick()
	if got != (domain.CountdownState{Hours: 36}) {
		t.Errorf("Tick() = %+v, want 36:00:00 until window start", got)
	}
}

func TestRun(t *testing.T) {
	engine, fake, sink := newEngine(time.Date(2025, 9, 30, 23, 59, 58, 500_000_000, time.UTC), september)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx) }()

	if got := sink.next(t); got != (domain.CountdownState{Seconds: 1}) {
		t.Fatalf("first emission = %+v, want 00:00:01", got)
	}

	blockCtx, blockCancel := context.WithTimeout(ctx, 2*time.Second)
	defer blockCancel()
	if err := fake.BlockUntilContext(blockCtx, 1); err != nil {
		t.Fatalf("ticker was never registered: %v", err)
	}

	fake.Advance(time.Second)
	if got := sink.next(t); got != (domain.CountdownState{}) {
		t.Fatalf("second emission = %+v, want 00:00:00", got)
	}

	// Crossing midnight of the last window day ends the countdown.
	fake.Advance(time.Second)
	if got := sink.next(t); !got.Ended {
		t.Fatalf("third emission = %+v, want ended", got)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil after end", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after the window ended")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	engine, _, sink := newEngine(time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC), september)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx) }()

	sink.next(t)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
