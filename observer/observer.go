// Package observer implements the read-only fan-out stage of the tick
// loop: after a tick commits, the simulation hands every registered
// Observer an immutable Snapshot. Observers run in registration order;
// one observer's panic or error is isolated and logged rather than
// halting the loop or any later observer.
package observer

import (
	"context"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"
)

// Snapshot is the read-only view of simulation state handed to observers
// strictly after a tick's commit. Every observer of a tick receives the
// same backing arrays, so observers must not mutate them; the simulation
// allocates fresh arrays each tick and never writes to a delivered
// snapshot's slices afterwards.
type Snapshot struct {
	Timestep int
	N        int

	Positions     []r3.Vec
	CapturePoints []r3.Vec

	Speeds           []float64
	AttackAngles     []float64
	FlightPathAngles []float64
	RollAngles       []float64
	AzimuthAngles    []float64
}

// Observer receives one Snapshot per committed tick. Observe must not
// block indefinitely; slow consumers should buffer internally (see
// ChannelObserver) rather than stall the tick loop.
type Observer interface {
	Observe(Snapshot)
}

// Set is an ordered, registration-order collection of observers that
// fans a Snapshot out to all of them, isolating any one observer's panic
// so it cannot halt the loop or the remaining observers.
type Set struct {
	observers []Observer
	log       *slog.Logger
	dropped   map[int]bool // observer indices permanently dropped after a panic
}

// NewSet returns an empty observer set. log receives panic isolation
// diagnostics; if nil, slog.Default() is used.
func NewSet(log *slog.Logger) *Set {
	if log == nil {
		log = slog.Default()
	}
	return &Set{log: log, dropped: make(map[int]bool)}
}

// Register appends an observer, to be invoked in registration order on
// every subsequent FanOut.
func (s *Set) Register(o Observer) {
	s.observers = append(s.observers, o)
}

// FanOut invokes every registered, non-dropped observer with snap, in
// registration order. An observer whose Observe panics is recovered,
// logged, and dropped from all future fan-outs; it does not affect
// delivery to observers registered before or after it.
func (s *Set) FanOut(snap Snapshot) {
	for i, o := range s.observers {
		if s.dropped[i] {
			continue
		}
		s.safeObserve(i, o, snap)
	}
}

func (s *Set) safeObserve(i int, o Observer, snap Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("observer panicked, dropping it for the remainder of the run",
				"observer_index", i, "timestep", snap.Timestep, "recovered", r)
			s.dropped[i] = true
		}
	}()
	o.Observe(snap)
}

// LogObserver emits one structured log line per tick at the configured
// level. It is intended for low-rate diagnostic use, not as the primary
// trace mechanism.
type LogObserver struct {
	log   *slog.Logger
	level slog.Level
}

// NewLogObserver returns a LogObserver writing to log at level.
func NewLogObserver(log *slog.Logger, level slog.Level) *LogObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LogObserver{log: log, level: level}
}

func (l *LogObserver) Observe(snap Snapshot) {
	l.log.Log(context.Background(), l.level, "tick committed", "timestep", snap.Timestep, "agents", snap.N)
}

// ChannelObserver fans snapshots out to an asynchronous consumer over a
// bounded channel. A full channel drops the newest
// snapshot rather than applying backpressure to the tick loop; Dropped
// counts how many snapshots were discarded this way.
type ChannelObserver struct {
	ch      chan Snapshot
	Dropped int
}

// NewChannelObserver returns a ChannelObserver with the given channel
// capacity. capacity must be >= 1.
func NewChannelObserver(capacity int) *ChannelObserver {
	if capacity < 1 {
		capacity = 1
	}
	return &ChannelObserver{ch: make(chan Snapshot, capacity)}
}

// Channel returns the read side for a consumer goroutine.
func (c *ChannelObserver) Channel() <-chan Snapshot {
	return c.ch
}

func (c *ChannelObserver) Observe(snap Snapshot) {
	select {
	case c.ch <- snap:
	default:
		c.Dropped++
	}
}

// Close closes the underlying channel. Callers must stop invoking Observe
// before calling Close.
func (c *ChannelObserver) Close() {
	close(c.ch)
}
