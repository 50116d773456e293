package observer

import (
	"bytes"
	"log/slog"
	"testing"
)

type recordingObserver struct {
	got []Snapshot
}

func (r *recordingObserver) Observe(s Snapshot) {
	r.got = append(r.got, s)
}

type panickingObserver struct {
	calls int
}

func (p *panickingObserver) Observe(Snapshot) {
	p.calls++
	panic("boom")
}

func TestFanOutInvokesInRegistrationOrder(t *testing.T) {
	var order []int
	o1 := recorderFunc(func(Snapshot) { order = append(order, 1) })
	o2 := recorderFunc(func(Snapshot) { order = append(order, 2) })
	o3 := recorderFunc(func(Snapshot) { order = append(order, 3) })

	set := NewSet(nil)
	set.Register(o1)
	set.Register(o2)
	set.Register(o3)

	set.FanOut(Snapshot{Timestep: 0})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("observers invoked out of registration order: %v", order)
	}
}

// A panicking observer is isolated and dropped, without affecting
// observers registered before or after it.
func TestFanOutIsolatesPanickingObserver(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	before := &recordingObserver{}
	bad := &panickingObserver{}
	after := &recordingObserver{}

	set := NewSet(log)
	set.Register(before)
	set.Register(bad)
	set.Register(after)

	for tick := 0; tick < 3; tick++ {
		set.FanOut(Snapshot{Timestep: tick})
	}

	if len(before.got) != 3 {
		t.Errorf("observer registered before the panicking one got %d calls, want 3", len(before.got))
	}
	if len(after.got) != 3 {
		t.Errorf("observer registered after the panicking one got %d calls, want 3", len(after.got))
	}
	if bad.calls != 1 {
		t.Errorf("panicking observer was invoked %d times, want exactly 1 (dropped after first panic)", bad.calls)
	}
	if buf.Len() == 0 {
		t.Error("expected the panic to be logged")
	}
}

func TestChannelObserverDropsOnFull(t *testing.T) {
	c := NewChannelObserver(2)

	c.Observe(Snapshot{Timestep: 0})
	c.Observe(Snapshot{Timestep: 1})
	c.Observe(Snapshot{Timestep: 2}) // channel full, should drop

	if c.Dropped != 1 {
		t.Fatalf("Dropped = %d, want 1", c.Dropped)
	}

	ch := c.Channel()
	first := <-ch
	second := <-ch
	if first.Timestep != 0 || second.Timestep != 1 {
		t.Fatalf("unexpected delivery order: %d, %d", first.Timestep, second.Timestep)
	}
}

// recorderFunc adapts a plain function to the Observer interface for
// terse table-free tests.
type recorderFunc func(Snapshot)

func (f recorderFunc) Observe(s Snapshot) { f(s) }
