package timer

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) time.Time {
	c.t = c.t.Add(d)
	return c.t
}

func newFakeTable() (*Table, *fakeClock) {
	c := &fakeClock{t: time.Unix(1000, 0)}
	return NewTable(c.now), c
}

func TestDispatch_OneShotFiresOnce(t *testing.T) {
	tbl, clock := newFakeTable()
	fired := 0
	id := tbl.Add("once", 10*time.Millisecond, 0, func() { fired++ })

	if n := tbl.Dispatch(clock.advance(5 * time.Millisecond)); n != 0 {
		t.Fatalf("expected nothing due, fired %d", n)
	}
	tbl.Dispatch(clock.advance(5 * time.Millisecond))
	tbl.Dispatch(clock.advance(50 * time.Millisecond))
	if fired != 1 {
		t.Fatalf("expected 1 fire, got %d", fired)
	}
	if tbl.Active(id) {
		t.Fatalf("one-shot timer should not stay active")
	}
}

func TestDispatch_RepeatingUsesInterval(t *testing.T) {
	tbl, clock := newFakeTable()
	fired := 0
	tbl.Add("repeat", 100*time.Millisecond, 25*time.Millisecond, func() { fired++ })

	tests := []struct {
		advance time.Duration
		want    int
	}{
		{99 * time.Millisecond, 0},
		{1 * time.Millisecond, 1},
		{24 * time.Millisecond, 1},
		{1 * time.Millisecond, 2},
		{25 * time.Millisecond, 3},
	}
	for i, tt := range tests {
		tbl.Dispatch(clock.advance(tt.advance))
		if fired != tt.want {
			t.Fatalf("step %d: fired %d, want %d", i, fired, tt.want)
		}
	}
}

func TestRemove_IsSynchronousAndIdempotent(t *testing.T) {
	tbl, clock := newFakeTable()
	fired := false
	id := tbl.Add("cancelled", time.Millisecond, 0, func() { fired = true })
	if !tbl.Remove(id) {
		t.Fatalf("first remove should report removal")
	}
	if tbl.Remove(id) {
		t.Fatalf("second remove should be a no-op")
	}
	tbl.Dispatch(clock.advance(time.Second))
	if fired {
		t.Fatalf("removed timer fired")
	}
}

func TestRemove_FromInsideAnotherCallback(t *testing.T) {
	tbl, clock := newFakeTable()
	var second ID
	secondFired := false
	tbl.Add("first", time.Millisecond, 0, func() { tbl.Remove(second) })
	second = tbl.Add("second", time.Millisecond, 0, func() { secondFired = true })

	tbl.Dispatch(clock.advance(time.Millisecond))
	if secondFired {
		t.Fatalf("timer removed by an earlier callback fired")
	}
	if tbl.Len() != 0 {
		t.Fatalf("expected empty table, got %d", tbl.Len())
	}
}

func TestRemove_RepeatingFromOwnCallback(t *testing.T) {
	tbl, clock := newFakeTable()
	var id ID
	fired := 0
	id = tbl.Add("self", time.Millisecond, time.Millisecond, func() {
		fired++
		tbl.Remove(id)
	})
	tbl.Dispatch(clock.advance(10 * time.Millisecond))
	tbl.Dispatch(clock.advance(10 * time.Millisecond))
	if fired != 1 {
		t.Fatalf("expected 1 fire, got %d", fired)
	}
}

func TestAdd_IDsAreNeverReused(t *testing.T) {
	tbl, _ := newFakeTable()
	seen := make(map[ID]bool)
	for i := 0; i < 100; i++ {
		id := tbl.Add("t", time.Second, 0, func() {})
		if seen[id] {
			t.Fatalf("id %d reused", id)
		}
		seen[id] = true
		tbl.Remove(id)
	}
}

func TestNext_AndNames(t *testing.T) {
	tbl, clock := newFakeTable()
	if _, ok := tbl.Next(); ok {
		t.Fatalf("empty table has no next timer")
	}
	tbl.Add("late", 2*time.Second, 0, func() {})
	tbl.Add("early", time.Second, 0, func() {})
	next, ok := tbl.Next()
	if !ok || !next.Equal(clock.t.Add(time.Second)) {
		t.Fatalf("unexpected next %v ok=%v", next, ok)
	}
	names := tbl.Names()
	if len(names) != 2 || names[0] != "early" || names[1] != "late" {
		t.Fatalf("unexpected names %v", names)
	}
}
