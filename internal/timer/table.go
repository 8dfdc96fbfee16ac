// Package timer holds the cancellable timers serviced by the dispatch loop.
package timer

import (
	"container/heap"
	"time"
)

// ID identifies a timer. IDs are never reused within a table.
type ID uint64

// Clock returns the current time.
type Clock func() time.Time

type entry struct {
	id       ID
	name     string
	due      time.Time
	interval time.Duration
	fn       func()
	index    int
}

type queue []*entry

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].id < q[j].id
	}
	return q[i].due.Before(q[j].due)
}
func (q queue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *queue) Push(x any) {
	e := x.(*entry)
	e.index = len(*q)
	*q = append(*q, e)
}
func (q *queue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*q = old[:n-1]
	return e
}

// Table is a set of one-shot and repeating timers. It is not safe for
// concurrent use; the dispatch loop owns it.
type Table struct {
	now     Clock
	nextID  ID
	queue   queue
	entries map[ID]*entry
}

// NewTable creates a table reading time from now, or time.Now when nil.
func NewTable(now Clock) *Table {
	if now == nil {
		now = time.Now
	}
	return &Table{now: now, entries: make(map[ID]*entry)}
}

// Now returns the table's clock reading.
func (t *Table) Now() time.Time {
	return t.now()
}

// Add schedules fn after first. A positive interval makes the timer repeat.
func (t *Table) Add(name string, first, interval time.Duration, fn func()) ID {
	t.nextID++
	e := &entry{
		id:       t.nextID,
		name:     name,
		due:      t.now().Add(first),
		interval: interval,
		fn:       fn,
	}
	heap.Push(&t.queue, e)
	t.entries[e.id] = e
	return e.id
}

// Remove cancels a timer. Removing an unknown or already removed timer is a
// no-op. A removed timer never fires again, even from inside Dispatch.
func (t *Table) Remove(id ID) bool {
	e, ok := t.entries[id]
	if !ok {
		return false
	}
	delete(t.entries, id)
	if e.index >= 0 {
		heap.Remove(&t.queue, e.index)
	}
	return true
}

// Active reports whether id is scheduled.
func (t *Table) Active(id ID) bool {
	_, ok := t.entries[id]
	return ok
}

// Len returns the number of scheduled timers.
func (t *Table) Len() int {
	return len(t.entries)
}

// Names returns the names of scheduled timers in due order.
func (t *Table) Names() []string {
	sorted := make(queue, len(t.queue))
	copy(sorted, t.queue)
	out := make([]string, 0, len(sorted))
	for len(sorted) > 0 {
		best := 0
		for i := range sorted {
			if sorted.Less(i, best) {
				best = i
			}
		}
		out = append(out, sorted[best].name)
		sorted = append(sorted[:best], sorted[best+1:]...)
	}
	return out
}

// Next returns the due time of the earliest timer.
func (t *Table) Next() (time.Time, bool) {
	if len(t.queue) == 0 {
		return time.Time{}, false
	}
	return t.queue[0].due, true
}

// Dispatch fires every timer due at or before now and returns how many fired.
// Repeating timers are rescheduled relative to their previous due time.
func (t *Table) Dispatch(now time.Time) int {
	fired := 0
	for len(t.queue) > 0 {
		e := t.queue[0]
		if e.due.After(now) {
			break
		}
		heap.Pop(&t.queue)
		if e.interval > 0 {
			e.due = e.due.Add(e.interval)
			if !e.due.After(now) {
				e.due = now.Add(e.interval)
			}
			heap.Push(&t.queue, e)
		} else {
			delete(t.entries, e.id)
		}
		fired++
		e.fn()
	}
	return fired
}
