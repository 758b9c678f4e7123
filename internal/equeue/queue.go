// Package equeue implements the Director's event queue (C7): a sorted,
// bounded queue of QueuedEvent ordered by
// (scheduled_tick ASC, -priority ASC, key ASC) — that is, earliest tick
// first, then highest priority first, then lowest key first.
package equeue

import (
	"sort"

	"github.com/talgya/syn-director/internal/ids"
)

// Event is one scheduled queue entry.
type Event struct {
	Key           ids.StoryletKey
	ScheduledTick ids.SimTick
	Priority      int32
	Forced        bool
	Source        ids.EventSource
}

func less(a, b Event) bool {
	if a.ScheduledTick != b.ScheduledTick {
		return a.ScheduledTick < b.ScheduledTick
	}
	if a.Priority != b.Priority {
		return a.Priority > b.Priority // -priority ASC == priority DESC
	}
	return a.Key < b.Key
}

// Queue is a sorted slice of Events maintained via sorted insertion.
// max_size == 0 means unbounded; a push that would exceed a positive
// max_size drops the last (worst-ordered) element.
type Queue struct {
	items   []Event
	maxSize int
}

// New constructs an empty Queue with the given bound (0 = unbounded).
func New(maxSize int) *Queue {
	return &Queue{maxSize: maxSize}
}

// SetMaxSize updates the bound without re-evaluating existing contents.
func (q *Queue) SetMaxSize(maxSize int) { q.maxSize = maxSize }

// Push inserts ev in sorted position, evicting the worst element if the
// bound is exceeded.
func (q *Queue) Push(ev Event) {
	q.PushUnchecked(ev)
	if q.maxSize > 0 && len(q.items) > q.maxSize {
		q.items = q.items[:q.maxSize]
	}
}

// PushUnchecked inserts ev in sorted position without enforcing the
// bound, used when restoring an already-valid queue from a snapshot.
func (q *Queue) PushUnchecked(ev Event) {
	idx := sort.Search(len(q.items), func(i int) bool { return less(ev, q.items[i]) })
	q.items = append(q.items, Event{})
	copy(q.items[idx+1:], q.items[idx:])
	q.items[idx] = ev
}

// PopReady drains and returns the sorted prefix with ScheduledTick <= now.
func (q *Queue) PopReady(now ids.SimTick) []Event {
	n := 0
	for n < len(q.items) && q.items[n].ScheduledTick <= now {
		n++
	}
	out := append([]Event(nil), q.items[:n]...)
	q.items = q.items[n:]
	return out
}

// PeekReady is the non-destructive form of PopReady.
func (q *Queue) PeekReady(now ids.SimTick) []Event {
	n := 0
	for n < len(q.items) && q.items[n].ScheduledTick <= now {
		n++
	}
	return append([]Event(nil), q.items[:n]...)
}

// PopForcedReady drains only forced entries with ScheduledTick <= now,
// preserving the relative order of everything else.
func (q *Queue) PopForcedReady(now ids.SimTick) []Event {
	var forced []Event
	remaining := q.items[:0]
	for _, ev := range q.items {
		if ev.Forced && ev.ScheduledTick <= now {
			forced = append(forced, ev)
		} else {
			remaining = append(remaining, ev)
		}
	}
	q.items = remaining
	return forced
}

// PeekNext returns the earliest-ordered entry, if any.
func (q *Queue) PeekNext() (Event, bool) {
	if len(q.items) == 0 {
		return Event{}, false
	}
	return q.items[0], true
}

// AllEvents returns every queued entry in sorted order.
func (q *Queue) AllEvents() []Event {
	return append([]Event(nil), q.items...)
}

// RemoveStorylet deletes every entry with the given key.
func (q *Queue) RemoveStorylet(key ids.StoryletKey) {
	q.filter(func(ev Event) bool { return ev.Key != key })
}

// Contains reports whether key has an entry queued, forced or not.
func (q *Queue) Contains(key ids.StoryletKey) bool {
	for _, ev := range q.items {
		if ev.Key == key {
			return true
		}
	}
	return false
}

// RemoveBySource deletes every entry from the given source.
func (q *Queue) RemoveBySource(source ids.EventSource) {
	q.filter(func(ev Event) bool { return ev.Source != source })
}

func (q *Queue) filter(keep func(Event) bool) {
	out := q.items[:0]
	for _, ev := range q.items {
		if keep(ev) {
			out = append(out, ev)
		}
	}
	q.items = out
}

// Clear empties the queue.
func (q *Queue) Clear() { q.items = nil }

// IsEmpty reports whether the queue has no entries.
func (q *Queue) IsEmpty() bool { return len(q.items) == 0 }

// Len returns the number of queued entries.
func (q *Queue) Len() int { return len(q.items) }

// HasReady reports whether any entry is due at or before now.
func (q *Queue) HasReady(now ids.SimTick) bool {
	return len(q.items) > 0 && q.items[0].ScheduledTick <= now
}

// HasForcedReady reports whether any forced entry is due at or before now.
func (q *Queue) HasForcedReady(now ids.SimTick) bool {
	for _, ev := range q.items {
		if ev.ScheduledTick > now {
			break
		}
		if ev.Forced {
			return true
		}
	}
	return false
}

// CountBySource returns how many entries came from the given source.
func (q *Queue) CountBySource(source ids.EventSource) int {
	n := 0
	for _, ev := range q.items {
		if ev.Source == source {
			n++
		}
	}
	return n
}

// EarliestTick returns the smallest ScheduledTick present, if any.
func (q *Queue) EarliestTick() (ids.SimTick, bool) {
	if len(q.items) == 0 {
		return 0, false
	}
	earliest := q.items[0].ScheduledTick
	for _, ev := range q.items {
		if ev.ScheduledTick < earliest {
			earliest = ev.ScheduledTick
		}
	}
	return earliest, true
}

// LatestTick returns the largest ScheduledTick present, if any.
func (q *Queue) LatestTick() (ids.SimTick, bool) {
	if len(q.items) == 0 {
		return 0, false
	}
	latest := q.items[0].ScheduledTick
	for _, ev := range q.items {
		if ev.ScheduledTick > latest {
			latest = ev.ScheduledTick
		}
	}
	return latest, true
}
