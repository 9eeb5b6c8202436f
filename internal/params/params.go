// Package params holds the named dynamic values a user tweaks between runs
// and notifies subscribers when they change.
//
// A change is either a preview (a slider being dragged) or a commit (the
// slider released). Subscribers that are expensive, such as a re-simulation,
// subscribe without previews and only see commits. The simulator never reads
// the bus; callers take a Snapshot and pass it to scenario setup.
package params

import (
	"sort"
	"sync"
)

type Change struct {
	Name       string
	Value      float64
	Source     string
	Previewing bool
}

type Subscriber func(Change)

type subscription struct {
	id              int
	fn              Subscriber
	allowPreviewing bool
}

type Bus struct {
	mu     sync.RWMutex
	values map[string]float64
	subs   map[string][]subscription
	nextID int
}

func NewBus() *Bus {
	return &Bus{
		values: make(map[string]float64),
		subs:   make(map[string][]subscription),
	}
}

// Set stores the value, previews included, and then calls every matching
// subscriber in registration order. Subscribers run outside the lock and
// may call back into the bus.
func (b *Bus) Set(name string, value float64, source string, previewing bool) {
	b.mu.Lock()
	b.values[name] = value
	subs := append([]subscription(nil), b.subs[name]...)
	b.mu.Unlock()

	change := Change{Name: name, Value: value, Source: source, Previewing: previewing}
	for _, s := range subs {
		if s.allowPreviewing || !previewing {
			s.fn(change)
		}
	}
}

// Commit is Set without previewing.
func (b *Bus) Commit(name string, value float64, source string) {
	b.Set(name, value, source, false)
}

// Subscribe registers fn for name and returns a function that removes it.
func (b *Bus) Subscribe(name string, fn Subscriber, allowPreviewing bool) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, fn: fn, allowPreviewing: allowPreviewing})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[name]
		for i, s := range subs {
			if s.id == id {
				b.subs[name] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

func (b *Bus) Get(name string) (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[name]
	return v, ok
}

// Snapshot copies the current values.
func (b *Bus) Snapshot() map[string]float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]float64, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}

// Names returns the stored names in sorted order.
func (b *Bus) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.values))
	for k := range b.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
