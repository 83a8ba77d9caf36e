package cascade

import "sync"

const DefaultCapacity = 600

// LiveSet is the bounded collection of items currently on screen, kept in
// admission order.
type LiveSet struct {
	mu       sync.Mutex
	capacity int
	items    []Item
	dropped  int
}

func NewLiveSet(capacity int) *LiveSet {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &LiveSet{capacity: capacity}
}

// Add reports false and counts a drop when the set is full.
func (l *LiveSet) Add(item Item) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.items) >= l.capacity {
		l.dropped++
		return false
	}
	l.items = append(l.items, item)
	return true
}

func (l *LiveSet) Remove(id string) (Item, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, item := range l.items {
		if item.ID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return item, true
		}
	}
	return Item{}, false
}

func (l *LiveSet) Snapshot() []Item {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

func (l *LiveSet) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

func (l *LiveSet) Dropped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}
