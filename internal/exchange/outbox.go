package exchange

import (
	"sort"
	"sync"
	"time"

	"github.com/hjeldin/dive-computer-proto/internal/commands"
)

// Pending is a command frame awaiting its response.
type Pending struct {
	Sequence   uint16
	Opcode     commands.Opcode
	Frame      []byte
	QueuedAt   time.Time
	DeadlineAt time.Time
}

// Outbox stores pending commands by sequence.
type Outbox struct {
	mu    sync.RWMutex
	items map[uint16]Pending
}

func NewOutbox() *Outbox {
	return &Outbox{
		items: make(map[uint16]Pending),
	}
}

// Upsert stores item, replacing any entry with the same sequence. A reused
// sequence means the old command was given up on.
func (o *Outbox) Upsert(item Pending) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.items[item.Sequence] = item
}

func (o *Outbox) Remove(seq uint16) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.items, seq)
}

// Take removes and returns the entry for seq.
func (o *Outbox) Take(seq uint16) (Pending, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	item, ok := o.items[seq]
	if ok {
		delete(o.items, seq)
	}
	return item, ok
}

func (o *Outbox) Get(seq uint16) (Pending, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	item, ok := o.items[seq]
	return item, ok
}

func (o *Outbox) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.items)
}

func (o *Outbox) List() []Pending {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]Pending, 0, len(o.items))
	for _, item := range o.items {
		out = append(out, item)
	}
	sortBySequence(out)
	return out
}

// TakeExpired removes and returns entries whose deadline is not after now.
func (o *Outbox) TakeExpired(now time.Time) []Pending {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []Pending
	for seq, item := range o.items {
		if !item.DeadlineAt.After(now) {
			out = append(out, item)
			delete(o.items, seq)
		}
	}
	sortBySequence(out)
	return out
}

func sortBySequence(items []Pending) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].Sequence < items[j].Sequence
	})
}
