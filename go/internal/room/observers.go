package room

import (
	"sync"

	"github.com/mcdev12/auctionroom/go/internal/models"
)

// Observer receives every published snapshot. The snapshot is shared between
// observers and must be treated as read-only. Observers run on the
// publishing goroutine and must not block.
type Observer func(room *models.Room)

type observerEntry struct {
	id int
	fn Observer
}

type observers struct {
	mu      sync.Mutex
	nextID  int
	entries []observerEntry
}

func (o *observers) subscribe(fn Observer) (unsubscribe func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextID++
	id := o.nextID
	o.entries = append(o.entries, observerEntry{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			for i, e := range o.entries {
				if e.id == id {
					o.entries = append(o.entries[:i:i], o.entries[i+1:]...)
					return
				}
			}
		})
	}
}

func (o *observers) notify(room *models.Room) {
	o.mu.Lock()
	entries := append([]observerEntry(nil), o.entries...)
	o.mu.Unlock()
	for _, e := range entries {
		e.fn(room)
	}
}
