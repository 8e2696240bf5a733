package mirror

import (
	"context"

	"github.com/mcdev12/auctionroom/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Writer persists snapshots off the publishing goroutine. Only the newest
// pending snapshot is kept; older ones are skipped.
type Writer struct {
	store  *Store
	latest chan *models.Room
}

func NewWriter(store *Store) *Writer {
	return &Writer{store: store, latest: make(chan *models.Room, 1)}
}

// Observe queues r for writing without blocking. It matches room.Observer.
func (w *Writer) Observe(r *models.Room) {
	for {
		select {
		case w.latest <- r:
			return
		default:
		}
		select {
		case <-w.latest:
		default:
		}
	}
}

// Run writes queued snapshots until ctx is cancelled, then flushes the last one.
func (w *Writer) Run(ctx context.Context) error {
	for {
		select {
		case r := <-w.latest:
			w.write(r)
		case <-ctx.Done():
			select {
			case r := <-w.latest:
				w.write(r)
			default:
			}
			return nil
		}
	}
}

func (w *Writer) write(r *models.Room) {
	if err := w.store.SaveSnapshot(r); err != nil {
		log.Warn().Err(err).Str("room_code", r.Code).Msg("failed to mirror snapshot")
	}
}
