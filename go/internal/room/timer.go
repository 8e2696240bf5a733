package room

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// auctionTimer is the one-shot countdown timer of the active auction. It is
// only touched from the host loop, so it needs no locking. At most one timer
// exists at a time and it is bound to a single listed instance.
type auctionTimer struct {
	clock      clockwork.Clock
	timer      clockwork.Timer
	instanceID string
}

// C returns the channel of the pending tick, or nil when nothing is scheduled.
func (t *auctionTimer) C() <-chan time.Time {
	if t.timer == nil {
		return nil
	}
	return t.timer.Chan()
}

// schedule arms the next one second tick for instanceID. A tick already
// pending for the same instance is kept.
func (t *auctionTimer) schedule(instanceID string) {
	if t.timer != nil && t.instanceID == instanceID {
		return
	}
	t.cancel()
	t.timer = t.clock.NewTimer(time.Second)
	t.instanceID = instanceID
	log.Debug().Str("instance_id", instanceID).Msg("scheduled auction tick")
}

// fired forgets the timer whose tick was just received.
func (t *auctionTimer) fired() string {
	id := t.instanceID
	t.timer = nil
	t.instanceID = ""
	return id
}

// cancel stops and forgets any pending tick.
func (t *auctionTimer) cancel() {
	if t.timer == nil {
		return
	}
	stopAndDrainTimer(t.timer)
	log.Debug().Str("instance_id", t.instanceID).Msg("cancelled auction tick")
	t.timer = nil
	t.instanceID = ""
}

func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
