package room

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/mcdev12/auctionroom/go/internal/auction"
	"github.com/mcdev12/auctionroom/go/internal/idgen"
	"github.com/mcdev12/auctionroom/go/internal/models"
)

var ErrNotJoined = errors.New("participant has not joined the room yet")

// HostLink carries intents from a participant to the host.
type HostLink interface {
	Send(ctx context.Context, intentID string, intent auction.Intent) error
}

// Participant holds a read-only mirror of the host's room. The mirror only
// ever changes by being replaced with a snapshot from the host; every action
// is sent upstream as an intent.
type Participant struct {
	nickname string
	link     HostLink
	ids      idgen.Generator

	mu        sync.RWMutex
	mirror    *models.Room
	studentID string

	joined    chan struct{}
	joinOnce  sync.Once
	observers observers
}

// NewParticipant creates a participant that will join as nickname.
func NewParticipant(nickname string, link HostLink, ids idgen.Generator) *Participant {
	if ids == nil {
		ids = idgen.UUID{}
	}
	return &Participant{
		nickname: strings.TrimSpace(nickname),
		link:     link,
		ids:      ids,
		joined:   make(chan struct{}),
	}
}

// Nickname returns the nickname the participant joins with.
func (p *Participant) Nickname() string { return p.nickname }

// ApplySnapshot replaces the mirror wholesale and notifies observers. A
// snapshot listing the participant's nickname does not make it joined; only
// ConfirmJoin does.
func (p *Participant) ApplySnapshot(room *models.Room) {
	if room == nil {
		return
	}
	p.mu.Lock()
	p.mirror = room
	p.mu.Unlock()

	p.observers.notify(room)
}

// ConfirmJoin records the student the host bound this participant's
// connection to and applies the snapshot that came with the confirmation.
func (p *Participant) ConfirmJoin(studentID string, room *models.Room) {
	p.mu.Lock()
	p.studentID = studentID
	if room != nil {
		p.mirror = room
	}
	p.mu.Unlock()
	p.joinOnce.Do(func() { close(p.joined) })

	if room != nil {
		p.observers.notify(room)
	}
}

// Subscribe registers an observer for every received snapshot.
func (p *Participant) Subscribe(fn Observer) (unsubscribe func()) {
	return p.observers.subscribe(fn)
}

// Mirror returns a copy of the latest snapshot, or nil before the first one.
func (p *Participant) Mirror() *models.Room {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mirror.Clone()
}

// StudentID returns the participant's id once the host has confirmed the join.
func (p *Participant) StudentID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.studentID
}

// Me returns the participant's own student record from the mirror.
func (p *Participant) Me() (*models.Student, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.mirror == nil || p.studentID == "" {
		return nil, false
	}
	s, ok := p.mirror.Student(p.studentID)
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// IsWinning reports whether the participant holds the highest bid.
func (p *Participant) IsWinning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.mirror == nil || p.mirror.ActiveAuction == nil || p.mirror.ActiveAuction.HighestBid == nil {
		return false
	}
	return p.studentID != "" && p.mirror.ActiveAuction.HighestBid.StudentID == p.studentID
}

// WaitJoined blocks until the host confirms the join and returns the student id.
func (p *Participant) WaitJoined(ctx context.Context) (string, error) {
	select {
	case <-p.joined:
		return p.StudentID(), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Join asks the host to add or reattach this participant.
func (p *Participant) Join(ctx context.Context) error {
	return p.send(ctx, auction.Join{Nickname: p.nickname})
}

// PlaceBid offers amount coins for the active auction.
func (p *Participant) PlaceBid(ctx context.Context, amount int) error {
	return p.act(ctx, func(id string) auction.Intent {
		return auction.PlaceBid{StudentID: id, Amount: amount}
	})
}

// StartAuction lists one of the participant's instances.
func (p *Participant) StartAuction(ctx context.Context, instanceID string) error {
	return p.act(ctx, func(id string) auction.Intent {
		return auction.StartAuction{StudentID: id, InstanceID: instanceID}
	})
}

// SkipTurn passes the selling turn on.
func (p *Participant) SkipTurn(ctx context.Context) error {
	return p.act(ctx, func(id string) auction.Intent {
		return auction.SkipTurn{StudentID: id}
	})
}

// UpdateWorksheet edits a worksheet slot. See auction.UpdateWorksheet for the
// meaning of instance.
func (p *Participant) UpdateWorksheet(ctx context.Context, slot int, instance auction.OptionalID, answer *string) error {
	return p.act(ctx, func(id string) auction.Intent {
		return auction.UpdateWorksheet{StudentID: id, SlotIndex: slot, Instance: instance, Answer: answer}
	})
}

// UpdateMemo annotates one of the participant's instances.
func (p *Participant) UpdateMemo(ctx context.Context, instanceID, memo string) error {
	return p.act(ctx, func(id string) auction.Intent {
		return auction.UpdateMemo{StudentID: id, InstanceID: instanceID, Memo: memo}
	})
}

func (p *Participant) act(ctx context.Context, build func(studentID string) auction.Intent) error {
	id := p.StudentID()
	if id == "" {
		return ErrNotJoined
	}
	return p.send(ctx, build(id))
}

func (p *Participant) send(ctx context.Context, intent auction.Intent) error {
	return p.link.Send(ctx, p.ids.NewID(), intent)
}
