// Package room owns a live auction session. Host is the single writer of the
// authoritative room; Participant keeps a read-only mirror of it.
package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/auctionroom/go/internal/auction"
	"github.com/mcdev12/auctionroom/go/internal/idgen"
	"github.com/mcdev12/auctionroom/go/internal/models"
	"github.com/mcdev12/auctionroom/go/internal/protocol"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrHostStopped    = errors.New("room host stopped")
	ErrAlreadyRunning = errors.New("room host already running")
)

// Broadcaster delivers snapshots to connected participants.
type Broadcaster interface {
	// Broadcast sends the snapshot to every open connection.
	Broadcast(room *models.Room)
	// Send sends the snapshot to one connection.
	Send(connID string, room *models.Room)
	// Joined confirms a JOIN to the connection that sent it, naming the
	// student the connection now acts for.
	Joined(connID, studentID string, room *models.Room)
	// Disconnect closes one connection with a protocol close code.
	Disconnect(connID string, code int, reason string)
}

// Options configures a Host.
type Options struct {
	Code      string
	HostID    string
	Policy    auction.Policy
	Clock     clockwork.Clock
	IDs       idgen.Generator
	DedupSize int
	InboxSize int
}

// Host runs the session loop. Every mutation of the room, whether it comes
// from a participant intent, a host action or the auction timer, is executed
// on the loop goroutine one at a time.
type Host struct {
	code    string
	handler *auction.Handler
	out     Broadcaster
	seen    *lru.Cache

	room  *models.Room
	conns map[string]string // connection id -> bound student id
	timer auctionTimer

	observers observers
	inbox     chan func()
	done      chan struct{}
	running   atomic.Bool
}

// NewHost creates a host with an empty room in SETUP.
func NewHost(opts Options, out Broadcaster) (*Host, error) {
	if err := opts.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid room policy: %w", err)
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.IDs == nil {
		opts.IDs = idgen.UUID{}
	}
	if opts.HostID == "" {
		opts.HostID = opts.IDs.NewID()
	}
	if opts.DedupSize <= 0 {
		opts.DedupSize = 1024
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = 256
	}
	seen, err := lru.New(opts.DedupSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create intent cache: %w", err)
	}

	handler := auction.NewHandler(opts.Policy, opts.IDs, opts.Clock)
	return &Host{
		code:    opts.Code,
		handler: handler,
		out:     out,
		seen:    seen,
		room:    handler.NewRoom(opts.Code, opts.HostID),
		conns:   make(map[string]string),
		timer:   auctionTimer{clock: opts.Clock},
		inbox:   make(chan func(), opts.InboxSize),
		done:    make(chan struct{}),
	}, nil
}

// Code returns the room's join code.
func (h *Host) Code() string { return h.code }

// Policy returns the rules the room runs under.
func (h *Host) Policy() auction.Policy { return h.handler.Policy() }

// Run processes the inbox and the auction timer until ctx is cancelled. On
// return the timer is stopped and every connection is closed.
func (h *Host) Run(ctx context.Context) error {
	if !h.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer h.teardown()

	log.Info().Str("room_code", h.code).Msg("room host started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-h.inbox:
			task()
		case <-h.timer.C():
			h.handleTick()
		}
	}
}

func (h *Host) teardown() {
	h.timer.cancel()
	for connID := range h.conns {
		h.out.Disconnect(connID, protocol.CloseRoomClosed, "room closed")
	}
	h.conns = map[string]string{}
	close(h.done)
	log.Info().Str("room_code", h.code).Msg("room host stopped")
}

// Done is closed once the loop has stopped.
func (h *Host) Done() <-chan struct{} { return h.done }

// Subscribe registers an observer for every committed snapshot.
func (h *Host) Subscribe(fn Observer) (unsubscribe func()) {
	return h.observers.subscribe(fn)
}

// enqueue hands a task to the loop.
func (h *Host) enqueue(ctx context.Context, task func()) error {
	select {
	case <-h.done:
		return ErrHostStopped
	default:
	}
	select {
	case h.inbox <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrHostStopped
	}
}

// do runs fn on the loop and waits for its result.
func (h *Host) do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	if err := h.enqueue(ctx, func() { result <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrHostStopped
	}
}

// Submit queues a participant intent. It does not wait for the intent to be
// applied; the outcome shows up in the next snapshot.
func (h *Host) Submit(ctx context.Context, connID, intentID string, intent auction.Intent) error {
	return h.enqueue(ctx, func() { h.handleIntent(connID, intentID, intent) })
}

// ConnectionOpened registers a connection and sends it the current snapshot.
func (h *Host) ConnectionOpened(ctx context.Context, connID string) error {
	return h.enqueue(ctx, func() {
		h.conns[connID] = ""
		h.out.Send(connID, h.room.Clone())
		log.Debug().Str("conn_id", connID).Int("connections", len(h.conns)).Msg("connection opened")
	})
}

// ConnectionClosed forgets a connection. The student it was bound to stays
// in the room and can rejoin by nickname.
func (h *Host) ConnectionClosed(ctx context.Context, connID string) error {
	return h.enqueue(ctx, func() {
		delete(h.conns, connID)
		log.Debug().Str("conn_id", connID).Int("connections", len(h.conns)).Msg("connection closed")
	})
}

// Snapshot returns a copy of the current room.
func (h *Host) Snapshot(ctx context.Context) (*models.Room, error) {
	var snapshot *models.Room
	err := h.do(ctx, func() error {
		snapshot = h.room.Clone()
		return nil
	})
	return snapshot, err
}

// FinalizeSetup fixes templates, mode and initial coins and opens the lobby.
func (h *Host) FinalizeSetup(ctx context.Context, templates []models.SentenceTemplate, mode models.RoomMode, initialCoins int) error {
	return h.lifecycle(ctx, "finalize setup", func(r *models.Room) error {
		return h.handler.FinalizeSetup(r, templates, mode, initialCoins)
	})
}

// StartGame deals inventory and opens the market.
func (h *Host) StartGame(ctx context.Context) error {
	return h.lifecycle(ctx, "start game", h.handler.StartGame)
}

// Finish settles any open auction and computes final scores.
func (h *Host) Finish(ctx context.Context) error {
	return h.lifecycle(ctx, "finish", h.handler.Finish)
}

// CloseAuction settles the active auction now. It is a no-op without one.
func (h *Host) CloseAuction(ctx context.Context) error {
	return h.do(ctx, func() error {
		_, err := h.commit(h.closeAuction)
		return err
	})
}

func (h *Host) lifecycle(ctx context.Context, action string, fn func(*models.Room) error) error {
	return h.do(ctx, func() error {
		_, err := h.commit(func(r *models.Room) (bool, error) {
			return true, fn(r)
		})
		if err != nil {
			log.Warn().Err(err).Str("room_code", h.code).Str("action", action).Msg("room transition refused")
			return err
		}
		log.Info().Str("room_code", h.code).Str("action", action).Str("status", string(h.room.Status)).Msg("room transition")
		return nil
	})
}

// commit applies fn to a working copy of the room and installs the copy only
// when fn succeeds and the copy still satisfies the room invariants. A
// committed change reconciles the timer and is published.
func (h *Host) commit(fn func(r *models.Room) (bool, error)) (bool, error) {
	next := h.room.Clone()
	changed, err := fn(next)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}
	if err := auction.CheckInvariants(next); err != nil {
		return false, err
	}
	h.room = next
	h.reconcileTimer()
	h.publish()
	return true, nil
}

func (h *Host) publish() {
	snapshot := h.room.Clone()
	h.out.Broadcast(snapshot)
	h.observers.notify(snapshot)
}

func (h *Host) closeAuction(r *models.Room) (bool, error) {
	settlement, ok, err := h.handler.CloseAuction(r)
	if err != nil || !ok {
		return false, err
	}
	log.Info().
		Str("room_code", h.code).
		Str("instance_id", settlement.InstanceID).
		Str("seller_id", settlement.SellerID).
		Str("buyer_id", settlement.BuyerID).
		Int("amount", settlement.Amount).
		Msg("auction closed")
	return true, nil
}

func (h *Host) handleIntent(connID, intentID string, intent auction.Intent) {
	logger := log.With().Str("room_code", h.code).Str("conn_id", connID).Str("intent", string(intent.Kind())).Logger()

	bound, known := h.conns[connID]
	if !known {
		logger.Warn().Msg("intent from unknown connection dropped")
		return
	}
	if intentID != "" {
		if h.seen.Contains(intentID) {
			logger.Debug().Str("intent_id", intentID).Msg("duplicate intent ignored")
			return
		}
		h.seen.Add(intentID, struct{}{})
	}

	if join, ok := intent.(auction.Join); ok {
		h.handleJoin(connID, bound, join)
		return
	}
	if bound == "" || intent.Actor() != bound {
		logger.Debug().Str("student_id", intent.Actor()).Str("bound_to", bound).Msg("intent rejected: connection does not act for student")
		return
	}

	_, err := h.commit(func(r *models.Room) (bool, error) {
		res, err := h.handler.Apply(r, intent)
		return res.Changed, err
	})
	h.logOutcome(logger.With().Str("student_id", bound).Logger(), err)
}

func (h *Host) handleJoin(connID, bound string, join auction.Join) {
	nickname := strings.TrimSpace(join.Nickname)
	if bound != "" {
		if s, ok := h.room.Student(bound); ok && s.Nickname != nickname {
			log.Debug().Str("conn_id", connID).Str("student_id", bound).Msg("join rejected: connection already bound to another student")
			return
		}
	}

	var studentID string
	changed, err := h.commit(func(r *models.Room) (bool, error) {
		if bound != "" {
			studentID = bound
			return false, nil
		}
		res, err := h.handler.Join(r, join)
		studentID = res.StudentID
		return res.Changed, err
	})
	switch {
	case errors.Is(err, auction.RejectNicknameTaken):
		log.Info().Str("conn_id", connID).Str("nickname", nickname).Msg("join refused: nickname taken")
		h.out.Disconnect(connID, protocol.CloseNicknameTaken, "nickname taken")
		return
	case errors.Is(err, auction.RejectRoomFinished):
		log.Info().Str("conn_id", connID).Str("nickname", nickname).Msg("join refused: room finished")
		h.out.Disconnect(connID, protocol.CloseRoomClosed, "room finished")
		return
	case err != nil:
		h.logOutcome(log.With().Str("conn_id", connID).Str("intent", string(auction.KindJoin)).Logger(), err)
		return
	}

	h.conns[connID] = studentID
	h.out.Joined(connID, studentID, h.room.Clone())
	if changed {
		log.Info().Str("room_code", h.code).Str("student_id", studentID).Str("nickname", nickname).Msg("student joined")
		return
	}
	log.Info().Str("room_code", h.code).Str("student_id", studentID).Str("nickname", nickname).Msg("student reattached")
}

func (h *Host) handleTick() {
	instanceID := h.timer.fired()
	_, err := h.commit(func(r *models.Room) (bool, error) {
		if r.ActiveAuction == nil || r.ActiveAuction.InstanceID != instanceID {
			return false, nil
		}
		changed, expired := h.handler.Tick(r)
		if expired {
			return h.closeAuction(r)
		}
		return changed, nil
	})
	if err != nil {
		log.Error().Err(err).Str("room_code", h.code).Str("instance_id", instanceID).Msg("auction tick failed")
	}
	h.reconcileTimer()
}

// reconcileTimer keeps exactly one pending tick while a timed auction is
// counting down and none otherwise.
func (h *Host) reconcileTimer() {
	a := h.room.ActiveAuction
	if a == nil || a.TimeLeft <= 0 || h.room.Status == models.RoomStatusFinished {
		h.timer.cancel()
		return
	}
	h.timer.schedule(a.InstanceID)
}

func (h *Host) logOutcome(logger zerolog.Logger, err error) {
	switch {
	case err == nil:
	case auction.IsRejection(err):
		logger.Debug().Str("reason", err.Error()).Msg("intent rejected")
	case errors.Is(err, auction.ErrInvariant):
		logger.Error().Err(err).Msg("mutation aborted")
	default:
		logger.Error().Err(err).Msg("intent failed")
	}
}
