// Package auction implements the room state machine: intent validation,
// auction settlement, lifecycle transitions, allocation and scoring.
//
// Every operation validates completely before it touches the room, so a
// rejected intent leaves the room exactly as it was.
package auction

import (
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/auctionroom/go/internal/idgen"
	"github.com/mcdev12/auctionroom/go/internal/models"
)

// Handler applies intents to a room under a fixed policy.
type Handler struct {
	policy Policy
	ids    idgen.Generator
	clock  clockwork.Clock
}

// NewHandler creates a handler. ids and clock default to UUIDs and the real clock.
func NewHandler(policy Policy, ids idgen.Generator, clock clockwork.Clock) *Handler {
	if ids == nil {
		ids = idgen.UUID{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Handler{policy: policy, ids: ids, clock: clock}
}

// Policy returns the rules this handler enforces.
func (h *Handler) Policy() Policy { return h.policy }

// Result describes an applied intent.
type Result struct {
	// Changed is false for idempotent no-ops such as a repeated JOIN.
	Changed bool
	// StudentID is the student the intent resolved to.
	StudentID string
}

// Apply dispatches intent to its operation.
func (h *Handler) Apply(room *models.Room, intent Intent) (Result, error) {
	switch in := intent.(type) {
	case Join:
		return h.Join(room, in)
	case PlaceBid:
		return h.PlaceBid(room, in)
	case StartAuction:
		return h.StartAuction(room, in)
	case SkipTurn:
		return h.SkipTurn(room, in)
	case UpdateWorksheet:
		return h.UpdateWorksheet(room, in)
	case UpdateMemo:
		return h.UpdateMemo(room, in)
	default:
		return Result{}, RejectUnknownIntent
	}
}

// Join adds a student, or resolves an existing nickname under the rejoin
// policy. Once the room has finished only existing nicknames resolve.
func (h *Handler) Join(room *models.Room, in Join) (Result, error) {
	nickname := strings.TrimSpace(in.Nickname)
	if nickname == "" {
		return Result{}, RejectEmptyNickname
	}
	if existing, ok := room.StudentByNickname(nickname); ok {
		if h.policy.Rejoin == RejoinReject {
			return Result{StudentID: existing.ID}, RejectNicknameTaken
		}
		return Result{StudentID: existing.ID}, nil
	}
	if room.Status == models.RoomStatusFinished {
		return Result{}, RejectRoomFinished
	}

	student := &models.Student{
		ID:               h.ids.NewID(),
		Nickname:         nickname,
		Coins:            room.InitialCoins,
		Inventory:        []*models.SentenceInstance{},
		WorksheetAnswers: map[int]string{},
	}
	room.Students = append(room.Students, student)
	return Result{Changed: true, StudentID: student.ID}, nil
}

// PlaceBid replaces the highest bid when in.Amount strictly improves on it.
func (h *Handler) PlaceBid(room *models.Room, in PlaceBid) (Result, error) {
	if room.Status != models.RoomStatusMarket {
		return Result{}, RejectWrongStatus
	}
	a := room.ActiveAuction
	if a == nil {
		return Result{}, RejectNoActiveAuction
	}
	student, ok := room.Student(in.StudentID)
	if !ok {
		return Result{}, RejectUnknownStudent
	}
	if a.HighestBid == nil {
		if in.Amount <= 0 || in.Amount < h.policy.Bid.MinimumBid {
			return Result{}, RejectBelowFloor
		}
	} else if in.Amount <= a.HighestBid.Amount {
		return Result{}, RejectBidTooLow
	}
	if student.Coins < in.Amount {
		return Result{}, RejectInsufficientCoins
	}

	a.HighestBid = &models.Bid{
		StudentID: student.ID,
		Nickname:  student.Nickname,
		Amount:    in.Amount,
		Timestamp: h.clock.Now(),
	}
	student.BidCount++
	if a.TimeLeft > 0 && a.TimeLeft < h.policy.Bid.ExtensionSeconds {
		a.TimeLeft = h.policy.Bid.ExtensionSeconds
	}
	return Result{Changed: true, StudentID: student.ID}, nil
}

// StartAuction lists one of the seller's instances. The instance stays in the
// seller's inventory until the auction closes.
func (h *Handler) StartAuction(room *models.Room, in StartAuction) (Result, error) {
	if room.Status != models.RoomStatusMarket {
		return Result{}, RejectWrongStatus
	}
	if room.ActiveAuction != nil {
		return Result{}, RejectAuctionActive
	}
	seller, ok := room.Student(in.StudentID)
	if !ok {
		return Result{}, RejectUnknownStudent
	}
	if err := h.checkTurn(room, seller); err != nil {
		return Result{}, err
	}
	item, ok := seller.Item(in.InstanceID)
	if !ok {
		return Result{}, RejectNotOwner
	}

	room.ActiveAuction = &models.ActiveAuction{
		InstanceID:     item.ID,
		SellerID:       seller.ID,
		SellerNickname: seller.Nickname,
		Text:           item.Text,
		Concept:        item.Concept,
		TimeLeft:       h.policy.Bid.AuctionSeconds,
	}
	return Result{Changed: true, StudentID: seller.ID}, nil
}

// SkipTurn passes the selling turn to the next student in join order.
func (h *Handler) SkipTurn(room *models.Room, in SkipTurn) (Result, error) {
	if room.Status != models.RoomStatusMarket {
		return Result{}, RejectWrongStatus
	}
	if room.ActiveAuction != nil {
		return Result{}, RejectAuctionActive
	}
	student, ok := room.Student(in.StudentID)
	if !ok {
		return Result{}, RejectUnknownStudent
	}
	if err := h.checkTurn(room, student); err != nil {
		return Result{}, err
	}
	advanceSeller(room)
	return Result{Changed: true, StudentID: student.ID}, nil
}

// UpdateWorksheet assigns or clears a slot and records its answer.
func (h *Handler) UpdateWorksheet(room *models.Room, in UpdateWorksheet) (Result, error) {
	if room.Status != models.RoomStatusMarket {
		return Result{}, RejectWrongStatus
	}
	student, ok := room.Student(in.StudentID)
	if !ok {
		return Result{}, RejectUnknownStudent
	}
	if in.SlotIndex < 0 || in.SlotIndex >= len(room.Templates) {
		return Result{}, RejectInvalidSlot
	}
	var target *models.SentenceInstance
	if in.Instance.Set && in.Instance.ID != "" {
		if target, ok = student.Item(in.Instance.ID); !ok {
			return Result{}, RejectNotOwner
		}
	}

	changed := false
	if in.Instance.Set {
		if occupant, ok := student.ItemAtSlot(in.SlotIndex); ok && occupant != target {
			occupant.AssignedSlot = nil
			changed = true
		}
		if target != nil && (target.AssignedSlot == nil || *target.AssignedSlot != in.SlotIndex) {
			slot := in.SlotIndex
			target.AssignedSlot = &slot
			changed = true
		}
	}
	if in.Answer != nil {
		if prev, ok := student.WorksheetAnswers[in.SlotIndex]; !ok || prev != *in.Answer {
			if student.WorksheetAnswers == nil {
				student.WorksheetAnswers = map[int]string{}
			}
			student.WorksheetAnswers[in.SlotIndex] = *in.Answer
			changed = true
		}
	}
	return Result{Changed: changed, StudentID: student.ID}, nil
}

// UpdateMemo annotates an instance the student owns.
func (h *Handler) UpdateMemo(room *models.Room, in UpdateMemo) (Result, error) {
	if room.Status != models.RoomStatusMarket {
		return Result{}, RejectWrongStatus
	}
	student, ok := room.Student(in.StudentID)
	if !ok {
		return Result{}, RejectUnknownStudent
	}
	item, ok := student.Item(in.InstanceID)
	if !ok {
		return Result{}, RejectNotOwner
	}
	if item.Memo == in.Memo {
		return Result{StudentID: student.ID}, nil
	}
	item.Memo = in.Memo
	return Result{Changed: true, StudentID: student.ID}, nil
}

// Settlement describes how an auction closed.
type Settlement struct {
	InstanceID string
	SellerID   string
	BuyerID    string // empty when unsold
	Amount     int
}

// Sold reports whether the instance changed hands.
func (s Settlement) Sold() bool { return s.BuyerID != "" }

// CloseAuction settles the active auction. Manual closes, timer expiry and
// finishing the room all go through here. It returns ok=false when there was
// nothing to close.
func (h *Handler) CloseAuction(room *models.Room) (Settlement, bool, error) {
	a := room.ActiveAuction
	if a == nil {
		return Settlement{}, false, nil
	}
	seller, ok := room.Student(a.SellerID)
	if !ok {
		return Settlement{}, false, fmt.Errorf("%w: seller %s of instance %s is gone", ErrInvariant, a.SellerID, a.InstanceID)
	}
	if _, ok := seller.Item(a.InstanceID); !ok {
		return Settlement{}, false, fmt.Errorf("%w: seller %s no longer holds instance %s", ErrInvariant, a.SellerID, a.InstanceID)
	}
	settlement := Settlement{InstanceID: a.InstanceID, SellerID: seller.ID}

	if bid := a.HighestBid; bid != nil {
		buyer, ok := room.Student(bid.StudentID)
		if !ok {
			return Settlement{}, false, fmt.Errorf("%w: buyer %s is gone", ErrInvariant, bid.StudentID)
		}
		if buyer.Coins < bid.Amount {
			return Settlement{}, false, fmt.Errorf("%w: buyer %s cannot cover %d", ErrInvariant, buyer.ID, bid.Amount)
		}

		item, _ := seller.RemoveItem(a.InstanceID)
		item.OwnerID = buyer.ID
		item.AssignedSlot = nil
		item.Memo = ""
		buyer.Inventory = append(buyer.Inventory, item)
		buyer.Coins -= bid.Amount
		seller.Coins += bid.Amount
		seller.SaleCount++

		settlement.BuyerID = buyer.ID
		settlement.Amount = bid.Amount
	}

	room.ActiveAuction = nil
	advanceSeller(room)
	return settlement, true, nil
}

// Tick counts the active auction down by one second. expired is true on the
// tick that reaches zero.
func (h *Handler) Tick(room *models.Room) (changed, expired bool) {
	a := room.ActiveAuction
	if room.Status == models.RoomStatusFinished || a == nil || a.TimeLeft <= 0 {
		return false, false
	}
	a.TimeLeft--
	return true, a.TimeLeft == 0
}

func (h *Handler) checkTurn(room *models.Room, student *models.Student) error {
	if !h.policy.EnforceSellerTurn {
		return nil
	}
	current, ok := room.CurrentSeller()
	if !ok || current.ID != student.ID {
		return RejectNotYourTurn
	}
	return nil
}

func advanceSeller(room *models.Room) {
	if len(room.Students) == 0 {
		room.CurrentSellerIndex = 0
		return
	}
	room.CurrentSellerIndex = (room.CurrentSellerIndex + 1) % len(room.Students)
}
