package auction

import (
	"fmt"

	"github.com/mcdev12/auctionroom/go/internal/models"
)

// NewRoom creates an empty room in SETUP.
func (h *Handler) NewRoom(code, hostID string) *models.Room {
	return &models.Room{
		ID:        h.ids.NewID(),
		Code:      code,
		HostID:    hostID,
		Mode:      models.RoomModeConceptMatch,
		Status:    models.RoomStatusSetup,
		Templates: []models.SentenceTemplate{},
		Students:  []*models.Student{},
	}
}

// FinalizeSetup fixes the catalog, mode and starting balance and moves the
// room to LOBBY.
func (h *Handler) FinalizeSetup(room *models.Room, templates []models.SentenceTemplate, mode models.RoomMode, initialCoins int) error {
	if room.Status != models.RoomStatusSetup {
		return fmt.Errorf("%w: finalize setup from %s", ErrInvalidTransition, room.Status)
	}
	if len(templates) == 0 {
		return ErrNoTemplates
	}
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if initialCoins < 0 {
		return ErrInvalidCoins
	}

	room.Templates = append([]models.SentenceTemplate(nil), templates...)
	room.Mode = mode
	room.InitialCoins = initialCoins
	room.Status = models.RoomStatusLobby
	return nil
}

// StartGame deals starting inventory, resets balances and counters and moves
// the room to MARKET.
func (h *Handler) StartGame(room *models.Room) error {
	if room.Status != models.RoomStatusLobby {
		return fmt.Errorf("%w: start game from %s", ErrInvalidTransition, room.Status)
	}
	if len(room.Students) == 0 {
		return ErrNoStudents
	}

	for _, s := range room.Students {
		s.Coins = room.InitialCoins
		s.Inventory = []*models.SentenceInstance{}
		s.WorksheetAnswers = map[int]string{}
		s.Score = 0
		s.BidCount = 0
		s.SaleCount = 0
	}
	h.allocate(room)

	room.ActiveAuction = nil
	room.CurrentSellerIndex = 0
	room.Status = models.RoomStatusMarket
	return nil
}

// Finish settles any open auction, computes final scores and moves the room
// to FINISHED. Scores are never recomputed afterwards.
func (h *Handler) Finish(room *models.Room) error {
	if room.Status != models.RoomStatusMarket {
		return fmt.Errorf("%w: finish from %s", ErrInvalidTransition, room.Status)
	}
	if _, _, err := h.CloseAuction(room); err != nil {
		return err
	}
	for _, s := range room.Students {
		s.Score = Score(s, room.Templates, room.Mode)
	}
	room.Status = models.RoomStatusFinished
	return nil
}
