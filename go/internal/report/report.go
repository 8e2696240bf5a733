// Package report projects a finished room into per-student rows for export.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/mcdev12/auctionroom/go/internal/auction"
	"github.com/mcdev12/auctionroom/go/internal/models"
)

// NoMemo is written for items the student never annotated.
const NoMemo = "-"

// Item is one owned sentence as it appears in the export.
type Item struct {
	Text    string
	Concept string
	Memo    string
	Slot    *int
}

// Row is one student's line in the report.
type Row struct {
	Nickname     string
	Coins        int
	ItemCount    int
	Score        int
	CorrectSlots int
	Bids         int
	Sales        int
	Items        []Item
}

// Report is the export of a single room.
type Report struct {
	Code        string
	Mode        models.RoomMode
	Status      models.RoomStatus
	GeneratedAt time.Time
	// Provisional is set when the room has not finished. Scores are then
	// projected from the current worksheets rather than the ones fixed at
	// finish.
	Provisional bool
	Rows        []Row
}

// Build projects room into a report. Rows follow join order. The room is
// only read.
func Build(room *models.Room, at time.Time) Report {
	rep := Report{
		Code:        room.Code,
		Mode:        room.Mode,
		Status:      room.Status,
		GeneratedAt: at.UTC(),
		Provisional: room.Status != models.RoomStatusFinished,
		Rows:        make([]Row, 0, len(room.Students)),
	}
	for _, s := range room.Students {
		row := Row{
			Nickname:     s.Nickname,
			Coins:        s.Coins,
			ItemCount:    len(s.Inventory),
			Score:        s.Score,
			CorrectSlots: auction.CorrectSlots(s, room.Templates, room.Mode),
			Bids:         s.BidCount,
			Sales:        s.SaleCount,
		}
		if rep.Provisional {
			row.Score = auction.Score(s, room.Templates, room.Mode)
		}
		for _, it := range s.Inventory {
			item := Item{Text: it.Text, Concept: it.Concept, Memo: it.Memo}
			if it.AssignedSlot != nil {
				slot := *it.AssignedSlot
				item.Slot = &slot
			}
			row.Items = append(row.Items, item)
		}
		rep.Rows = append(rep.Rows, row)
	}
	return rep
}

// Activity summarises the row's items as "[text: ..., memo: ..., slot: ...]"
// entries joined by " | ".
func (r Row) Activity() string {
	parts := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		memo := it.Memo
		if strings.TrimSpace(memo) == "" {
			memo = NoMemo
		}
		slot := "-"
		if it.Slot != nil {
			slot = fmt.Sprint(*it.Slot)
		}
		parts = append(parts, fmt.Sprintf("[text: %s, memo: %s, slot: %s]", it.Text, memo, slot))
	}
	return strings.Join(parts, " | ")
}
