package auction

import (
	"strings"

	"github.com/mcdev12/auctionroom/go/internal/models"
)

const (
	PointsPerItem        = 10
	PointsPerCorrectSlot = 50
	PointsPerBid         = 5
)

// Score computes a student's final score.
func Score(s *models.Student, templates []models.SentenceTemplate, mode models.RoomMode) int {
	return len(s.Inventory)*PointsPerItem +
		CorrectSlots(s, templates, mode)*PointsPerCorrectSlot +
		s.BidCount*PointsPerBid
}

// CorrectSlots counts worksheet slots whose assignment satisfies mode.
func CorrectSlots(s *models.Student, templates []models.SentenceTemplate, mode models.RoomMode) int {
	correct := 0
	for i, t := range templates {
		item, ok := s.ItemAtSlot(i)
		if !ok || item.Text != t.Text {
			continue
		}
		switch mode {
		case models.RoomModeOrderMatch:
			correct++
		default:
			// CONCEPT_MATCH and COMBINED also require the written concept.
			if answersEqual(s.WorksheetAnswers[i], t.Concept) {
				correct++
			}
		}
	}
	return correct
}

func answersEqual(answer, concept string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(concept))
}
