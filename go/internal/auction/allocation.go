package auction

import (
	"math/rand"

	"github.com/mcdev12/auctionroom/go/internal/models"
	"github.com/valyala/fastrand"
)

func (h *Handler) rng() *rand.Rand {
	seed := h.policy.Allocation.Seed
	if seed == 0 {
		seed = int64(fastrand.Uint32())<<32 | int64(fastrand.Uint32())
	}
	return rand.New(rand.NewSource(seed))
}

// allocate deals starting inventory to every student. Instance ids are drawn
// in dealing order so a fixed seed and id sequence reproduce the same deal.
func (h *Handler) allocate(room *models.Room) {
	rng := h.rng()
	n := len(room.Templates)

	switch h.policy.Allocation.Kind {
	case AllocationDraw:
		for _, s := range room.Students {
			for i := 0; i < h.policy.Allocation.ItemsPerStudent; i++ {
				s.Inventory = append(s.Inventory, h.instance(room, rng.Intn(n), s.ID))
			}
		}
	default:
		pool := make([]int, 0, n*len(room.Students))
		for range room.Students {
			for t := 0; t < n; t++ {
				pool = append(pool, t)
			}
		}
		rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		for i, s := range room.Students {
			for _, t := range pool[i*n : (i+1)*n] {
				s.Inventory = append(s.Inventory, h.instance(room, t, s.ID))
			}
		}
	}
}

func (h *Handler) instance(room *models.Room, templateIndex int, ownerID string) *models.SentenceInstance {
	t := room.Templates[templateIndex]
	return &models.SentenceInstance{
		ID:                  h.ids.NewID(),
		Text:                t.Text,
		Concept:             t.Concept,
		OwnerID:             ownerID,
		OriginTemplateIndex: templateIndex,
	}
}
