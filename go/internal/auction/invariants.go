package auction

import (
	"fmt"

	"github.com/mcdev12/auctionroom/go/internal/models"
)

// CheckInvariants verifies the structural rules every committed room obeys.
func CheckInvariants(room *models.Room) error {
	seen := make(map[string]string)
	for _, s := range room.Students {
		if s.Coins < 0 {
			return fmt.Errorf("%w: student %s has %d coins", ErrInvariant, s.ID, s.Coins)
		}
		slots := make(map[int]string)
		for _, it := range s.Inventory {
			if owner, dup := seen[it.ID]; dup {
				return fmt.Errorf("%w: instance %s held by %s and %s", ErrInvariant, it.ID, owner, s.ID)
			}
			seen[it.ID] = s.ID
			if it.OwnerID != s.ID {
				return fmt.Errorf("%w: instance %s owner %s is in %s's inventory", ErrInvariant, it.ID, it.OwnerID, s.ID)
			}
			if it.AssignedSlot == nil {
				continue
			}
			slot := *it.AssignedSlot
			if slot < 0 || slot >= len(room.Templates) {
				return fmt.Errorf("%w: instance %s assigned to slot %d", ErrInvariant, it.ID, slot)
			}
			if other, dup := slots[slot]; dup {
				return fmt.Errorf("%w: slot %d of %s holds %s and %s", ErrInvariant, slot, s.ID, other, it.ID)
			}
			slots[slot] = it.ID
		}
	}

	if n := len(room.Students); n > 0 && (room.CurrentSellerIndex < 0 || room.CurrentSellerIndex >= n) {
		return fmt.Errorf("%w: seller index %d with %d students", ErrInvariant, room.CurrentSellerIndex, n)
	}

	if a := room.ActiveAuction; a != nil {
		if a.TimeLeft < 0 {
			return fmt.Errorf("%w: negative countdown", ErrInvariant)
		}
		if owner := seen[a.InstanceID]; owner != a.SellerID {
			return fmt.Errorf("%w: listed instance %s is not held by seller %s", ErrInvariant, a.InstanceID, a.SellerID)
		}
	}
	return nil
}
