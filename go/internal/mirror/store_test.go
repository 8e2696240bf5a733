package mirror

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mcdev12/auctionroom/go/internal/models"
	"github.com/mcdev12/auctionroom/go/internal/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "mirror.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Snapshot(t *testing.T) {
	t.Parallel()
	s := openStore(t)

	_, err := s.LoadSnapshot("CLASS1")
	assert.ErrorIs(t, err, ErrEntryNotFound)

	slot := 1
	r := &models.Room{
		ID:     "r1",
		Code:   "CLASS1",
		Status: models.RoomStatusMarket,
		Students: []*models.Student{{
			ID:               "s1",
			Nickname:         "Alice",
			Coins:            900,
			Inventory:        []*models.SentenceInstance{{ID: "x", Text: "t", OwnerID: "s1", AssignedSlot: &slot}},
			WorksheetAnswers: map[int]string{1: "subject"},
		}},
	}
	require.NoError(t, s.SaveSnapshot(r))

	r2 := r.Clone()
	r2.Students[0].Coins = 800
	require.NoError(t, s.SaveSnapshot(r2))

	got, err := s.LoadSnapshot("CLASS1")
	require.NoError(t, err)
	assert.Equal(t, r2, got)
}

func TestStore_Identity(t *testing.T) {
	t.Parallel()
	s := openStore(t)

	_, err := s.LoadIdentity(room.RoleParticipant)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	id := room.Identity{Role: room.RoleParticipant, Code: "CLASS1", Nickname: "Alice", StudentID: "s1"}
	require.NoError(t, s.SaveIdentity(id))
	got, err := s.LoadIdentity(room.RoleParticipant)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestWriter_KeepsLatest(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	w := NewWriter(s)
	for coins := 1; coins <= 5; coins++ {
		w.Observe(&models.Room{Code: "CLASS1", InitialCoins: coins})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		got, err := s.LoadSnapshot("CLASS1")
		return err == nil && got.InitialCoins == 5
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
