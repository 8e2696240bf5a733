package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/mcdev12/auctionroom/go/internal/auction"
	"github.com/mcdev12/auctionroom/go/internal/idgen"
	"github.com/mcdev12/auctionroom/go/internal/models"
	"github.com/mcdev12/auctionroom/go/internal/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type linkRecorder struct {
	intents []auction.Intent
}

func (l *linkRecorder) Send(_ context.Context, _ string, intent auction.Intent) error {
	l.intents = append(l.intents, intent)
	return nil
}

func (l *linkRecorder) last() auction.Intent {
	return l.intents[len(l.intents)-1]
}

func newConsole(t *testing.T) (*console, *linkRecorder, *bytes.Buffer) {
	t.Helper()
	link := &linkRecorder{}
	p := room.NewParticipant("Alice", link, &idgen.Sequence{Prefix: "intent"})
	p.ConfirmJoin("s1", &models.Room{
		Code:   "CLASS1",
		Status: models.RoomStatusMarket,
		Students: []*models.Student{{
			ID: "s1", Nickname: "Alice", Coins: 1000,
			Inventory: []*models.SentenceInstance{
				{ID: "i1", Text: "The cat sat", OwnerID: "s1"},
				{ID: "i2", Text: "on the mat", OwnerID: "s1"},
			},
		}},
		ActiveAuction: &models.ActiveAuction{InstanceID: "i9", SellerNickname: "Bob", Text: "and purred", TimeLeft: 7},
	})
	out := &bytes.Buffer{}
	return &console{p: p, out: out}, link, out
}

func TestConsole_Commands(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, link, _ := newConsole(t)

	answer := "subject"
	tests := []struct {
		line string
		want auction.Intent
	}{
		{line: "bid 300", want: auction.PlaceBid{StudentID: "s1", Amount: 300}},
		{line: "sell 2", want: auction.StartAuction{StudentID: "s1", InstanceID: "i2"}},
		{line: "SKIP", want: auction.SkipTurn{StudentID: "s1"}},
		{line: "slot 1 1 subject", want: auction.UpdateWorksheet{StudentID: "s1", SlotIndex: 0, Instance: auction.Assign("i1"), Answer: &answer}},
		{line: "slot 2 clear", want: auction.UpdateWorksheet{StudentID: "s1", SlotIndex: 1, Instance: auction.Clear()}},
		{line: "answer 1 subject", want: auction.UpdateWorksheet{StudentID: "s1", SlotIndex: 0, Answer: &answer}},
		{line: "memo 1 the subject part", want: auction.UpdateMemo{StudentID: "s1", InstanceID: "i1", Memo: "the subject part"}},
	}
	for _, tt := range tests {
		require.NoError(t, c.exec(ctx, tt.line), tt.line)
		assert.Equal(t, tt.want, link.last(), tt.line)
	}
}

func TestConsole_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, link, _ := newConsole(t)

	for _, line := range []string{"bid lots", "sell 3", "sell 0", "slot 0 1", "slot 1", "memo 1", "dance"} {
		assert.Error(t, c.exec(ctx, line), line)
	}
	assert.Empty(t, link.intents)
	assert.ErrorIs(t, c.exec(ctx, "quit"), errQuit)
	assert.NoError(t, c.exec(ctx, "   "))
}

func TestConsole_Render(t *testing.T) {
	t.Parallel()
	c, _, out := newConsole(t)
	require.NoError(t, c.exec(context.Background(), "room"))
	assert.Contains(t, out.String(), "room CLASS1 [MARKET]")
	assert.Contains(t, out.String(), `auction: "and purred" from Bob, no bids, 7s left`)

	out.Reset()
	require.NoError(t, c.exec(context.Background(), "me"))
	assert.Contains(t, out.String(), "1. The cat sat")
}

func TestConsole_NotJoined(t *testing.T) {
	t.Parallel()
	link := &linkRecorder{}
	c := &console{p: room.NewParticipant("Zed", link, nil), out: &bytes.Buffer{}}
	assert.ErrorIs(t, c.exec(context.Background(), "bid 10"), room.ErrNotJoined)
	assert.ErrorIs(t, c.exec(context.Background(), "me"), room.ErrNotJoined)
}
