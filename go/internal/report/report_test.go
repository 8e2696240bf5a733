package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mcdev12/auctionroom/go/internal/dbconfig"
	"github.com/mcdev12/auctionroom/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func finishedRoom() *models.Room {
	return &models.Room{
		Code:   "CLASS1",
		Mode:   models.RoomModeOrderMatch,
		Status: models.RoomStatusFinished,
		Templates: []models.SentenceTemplate{
			{Text: "The cat sat", Concept: "1"},
			{Text: "on the mat", Concept: "2"},
		},
		Students: []*models.Student{
			{
				ID: "s1", Nickname: "Alice", Coins: 400, BidCount: 2, SaleCount: 1, Score: 80,
				Inventory: []*models.SentenceInstance{
					{ID: "i1", Text: "The cat sat", Concept: "1", OwnerID: "s1", AssignedSlot: intPtr(0), Memo: "subject"},
					{ID: "i2", Text: "and purred", Concept: "3", OwnerID: "s1"},
				},
			},
			{ID: "s2", Nickname: "Bob, Jr.", Coins: 1600},
		},
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.FixedZone("KST", 9*3600))
	room := finishedRoom()
	before := room.Clone()

	got := Build(room, at)

	want := Report{
		Code:        "CLASS1",
		Mode:        models.RoomModeOrderMatch,
		Status:      models.RoomStatusFinished,
		GeneratedAt: at.UTC(),
		Rows: []Row{
			{
				Nickname: "Alice", Coins: 400, ItemCount: 2, Score: 2*10 + 50 + 2*5, CorrectSlots: 1, Bids: 2, Sales: 1,
				Items: []Item{
					{Text: "The cat sat", Concept: "1", Memo: "subject", Slot: intPtr(0)},
					{Text: "and purred", Concept: "3"},
				},
			},
			{Nickname: "Bob, Jr.", Coins: 1600},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, before, room, "building a report must not touch the room")

	assert.Equal(t, "[text: The cat sat, memo: subject, slot: 0] | [text: and purred, memo: -, slot: -]", got.Rows[0].Activity())
	assert.Empty(t, got.Rows[1].Activity())
}

func TestBuild_Scores(t *testing.T) {
	t.Parallel()

	finished := finishedRoom()
	finished.Students[0].Score = 75
	rep := Build(finished, time.Now())
	assert.False(t, rep.Provisional)
	assert.Equal(t, 75, rep.Rows[0].Score, "a finished room reports the score fixed at finish")

	market := finishedRoom()
	market.Status = models.RoomStatusMarket
	market.Students[0].Score = 0
	rep = Build(market, time.Now())
	assert.True(t, rep.Provisional)
	assert.Equal(t, 2*10+50+2*5, rep.Rows[0].Score)
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Build(finishedRoom(), time.Now())))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\ufeff"), "csv starts with a byte order mark")

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, "\ufeff"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, []string{"Alice", "400", "2", "80", "1", "2", "1",
		"[text: The cat sat, memo: subject, slot: 0] | [text: and purred, memo: -, slot: -]"}, records[1])
	assert.Equal(t, []string{"Bob, Jr.", "1600", "0", "0", "0", "0", "0", ""}, records[2])

	assert.Equal(t, "auction_results_CLASS1.csv", Filename("CLASS1"))
}

func TestPostgresSink(t *testing.T) {
	if os.Getenv("AUCTION_TEST_DB") == "" {
		t.Skip("AUCTION_TEST_DB not set")
	}
	ctx := context.Background()
	cfg, err := dbconfig.NewConfigFromEnv()
	require.NoError(t, err)

	sink, err := NewPostgresSink(ctx, cfg)
	require.NoError(t, err)
	defer sink.Close()

	rep := Build(finishedRoom(), time.Now())
	id, err := sink.Archive(ctx, rep)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	var rows int
	require.NoError(t, sink.pool.QueryRow(ctx,
		`SELECT count(*) FROM auction_report_rows WHERE report_id = $1`, id).Scan(&rows))
	assert.Equal(t, len(rep.Rows), rows)
}
