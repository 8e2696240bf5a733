package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mcdev12/auctionroom/go/internal/auction"
	"github.com/mcdev12/auctionroom/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLines(t *testing.T) {
	t.Parallel()
	raw := "\ufeffThe cat sat / subject\n\n   on the mat/place / extra \nno concept\n / orphan\n"

	got := ParseLines(raw, models.RoomModeConceptMatch)
	assert.Equal(t, []models.SentenceTemplate{
		{Text: "The cat sat", Concept: "subject"},
		{Text: "on the mat", Concept: "place"},
		{Text: "no concept", Concept: PlaceholderConcept},
		{Text: PlaceholderText, Concept: "orphan"},
	}, got)

	ordered := ParseLines("first\nsecond / 2", models.RoomModeOrderMatch)
	assert.Equal(t, []models.SentenceTemplate{
		{Text: "first", Concept: DefaultOrderLabel},
		{Text: "second", Concept: "2"},
	}, ordered)

	assert.Empty(t, ParseLines("  \n\n", models.RoomModeOrderMatch))
}

func TestReadCSV(t *testing.T) {
	t.Parallel()
	input := "\ufeff\"The cat, sat\",subject\n,skipped\non the mat\n  last line , 3 ,ignored\n"

	got, err := ReadCSV(strings.NewReader(input), models.RoomModeOrderMatch)
	require.NoError(t, err)
	assert.Equal(t, []models.SentenceTemplate{
		{Text: "The cat, sat", Concept: "subject"},
		{Text: "on the mat", Concept: DefaultOrderLabel},
		{Text: "last line", Concept: "3"},
	}, got)

	_, err = ReadCSV(strings.NewReader("\"unterminated\n"), models.RoomModeOrderMatch)
	assert.Error(t, err)
}

func TestLoadPreset(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "preset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
code: class1
mode: ORDER_MATCH
initial_coins: 1500
templates:
  - text: The cat sat
    concept: "1"
  - text: on the mat
lines: |
  and purred / 3
policy:
  bid:
    minimum_bid: 100
    auction_seconds: 20
    extension_seconds: 5
  rejoin: reject
  allocation:
    kind: draw
    items_per_student: 2
    seed: 9
`), 0o600))

	preset, err := LoadPreset(path)
	require.NoError(t, err)
	assert.Equal(t, "class1", preset.Code)
	assert.Equal(t, models.RoomModeOrderMatch, preset.Mode)
	assert.Equal(t, 1500, preset.InitialCoins)
	assert.Equal(t, []models.SentenceTemplate{
		{Text: "The cat sat", Concept: "1"},
		{Text: "on the mat", Concept: DefaultOrderLabel},
		{Text: "and purred", Concept: "3"},
	}, preset.AllTemplates())

	policy, err := preset.ApplyPolicy(auction.DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, auction.RejoinReject, policy.Rejoin)
	assert.Equal(t, auction.AllocationDraw, policy.Allocation.Kind)
	assert.Equal(t, int64(9), policy.Allocation.Seed)
	assert.Equal(t, 100, policy.Bid.MinimumBid)
	assert.Equal(t, 20, policy.Bid.AuctionSeconds)
	assert.True(t, policy.EnforceSellerTurn, "fields absent from the file keep their base value")
}

func TestPreset_WithoutPolicyKeepsBase(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "preset.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lines: a / b\n"), 0o600))

	preset, err := LoadPreset(path)
	require.NoError(t, err)
	assert.Equal(t, models.RoomModeConceptMatch, preset.Mode)

	base := auction.DefaultPolicy()
	base.Bid.MinimumBid = 42
	policy, err := preset.ApplyPolicy(base)
	require.NoError(t, err)
	assert.Equal(t, base, policy)
}

func TestLoadPreset_Invalid(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("mode: RANDOM\n"), 0o600))

	_, err := LoadPreset(bad)
	assert.ErrorIs(t, err, auction.ErrInvalidMode)

	badPolicy := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(badPolicy, []byte("policy:\n  rejoin: sometimes\n"), 0o600))
	_, err = LoadPreset(badPolicy)
	assert.Error(t, err)

	_, err = LoadPreset(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	t.Parallel()
	got := Normalize([]models.SentenceTemplate{
		{Text: "  The cat sat ", Concept: " subject "},
		{Text: "", Concept: ""},
	}, models.RoomModeCombined)
	assert.Equal(t, []models.SentenceTemplate{
		{Text: "The cat sat", Concept: "subject"},
		{Text: PlaceholderText, Concept: PlaceholderConcept},
	}, got)
}
