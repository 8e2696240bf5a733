package config

import (
	"testing"

	"github.com/mcdev12/auctionroom/go/internal/auction"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DirectoryMemory, cfg.Directory)
	assert.Equal(t, "ws://localhost:8080/ws/room", cfg.Endpoint())
	assert.Equal(t, "auctionroom", cfg.DB.Database)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, auction.DefaultPolicy(), policy)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, lvl)
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AUCTION_PORT", "9090")
	t.Setenv("AUCTION_PUBLIC_URL", "wss://class.example/ws/room")
	t.Setenv("AUCTION_DIRECTORY", "redis")
	t.Setenv("AUCTION_MIN_BID", "100")
	t.Setenv("AUCTION_AUCTION_SECONDS", "0")
	t.Setenv("AUCTION_REJOIN_POLICY", "reject")
	t.Setenv("AUCTION_ALLOCATION_POLICY", "draw")
	t.Setenv("AUCTION_ITEMS_PER_STUDENT", "3")
	t.Setenv("AUCTION_ENFORCE_SELLER_TURN", "false")
	t.Setenv("DB_NAME", "archive")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "wss://class.example/ws/room", cfg.Endpoint())
	assert.Equal(t, DirectoryRedis, cfg.Directory)
	assert.Equal(t, "archive", cfg.DB.Database)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, auction.Policy{
		Bid:               auction.BidPolicy{MinimumBid: 100, AuctionSeconds: 0, ExtensionSeconds: 10},
		Rejoin:            auction.RejoinReject,
		Allocation:        auction.AllocationPolicy{Kind: auction.AllocationDraw, ItemsPerStudent: 3},
		EnforceSellerTurn: false,
	}, policy)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string][2]string{
		"directory":  {"AUCTION_DIRECTORY", "etcd"},
		"rejoin":     {"AUCTION_REJOIN_POLICY", "sometimes"},
		"log level":  {"AUCTION_LOG_LEVEL", "loud"},
		"not an int": {"AUCTION_MIN_BID", "lots"},
		"negative":   {"AUCTION_MIN_BID", "-1"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadParticipant(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadParticipant()
	assert.Error(t, err, "memory directory needs an endpoint")

	t.Setenv("AUCTION_ENDPOINT", "ws://10.0.0.5:8080/ws/room")
	t.Setenv("AUCTION_NICKNAME", "Alice")
	cfg, err := LoadParticipant()
	require.NoError(t, err)
	assert.Equal(t, "Alice", cfg.Nickname)
	assert.Equal(t, "participant.db", cfg.MirrorPath)

	t.Setenv("AUCTION_DIRECTORY", "nats")
	t.Setenv("AUCTION_ENDPOINT", "")
	cfg, err = LoadParticipant()
	require.NoError(t, err)
	assert.Equal(t, DirectoryNATS, cfg.Directory)
}
