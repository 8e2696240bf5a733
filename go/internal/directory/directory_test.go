package directory

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "  class1 ", want: "CLASS1"},
		{raw: "123456", want: "123456"},
		{raw: "room_a-1", want: "ROOM_A-1"},
		{raw: "abc", wantErr: true},
		{raw: "   ", wantErr: true},
		{raw: "반1반1", want: "반1반1"},
		{raw: " ümlaut", want: "ÜMLAUT"},
		{raw: "has space", wantErr: true},
		{raw: "tab\tcode", wantErr: true},
		{raw: "ünï", wantErr: true},
		{raw: "abcdefghijklmnopqrstuvwxyz0123456", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizeCode(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "RSA-CLASS1", Handle("CLASS1"))
}

func TestNATSKey(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "RSA-CLASS1", natsKey("RSA-CLASS1"))
	assert.Equal(t, "RSA-ROOM_A-1", natsKey("RSA-ROOM_A-1"))

	korean := natsKey(Handle("반1반1"))
	assert.Regexp(t, `^RSA-=[A-Za-z0-9_-]+$`, korean)
	assert.NotEqual(t, korean, natsKey(Handle("반2반2")))
}

// testDirectory runs the behaviour every implementation shares.
func testDirectory(t *testing.T, d Directory) {
	ctx := context.Background()
	code := "T" + uuid.NewString()[:8]

	_, err := d.Lookup(ctx, code)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	require.NoError(t, d.Register(ctx, code, "ws://host-a/ws/room"))
	assert.ErrorIs(t, d.Register(ctx, " "+code+" ", "ws://host-b/ws/room"), ErrCodeInUse)

	endpoint, err := d.Lookup(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "ws://host-a/ws/room", endpoint)

	require.NoError(t, d.Release(ctx, code))
	_, err = d.Lookup(ctx, code)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	require.NoError(t, d.Release(ctx, code))

	require.NoError(t, d.Register(ctx, code, "ws://host-b/ws/room"))
	require.NoError(t, d.Release(ctx, code))

	assert.ErrorIs(t, d.Register(ctx, "ab", "ws://x"), ErrInvalidCode)

	hangul := "반" + code[1:5]
	require.NoError(t, d.Register(ctx, hangul, "ws://host-c/ws/room"))
	endpoint, err = d.Lookup(ctx, " "+strings.ToLower(hangul)+" ")
	require.NoError(t, err)
	assert.Equal(t, "ws://host-c/ws/room", endpoint)
	require.NoError(t, d.Release(ctx, hangul))
}

func TestMemory(t *testing.T) {
	t.Parallel()
	testDirectory(t, NewMemory())
}

func TestNATS(t *testing.T) {
	url := os.Getenv("AUCTION_TEST_NATS_URL")
	if url == "" {
		t.Skip("AUCTION_TEST_NATS_URL not set")
	}
	cfg := DefaultNATSConfig()
	cfg.URL = url
	cfg.Bucket = "auction_rooms_test"
	cfg.TTL = time.Minute

	d, err := NewNATS(context.Background(), cfg)
	require.NoError(t, err)
	defer d.Close()
	testDirectory(t, d)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("AUCTION_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("AUCTION_TEST_REDIS_ADDR not set")
	}
	d, err := NewRedis(context.Background(), RedisConfig{Addr: addr, KeyPrefix: "auction:test:", TTL: time.Minute})
	require.NoError(t, err)
	defer d.Close()
	testDirectory(t, d)
}
