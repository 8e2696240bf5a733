package main

import (
	"context"
	"testing"

	"github.com/mcdev12/auctionroom/go/internal/directory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimCode(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := directory.NewMemory()

	code, err := claimCode(ctx, dir, " class1 ", "ws://a/ws/room")
	require.NoError(t, err)
	assert.Equal(t, "CLASS1", code)

	_, err = claimCode(ctx, dir, "CLASS1", "ws://b/ws/room")
	assert.ErrorIs(t, err, directory.ErrCodeInUse)

	_, err = claimCode(ctx, dir, "x", "ws://b/ws/room")
	assert.ErrorIs(t, err, directory.ErrInvalidCode)

	generated, err := claimCode(ctx, dir, "", "ws://c/ws/room")
	require.NoError(t, err)
	assert.Len(t, generated, 6)
	endpoint, err := dir.Lookup(ctx, generated)
	require.NoError(t, err)
	assert.Equal(t, "ws://c/ws/room", endpoint)
}
