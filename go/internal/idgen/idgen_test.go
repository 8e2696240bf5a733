package idgen

import (
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence(t *testing.T) {
	t.Parallel()
	s := &Sequence{Prefix: "id"}
	assert.Equal(t, "id-1", s.NewID())
	assert.Equal(t, "id-2", s.NewID())
}

func TestUUID(t *testing.T) {
	t.Parallel()
	a, b := UUID{}.NewID(), UUID{}.NewID()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}

func TestJoinCode(t *testing.T) {
	t.Parallel()
	for i := 0; i < 200; i++ {
		code := JoinCode()
		require.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}
