package protocol

import (
	"testing"

	"github.com/mcdev12/auctionroom/go/internal/auction"
	"github.com/mcdev12/auctionroom/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeIntent(t *testing.T) {
	t.Parallel()
	answer := "subject"
	tests := []struct {
		name     string
		frame    string
		intentID string
		want     auction.Intent
	}{
		{
			name:  "join",
			frame: `{"type":"JOIN","payload":{"nickname":"Alice"}}`,
			want:  auction.Join{Nickname: "Alice"},
		},
		{
			name:     "bid with intent id",
			frame:    `{"type":"BID","intentId":"i-1","payload":{"studentId":"s1","amount":1000}}`,
			intentID: "i-1",
			want:     auction.PlaceBid{StudentID: "s1", Amount: 1000},
		},
		{
			name:  "start auction",
			frame: `{"type":"START_AUCTION","payload":{"studentId":"s1","instanceId":"x"}}`,
			want:  auction.StartAuction{StudentID: "s1", InstanceID: "x"},
		},
		{
			name:  "skip turn",
			frame: `{"type":"SKIP_TURN","payload":{"studentId":"s1"}}`,
			want:  auction.SkipTurn{StudentID: "s1"},
		},
		{
			name:  "worksheet answer only",
			frame: `{"type":"UPDATE_WORKSHEET","payload":{"studentId":"s1","slotIndex":2,"answer":"subject"}}`,
			want:  auction.UpdateWorksheet{StudentID: "s1", SlotIndex: 2, Answer: &answer},
		},
		{
			name:  "worksheet clear",
			frame: `{"type":"UPDATE_WORKSHEET","payload":{"studentId":"s1","slotIndex":0,"instanceId":null}}`,
			want:  auction.UpdateWorksheet{StudentID: "s1", SlotIndex: 0, Instance: auction.Clear()},
		},
		{
			name:  "worksheet assign",
			frame: `{"type":"UPDATE_WORKSHEET","payload":{"studentId":"s1","slotIndex":1,"instanceId":"x"}}`,
			want:  auction.UpdateWorksheet{StudentID: "s1", SlotIndex: 1, Instance: auction.Assign("x")},
		},
		{
			name:  "memo",
			frame: `{"type":"UPDATE_MEMO","payload":{"studentId":"s1","instanceId":"x","memo":"hi"}}`,
			want:  auction.UpdateMemo{StudentID: "s1", InstanceID: "x", Memo: "hi"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intentID, intent, err := DecodeIntent([]byte(tt.frame))
			require.NoError(t, err)
			assert.Equal(t, tt.intentID, intentID)
			assert.Equal(t, tt.want, intent)
		})
	}
}

func TestDecodeIntent_Errors(t *testing.T) {
	t.Parallel()
	for _, frame := range []string{
		`not json`,
		`{"type":"SYNC","payload":{}}`,
		`{"type":"TELEPORT","payload":{}}`,
		`{"type":"BID"}`,
		`{"type":"BID","payload":{"amount":"lots"}}`,
	} {
		_, _, err := DecodeIntent([]byte(frame))
		assert.Error(t, err, frame)
	}

	_, _, err := DecodeIntent([]byte(`{"type":"TELEPORT","payload":{}}`))
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestEncodeIntent_WorksheetTriState(t *testing.T) {
	t.Parallel()
	for _, in := range []auction.UpdateWorksheet{
		{StudentID: "s1", SlotIndex: 0},
		{StudentID: "s1", SlotIndex: 0, Instance: auction.Clear()},
		{StudentID: "s1", SlotIndex: 3, Instance: auction.Assign("x")},
	} {
		data, err := EncodeIntent("", in)
		require.NoError(t, err)
		_, got, err := DecodeIntent(data)
		require.NoError(t, err)
		assert.Equal(t, in, got)
	}

	data, err := EncodeIntent("", auction.UpdateWorksheet{StudentID: "s1"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "instanceId")
}

func TestSync(t *testing.T) {
	t.Parallel()
	room := &models.Room{ID: "r1", Code: "CLASS1", Status: models.RoomStatusLobby}
	data, err := EncodeSync(room)
	require.NoError(t, err)

	got, err := DecodeSync(data)
	require.NoError(t, err)
	assert.Equal(t, "CLASS1", got.Room.Code)
	assert.Equal(t, models.RoomStatusLobby, got.Room.Status)
	assert.Empty(t, got.You)
	assert.NotContains(t, string(data), `"you"`)

	data, err = EncodeJoined("s1", room)
	require.NoError(t, err)
	got, err = DecodeSync(data)
	require.NoError(t, err)
	assert.Equal(t, "s1", got.You)
	assert.Equal(t, "CLASS1", got.Room.Code)

	bid, err := EncodeIntent("", auction.PlaceBid{StudentID: "s", Amount: 1})
	require.NoError(t, err)
	_, err = DecodeSync(bid)
	assert.ErrorIs(t, err, ErrNotSync)
}
