// Package protocol defines the JSON frames exchanged between a room host and
// its participants.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcdev12/auctionroom/go/internal/auction"
	"github.com/mcdev12/auctionroom/go/internal/models"
)

// MessageType names a frame on the wire.
type MessageType string

const (
	MessageTypeJoin            = MessageType(auction.KindJoin)
	MessageTypeBid             = MessageType(auction.KindBid)
	MessageTypeStartAuction    = MessageType(auction.KindStartAuction)
	MessageTypeSkipTurn        = MessageType(auction.KindSkipTurn)
	MessageTypeUpdateWorksheet = MessageType(auction.KindUpdateWorksheet)
	MessageTypeUpdateMemo      = MessageType(auction.KindUpdateMemo)
	MessageTypeSync            MessageType = "SYNC"
)

// Websocket close codes the host uses when it ends a connection on purpose.
const (
	CloseRoomClosed    = 4000
	CloseNicknameTaken = 4001
)

var (
	ErrUnknownType = errors.New("unknown message type")
	ErrNotSync     = errors.New("message is not a sync frame")
)

// Envelope is the outer shape of every frame.
type Envelope struct {
	Type     MessageType     `json:"type"`
	IntentID string          `json:"intentId,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// SyncPayload carries a full room snapshot. You is set only on the frame that
// answers a connection's own JOIN and names the student it now acts for.
type SyncPayload struct {
	Room *models.Room `json:"room"`
	You  string       `json:"you,omitempty"`
}

// EncodeIntent frames an intent for the host. intentID may be empty.
func EncodeIntent(intentID string, intent auction.Intent) ([]byte, error) {
	payload, err := json.Marshal(intent)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", intent.Kind(), err)
	}
	return json.Marshal(Envelope{
		Type:     MessageType(intent.Kind()),
		IntentID: intentID,
		Payload:  payload,
	})
}

// DecodeIntent parses a participant frame into its typed intent.
func DecodeIntent(data []byte) (string, auction.Intent, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	intent, err := ParseIntent(&env)
	if err != nil {
		return "", nil, err
	}
	return env.IntentID, intent, nil
}

// ParseIntent parses an envelope payload into the matching intent struct.
func ParseIntent(env *Envelope) (auction.Intent, error) {
	switch env.Type {
	case MessageTypeJoin:
		return decodePayload[auction.Join](env)
	case MessageTypeBid:
		return decodePayload[auction.PlaceBid](env)
	case MessageTypeStartAuction:
		return decodePayload[auction.StartAuction](env)
	case MessageTypeSkipTurn:
		return decodePayload[auction.SkipTurn](env)
	case MessageTypeUpdateWorksheet:
		return decodePayload[auction.UpdateWorksheet](env)
	case MessageTypeUpdateMemo:
		return decodePayload[auction.UpdateMemo](env)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func decodePayload[T auction.Intent](env *Envelope) (auction.Intent, error) {
	var payload T
	if len(env.Payload) == 0 {
		return nil, fmt.Errorf("%s frame has no payload", env.Type)
	}
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s payload: %w", env.Type, err)
	}
	return payload, nil
}

// EncodeSync frames a room snapshot for participants.
func EncodeSync(room *models.Room) ([]byte, error) {
	return encodeSync(SyncPayload{Room: room})
}

// EncodeJoined frames the snapshot that confirms a JOIN to the connection
// that sent it.
func EncodeJoined(studentID string, room *models.Room) ([]byte, error) {
	return encodeSync(SyncPayload{Room: room, You: studentID})
}

func encodeSync(sync SyncPayload) ([]byte, error) {
	payload, err := json.Marshal(sync)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return json.Marshal(Envelope{Type: MessageTypeSync, Payload: payload})
}

// DecodeSync parses a host frame into its snapshot payload.
func DecodeSync(data []byte) (*SyncPayload, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	if env.Type != MessageTypeSync {
		return nil, fmt.Errorf("%w: got %q", ErrNotSync, env.Type)
	}
	var payload SyncPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if payload.Room == nil {
		return nil, fmt.Errorf("sync frame carries no room")
	}
	return &payload, nil
}
