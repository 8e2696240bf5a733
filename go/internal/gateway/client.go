package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/auctionroom/go/internal/auction"
	"github.com/mcdev12/auctionroom/go/internal/directory"
	"github.com/mcdev12/auctionroom/go/internal/idgen"
	"github.com/mcdev12/auctionroom/go/internal/protocol"
	"github.com/mcdev12/auctionroom/go/internal/room"
	"github.com/rs/zerolog/log"
)

var (
	ErrHostUnreachable = errors.New("room host unreachable")
	ErrNicknameTaken   = errors.New("nickname already taken in this room")
	ErrRoomClosed      = errors.New("room closed by host")
	ErrEmptyNickname   = errors.New("nickname is empty")
)

// ClientConfig configures a participant connection.
type ClientConfig struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	IDs              idgen.Generator
}

// DefaultClientConfig returns default participant connection settings.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// Client is a participant's connection to a room host. It feeds every
// snapshot into its Participant and carries the Participant's intents.
type Client struct {
	conn        *websocket.Conn
	participant *room.Participant
	config      ClientConfig

	writeMu sync.Mutex
	done    chan struct{}
	err     error
}

var _ room.HostLink = (*Client)(nil)

// Connect resolves code through dir, dials the host and joins as nickname.
// It returns once the host has confirmed the join to this connection.
//
// Failures are ErrInvalidCode or ErrRoomNotFound from the directory,
// ErrHostUnreachable, ErrNicknameTaken or ErrRoomClosed.
func Connect(ctx context.Context, dir directory.Directory, code, nickname string, config ClientConfig) (*Client, error) {
	defaults := DefaultClientConfig()
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, ErrEmptyNickname
	}
	code, err := directory.NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	endpoint, err := dir.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	target, err := roomURL(endpoint, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHostUnreachable, err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: config.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHostUnreachable, err)
	}

	// The first frame is the snapshot every new connection gets; it proves
	// the host is serving the room.
	first, err := readSync(conn, config.HandshakeTimeout)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrHostUnreachable, err)
	}

	c := &Client{
		conn:   conn,
		config: config,
		done:   make(chan struct{}),
	}
	c.participant = room.NewParticipant(nickname, c, config.IDs)
	c.participant.ApplySnapshot(first.Room)
	go c.readLoop()

	if err := c.participant.Join(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	joinCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.done:
			cancel()
		case <-joinCtx.Done():
		}
	}()
	studentID, err := c.participant.WaitJoined(joinCtx)
	if err != nil {
		select {
		case <-c.done:
			_ = c.conn.Close()
			if cause := c.Err(); cause != nil {
				return nil, cause
			}
			return nil, ErrHostUnreachable
		default:
		}
		_ = c.Close()
		return nil, err
	}

	log.Info().Str("room_code", code).Str("nickname", nickname).Str("student_id", studentID).Msg("joined room")
	return c, nil
}

// Participant returns the participant fed by this connection.
func (c *Client) Participant() *room.Participant { return c.participant }

// Send implements room.HostLink.
func (c *Client) Send(ctx context.Context, intentID string, intent auction.Intent) error {
	data, err := protocol.EncodeIntent(intentID, intent)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return c.Err()
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	deadline := time.Now().Add(c.config.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("%w: %v", ErrHostUnreachable, err)
	}
	return nil
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns why the connection ended, once Done is closed.
func (c *Client) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Close sends a normal close frame and tears the connection down.
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	err := c.conn.Close()
	<-c.done
	return err
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.err = closeReason(err)
			log.Debug().Err(err).Msg("room connection ended")
			return
		}
		frame, err := protocol.DecodeSync(data)
		if err != nil {
			log.Warn().Err(err).Msg("malformed frame from host dropped")
			continue
		}
		if frame.You != "" {
			c.participant.ConfirmJoin(frame.You, frame.Room)
			continue
		}
		c.participant.ApplySnapshot(frame.Room)
	}
}

func readSync(conn *websocket.Conn, timeout time.Duration) (*protocol.SyncPayload, error) {
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	defer func() { _ = conn.SetReadDeadline(time.Time{}) }()
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return protocol.DecodeSync(data)
}

// closeReason maps the host's close codes to errors.
func closeReason(err error) error {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		switch ce.Code {
		case protocol.CloseNicknameTaken:
			return ErrNicknameTaken
		case protocol.CloseRoomClosed:
			return ErrRoomClosed
		case websocket.CloseNormalClosure:
			return nil
		}
	}
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrHostUnreachable, err)
}

// roomURL appends the code query parameter to a registered endpoint.
func roomURL(endpoint, code string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
	q := u.Query()
	q.Set("code", code)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
