package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/auctionroom/go/internal/auction"
	"github.com/mcdev12/auctionroom/go/internal/models"
	"github.com/mcdev12/auctionroom/go/internal/protocol"
	"github.com/mcdev12/auctionroom/go/internal/room"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// RoomHost is the part of room.Host the connection manager talks to.
type RoomHost interface {
	Submit(ctx context.Context, connID, intentID string, intent auction.Intent) error
	ConnectionOpened(ctx context.Context, connID string) error
	ConnectionClosed(ctx context.Context, connID string) error
}

// ConnectionManager manages the websocket connections of one room. It is the
// host's room.Broadcaster.
type ConnectionManager struct {
	connections map[string]*Connection
	mu          sync.RWMutex

	// Upgrader for WebSocket connections
	upgrader websocket.Upgrader

	// Connection configuration
	config ConnectionConfig

	host RoomHost
}

var _ room.Broadcaster = (*ConnectionManager)(nil)

// Connection represents a WebSocket connection to a participant
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan outbound
	Manager *ConnectionManager

	limiter *rate.Limiter
	ctx     context.Context
	cancel  context.CancelFunc

	// Connection metadata
	ConnectedAt time.Time
}

// outbound is a frame queued for the write pump. A non-zero closeCode ends
// the connection after the close frame is written.
type outbound struct {
	data      []byte
	closeCode int
	reason    string
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	// IntentRate and IntentBurst throttle intents per connection.
	IntentRate  rate.Limit
	IntentBurst int
	CheckOrigin func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  64,
		IntentRate:      20,
		IntentBurst:     40,
		CheckOrigin: func(r *http.Request) bool {
			// Classroom deployments serve participants from any origin.
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*Connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

// Attach sets the host that receives intents. It must be called before the
// first connection is upgraded.
func (cm *ConnectionManager) Attach(host RoomHost) {
	cm.host = host
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and announces it
// to the host, which answers with the current snapshot.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	if cm.host == nil {
		return errors.New("connection manager has no host attached")
	}
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan outbound, cm.config.SendBufferSize),
		Manager:     cm,
		limiter:     rate.NewLimiter(cm.config.IntentRate, cm.config.IntentBurst),
		ctx:         ctx,
		cancel:      cancel,
		ConnectedAt: time.Now(),
	}

	cm.registerConnection(connection)
	go connection.writePump()

	// The opening snapshot is queued before any intent this connection sends.
	if err := cm.host.ConnectionOpened(ctx, connection.ID); err != nil {
		log.Warn().Err(err).Str("connection_id", connection.ID).Msg("host refused connection")
		cm.closeConnection(connection, protocol.CloseRoomClosed, "room closed")
		return nil
	}
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket connection established")
	return nil
}

// registerConnection adds a connection to the manager
func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.connections[conn.ID] = conn

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
}

// unregisterConnection removes a connection from the manager. It reports
// whether the connection was still registered.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.connections[conn.ID]; !exists {
		return false
	}
	delete(cm.connections, conn.ID)
	close(conn.Send)
	conn.cancel()

	log.Info().
		Str("connection_id", conn.ID).
		Int("total_connections", len(cm.connections)).
		Msg("connection unregistered")
	return true
}

// closeConnection queues a close frame, or drops the connection outright
// when its buffer is full.
func (cm *ConnectionManager) closeConnection(conn *Connection, code int, reason string) {
	cm.mu.RLock()
	_, exists := cm.connections[conn.ID]
	queued := false
	if exists {
		select {
		case conn.Send <- outbound{closeCode: code, reason: reason}:
			queued = true
		default:
		}
	}
	cm.mu.RUnlock()
	if exists && !queued {
		cm.drop(conn)
	}
}

// drop unregisters and closes conn. Broadcast, Send and Disconnect reach it
// from the host loop, so the host is told about the close asynchronously.
func (cm *ConnectionManager) drop(conn *Connection) {
	if cm.unregisterConnection(conn) {
		_ = conn.Conn.Close()
		go cm.notifyClosed(conn)
	}
}

// notifyClosed waits for room in the host inbox; it only gives up once the
// host has stopped.
func (cm *ConnectionManager) notifyClosed(conn *Connection) {
	if err := cm.host.ConnectionClosed(context.Background(), conn.ID); err != nil && !errors.Is(err, room.ErrHostStopped) {
		log.Warn().Err(err).Str("connection_id", conn.ID).Msg("failed to report closed connection")
	}
}

// Broadcast sends a snapshot to every connection. Connections that cannot
// keep up are closed.
func (cm *ConnectionManager) Broadcast(r *models.Room) {
	data, err := protocol.EncodeSync(r)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal snapshot for broadcast")
		return
	}

	var slow []*Connection
	cm.mu.RLock()
	for _, conn := range cm.connections {
		select {
		case conn.Send <- outbound{data: data}:
		default:
			slow = append(slow, conn)
		}
	}
	total := len(cm.connections)
	cm.mu.RUnlock()

	for _, conn := range slow {
		log.Warn().Str("connection_id", conn.ID).Msg("connection send buffer full, closing connection")
		cm.drop(conn)
	}

	log.Debug().
		Str("room_code", r.Code).
		Str("status", string(r.Status)).
		Int("connections", total).
		Msg("snapshot broadcasted")
}

// Send sends a snapshot to a single connection.
func (cm *ConnectionManager) Send(connID string, r *models.Room) {
	data, err := protocol.EncodeSync(r)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal snapshot")
		return
	}
	cm.sendTo(connID, data)
}

// Joined confirms a join to the connection that sent it.
func (cm *ConnectionManager) Joined(connID, studentID string, r *models.Room) {
	data, err := protocol.EncodeJoined(studentID, r)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal join confirmation")
		return
	}
	cm.sendTo(connID, data)
}

func (cm *ConnectionManager) sendTo(connID string, data []byte) {
	cm.mu.RLock()
	conn, exists := cm.connections[connID]
	full := false
	if exists {
		select {
		case conn.Send <- outbound{data: data}:
		default:
			full = true
		}
	}
	cm.mu.RUnlock()

	if full {
		log.Warn().Str("connection_id", connID).Msg("connection send buffer full, closing connection")
		cm.drop(conn)
	}
}

// Disconnect closes a connection with a protocol close code.
func (cm *ConnectionManager) Disconnect(connID string, code int, reason string) {
	cm.mu.RLock()
	conn, exists := cm.connections[connID]
	cm.mu.RUnlock()
	if exists {
		cm.closeConnection(conn, code, reason)
	}
}

// ConnectionCount returns the number of open connections.
func (cm *ConnectionManager) ConnectionCount() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				// Channel was closed
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if message.closeCode != 0 {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(message.closeCode, message.reason))
				log.Debug().
					Str("connection_id", c.ID).
					Int("close_code", message.closeCode).
					Str("reason", message.reason).
					Msg("connection closed by host")
				c.Manager.drop(c)
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message.data); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump reads intents from the WebSocket connection and submits them to
// the host.
func (c *Connection) readPump() {
	defer c.Manager.drop(c)

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			return
		}

		c.handleClientMessage(message)
		_ = c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

// handleClientMessage decodes one intent frame and hands it to the host.
// Malformed and throttled frames are dropped.
func (c *Connection) handleClientMessage(message []byte) {
	if !c.limiter.Allow() {
		log.Warn().Str("connection_id", c.ID).Msg("intent rate exceeded, frame dropped")
		return
	}
	intentID, intent, err := protocol.DecodeIntent(message)
	if err != nil {
		log.Warn().Err(err).Str("connection_id", c.ID).Msg("malformed frame dropped")
		return
	}
	if err := c.Manager.host.Submit(c.ctx, c.ID, intentID, intent); err != nil {
		log.Warn().Err(err).Str("connection_id", c.ID).Str("intent", string(intent.Kind())).Msg("failed to submit intent")
	}
}
