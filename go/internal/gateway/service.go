// Package gateway carries a room over websockets: the host side serves
// participants and the admin API, the participant side dials a host.
package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mcdev12/auctionroom/go/internal/directory"
	"github.com/mcdev12/auctionroom/go/internal/room"
	"github.com/rs/zerolog/log"
)

// Service is the host-side gateway: one room, its websocket endpoint and
// its admin API.
type Service struct {
	host              *room.Host
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
}

// Config holds configuration for the gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	Room             room.Options
	// Archiver receives the report when the room finishes. Optional.
	Archiver Archiver
}

// DefaultConfig returns default configuration for the gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
	}
}

// NewService creates the room host and wires it to a connection manager.
func NewService(config Config) (*Service, error) {
	code, err := directory.NormalizeCode(config.Room.Code)
	if err != nil {
		return nil, err
	}
	config.Room.Code = code

	connectionManager := NewConnectionManager(config.ConnectionConfig)
	host, err := room.NewHost(config.Room, connectionManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create room host: %w", err)
	}
	connectionManager.Attach(host)

	return &Service{
		host:              host,
		connectionManager: connectionManager,
		wsHandler:         NewWebSocketHandler(connectionManager, code),
		stateHandler:      NewStateHandler(host, config.Archiver, config.Room.Clock),
	}, nil
}

// Host returns the room host.
func (s *Service) Host() *room.Host { return s.host }

// Start runs the room until ctx is cancelled. Every participant connection
// is closed on return.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Str("room_code", s.host.Code()).Msg("starting room gateway service")
	err := s.host.Run(ctx)
	log.Info().Str("room_code", s.host.Code()).Msg("room gateway service stopped")
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// RegisterRoutes registers the WebSocket and admin HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	log.Info().Msg("room gateway routes registered")
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() map[string]any {
	return map[string]any{
		"service":           "auction_room",
		"room_code":         s.host.Code(),
		"total_connections": s.connectionManager.ConnectionCount(),
	}
}
