package directory

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// NATSConfig holds configuration for the JetStream key-value directory
type NATSConfig struct {
	URL           string
	Bucket        string
	TTL           time.Duration // zero keeps entries until released
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns default NATS directory configuration
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Bucket:        "auction_rooms",
		TTL:           12 * time.Hour,
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// natsSafeKey matches handles usable as key-value keys as they are.
var natsSafeKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// natsKey maps a handle to a key-value key. Handles outside the key alphabet
// are stored as "RSA-=" plus the base64url form of the code; plain keys
// never contain '='.
func natsKey(handle string) string {
	if natsSafeKey.MatchString(handle) {
		return handle
	}
	code := strings.TrimPrefix(handle, HandlePrefix)
	return HandlePrefix + "=" + base64.RawURLEncoding.EncodeToString([]byte(code))
}

// NATS stores code handles in a JetStream key-value bucket. Claims use the
// bucket's atomic create, so two hosts can never hold the same handle.
type NATS struct {
	nc *nats.Conn
	kv jetstream.KeyValue
}

// NewNATS connects to NATS and opens (or creates) the directory bucket.
func NewNATS(ctx context.Context, config NATSConfig) (*NATS, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      config.Bucket,
		Description: "Auction room code handles",
		TTL:         config.TTL,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("open key-value bucket %s: %w", config.Bucket, err)
	}

	log.Info().Str("url", nc.ConnectedUrl()).Str("bucket", config.Bucket).Msg("NATS directory ready")
	return &NATS{nc: nc, kv: kv}, nil
}

func (d *NATS) Register(ctx context.Context, code, endpoint string) error {
	handle, err := handleFor(code)
	if err != nil {
		return err
	}
	if _, err := d.kv.Create(ctx, natsKey(handle), []byte(endpoint)); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return fmt.Errorf("%w: %s", ErrCodeInUse, handle)
		}
		return fmt.Errorf("register %s: %w", handle, err)
	}
	return nil
}

func (d *NATS) Lookup(ctx context.Context, code string) (string, error) {
	handle, err := handleFor(code)
	if err != nil {
		return "", err
	}
	entry, err := d.kv.Get(ctx, natsKey(handle))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return "", fmt.Errorf("%w: %s", ErrRoomNotFound, handle)
		}
		return "", fmt.Errorf("lookup %s: %w", handle, err)
	}
	return string(entry.Value()), nil
}

func (d *NATS) Release(ctx context.Context, code string) error {
	handle, err := handleFor(code)
	if err != nil {
		return err
	}
	if err := d.kv.Delete(ctx, natsKey(handle)); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("release %s: %w", handle, err)
	}
	return nil
}

// Close drains the NATS connection.
func (d *NATS) Close() error {
	return d.nc.Drain()
}
