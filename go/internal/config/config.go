// Package config reads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/mcdev12/auctionroom/go/internal/auction"
	"github.com/mcdev12/auctionroom/go/internal/dbconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prefix is prepended to every variable except the DB_* ones.
const Prefix = "AUCTION"

// Directory backends.
const (
	DirectoryMemory = "memory"
	DirectoryNATS   = "nats"
	DirectoryRedis  = "redis"
)

// Config is the host process configuration.
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// Code is the join code to register. Empty means a random one.
	Code string `envconfig:"CODE"`
	// PublicURL is the websocket endpoint registered in the directory.
	// Empty means ws://localhost:<PORT>/ws/room.
	PublicURL string `envconfig:"PUBLIC_URL"`

	Directory string `envconfig:"DIRECTORY" default:"memory"`
	NATSURL   string `envconfig:"NATS_URL" default:"nats://localhost:4222"`
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`

	MirrorPath string `envconfig:"MIRROR_PATH" default:"auctionroom.db"`
	PresetPath string `envconfig:"PRESET_PATH"`

	AuctionSeconds      int    `envconfig:"AUCTION_SECONDS" default:"30"`
	BidExtensionSeconds int    `envconfig:"BID_EXTENSION_SECONDS" default:"10"`
	MinBid              int    `envconfig:"MIN_BID" default:"0"`
	RejoinPolicy        string `envconfig:"REJOIN_POLICY" default:"reattach"`
	AllocationPolicy    string `envconfig:"ALLOCATION_POLICY" default:"partition"`
	ItemsPerStudent     int    `envconfig:"ITEMS_PER_STUDENT" default:"2"`
	AllocationSeed      int64  `envconfig:"ALLOCATION_SEED" default:"0"`
	EnforceSellerTurn   bool   `envconfig:"ENFORCE_SELLER_TURN" default:"true"`

	IntentRate     float64 `envconfig:"INTENT_RATE" default:"20"`
	IntentBurst    int     `envconfig:"INTENT_BURST" default:"40"`
	DedupCacheSize int     `envconfig:"DEDUP_CACHE_SIZE" default:"1024"`

	// ArchiveReports stores the final report in Postgres when the room finishes.
	ArchiveReports bool            `envconfig:"ARCHIVE_REPORTS" default:"false"`
	DB             dbconfig.Config `ignored:"true"`
}

// Load reads .env when present, then the AUCTION_* and DB_* variables.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("processing the config: %w", err)
	}
	db, err := dbconfig.NewConfigFromEnv()
	if err != nil {
		return Config{}, err
	}
	cfg.DB = db

	if _, err := cfg.Policy(); err != nil {
		return Config{}, err
	}
	if _, err := cfg.Level(); err != nil {
		return Config{}, err
	}
	switch cfg.Directory {
	case DirectoryMemory, DirectoryNATS, DirectoryRedis:
	default:
		return Config{}, fmt.Errorf("unknown directory backend %q", cfg.Directory)
	}
	return cfg, nil
}

// Policy builds the room rules from the configured values.
func (c Config) Policy() (auction.Policy, error) {
	p := auction.Policy{
		Bid: auction.BidPolicy{
			MinimumBid:       c.MinBid,
			AuctionSeconds:   c.AuctionSeconds,
			ExtensionSeconds: c.BidExtensionSeconds,
		},
		Rejoin: auction.RejoinPolicy(c.RejoinPolicy),
		Allocation: auction.AllocationPolicy{
			Kind:            auction.AllocationKind(c.AllocationPolicy),
			ItemsPerStudent: c.ItemsPerStudent,
			Seed:            c.AllocationSeed,
		},
		EnforceSellerTurn: c.EnforceSellerTurn,
	}
	if err := p.Validate(); err != nil {
		return auction.Policy{}, fmt.Errorf("invalid room policy: %w", err)
	}
	return p, nil
}

// Level parses LogLevel.
func (c Config) Level() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// Endpoint is the websocket URL participants should dial.
func (c Config) Endpoint() string {
	if c.PublicURL != "" {
		return c.PublicURL
	}
	return fmt.Sprintf("ws://localhost:%s/ws/room", c.Port)
}

// ParticipantConfig is the participant process configuration.
type ParticipantConfig struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"warn"`
	Code     string `envconfig:"CODE"`
	Nickname string `envconfig:"NICKNAME"`
	// Endpoint skips the directory lookup when set. It is required with the
	// memory directory, which cannot be shared between processes.
	Endpoint string `envconfig:"ENDPOINT"`

	Directory string `envconfig:"DIRECTORY" default:"memory"`
	NATSURL   string `envconfig:"NATS_URL" default:"nats://localhost:4222"`
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`

	// MirrorPath remembers the last code and nickname between runs.
	MirrorPath string `envconfig:"PARTICIPANT_MIRROR_PATH" default:"participant.db"`
}

// LoadParticipant reads .env when present, then the AUCTION_* variables.
func LoadParticipant() (ParticipantConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}
	var cfg ParticipantConfig
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return ParticipantConfig{}, fmt.Errorf("processing the config: %w", err)
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return ParticipantConfig{}, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	switch cfg.Directory {
	case DirectoryMemory:
		if cfg.Endpoint == "" {
			return ParticipantConfig{}, fmt.Errorf("AUCTION_ENDPOINT is required with the memory directory")
		}
	case DirectoryNATS, DirectoryRedis:
	default:
		return ParticipantConfig{}, fmt.Errorf("unknown directory backend %q", cfg.Directory)
	}
	return cfg, nil
}
