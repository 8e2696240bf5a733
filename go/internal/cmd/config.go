package main

import (
	"context"
	"fmt"

	"github.com/mcdev12/auctionroom/go/internal/auction"
	"github.com/mcdev12/auctionroom/go/internal/catalog"
	"github.com/mcdev12/auctionroom/go/internal/config"
	"github.com/mcdev12/auctionroom/go/internal/directory"
	"github.com/rs/zerolog/log"
)

// closer releases a backend connection on shutdown.
type closer func() error

func setupDirectory(ctx context.Context, cfg config.Config) (directory.Directory, closer, error) {
	switch cfg.Directory {
	case config.DirectoryNATS:
		natsConfig := directory.DefaultNATSConfig()
		natsConfig.URL = cfg.NATSURL
		d, err := directory.NewNATS(ctx, natsConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create NATS directory: %w", err)
		}
		return d, d.Close, nil
	case config.DirectoryRedis:
		d, err := directory.NewRedis(ctx, directory.RedisConfig{Addr: cfg.RedisAddr})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Redis directory: %w", err)
		}
		return d, d.Close, nil
	default:
		log.Warn().Msg("using in-process directory; participants must dial the endpoint directly")
		return directory.NewMemory(), func() error { return nil }, nil
	}
}

// loadPreset reads the optional preset and overlays its rules on base.
func loadPreset(cfg config.Config, base auction.Policy) (*catalog.Preset, auction.Policy, error) {
	if cfg.PresetPath == "" {
		return nil, base, nil
	}
	preset, err := catalog.LoadPreset(cfg.PresetPath)
	if err != nil {
		return nil, base, err
	}
	policy, err := preset.ApplyPolicy(base)
	if err != nil {
		return nil, base, err
	}
	log.Info().
		Str("path", cfg.PresetPath).
		Str("mode", string(preset.Mode)).
		Int("templates", len(preset.AllTemplates())).
		Msg("loaded room preset")
	return preset, policy, nil
}
