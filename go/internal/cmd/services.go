package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/auctionroom/go/internal/catalog"
	"github.com/mcdev12/auctionroom/go/internal/config"
	"github.com/mcdev12/auctionroom/go/internal/directory"
	"github.com/mcdev12/auctionroom/go/internal/gateway"
	"github.com/mcdev12/auctionroom/go/internal/idgen"
	"github.com/mcdev12/auctionroom/go/internal/mirror"
	"github.com/mcdev12/auctionroom/go/internal/report"
	"github.com/mcdev12/auctionroom/go/internal/room"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// generatedCodeAttempts bounds retries when a random code is already taken.
const generatedCodeAttempts = 5

type Services struct {
	Code      string
	Gateway   *gateway.Service
	Directory directory.Directory
	Writer    *mirror.Writer
	Preset    *catalog.Preset

	store       *mirror.Store
	archive     *report.PostgresSink
	closeDir    closer
	unsubscribe func()
}

func setupServices(ctx context.Context, cfg config.Config) (*Services, error) {
	// Wire up dependency injection chain
	// Directory → Room host → Gateway → Mirror / Archive
	s := &Services{}
	ok := false
	defer func() {
		if !ok {
			s.release(context.Background())
			s.Close()
		}
	}()

	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	s.Preset, policy, err = loadPreset(cfg, policy)
	if err != nil {
		return nil, err
	}

	s.Directory, s.closeDir, err = setupDirectory(ctx, cfg)
	if err != nil {
		return nil, err
	}
	code := cfg.Code
	if code == "" && s.Preset != nil {
		code = s.Preset.Code
	}
	s.Code, err = claimCode(ctx, s.Directory, code, cfg.Endpoint())
	if err != nil {
		return nil, err
	}

	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.ConnectionConfig.IntentRate = rate.Limit(cfg.IntentRate)
	gatewayConfig.ConnectionConfig.IntentBurst = cfg.IntentBurst
	gatewayConfig.Room = room.Options{
		Code:      s.Code,
		Policy:    policy,
		Clock:     clockwork.NewRealClock(),
		IDs:       idgen.UUID{},
		DedupSize: cfg.DedupCacheSize,
	}
	if cfg.ArchiveReports {
		s.archive, err = report.NewPostgresSink(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		gatewayConfig.Archiver = s.archive
	}
	s.Gateway, err = gateway.NewService(gatewayConfig)
	if err != nil {
		return nil, err
	}

	if cfg.MirrorPath != "" {
		s.store, err = mirror.Open(cfg.MirrorPath)
		if err != nil {
			return nil, err
		}
		if err := s.store.SaveIdentity(room.IdentityOf(s.Gateway.Host())); err != nil {
			return nil, err
		}
		s.Writer = mirror.NewWriter(s.store)
		s.unsubscribe = s.Gateway.Host().Subscribe(s.Writer.Observe)
	}

	ok = true
	return s, nil
}

// claimCode registers code, or a random code when code is empty. A random
// code that is taken is replaced; an explicit one is an error.
func claimCode(ctx context.Context, dir directory.Directory, code, endpoint string) (string, error) {
	if code != "" {
		normalized, err := directory.NormalizeCode(code)
		if err != nil {
			return "", err
		}
		if err := dir.Register(ctx, normalized, endpoint); err != nil {
			return "", fmt.Errorf("failed to register room code %s: %w", normalized, err)
		}
		return normalized, nil
	}
	for i := 0; i < generatedCodeAttempts; i++ {
		candidate := idgen.JoinCode()
		err := dir.Register(ctx, candidate, endpoint)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, directory.ErrCodeInUse) {
			return "", fmt.Errorf("failed to register room code: %w", err)
		}
		log.Debug().Str("room_code", candidate).Msg("generated room code taken, retrying")
	}
	return "", fmt.Errorf("no free room code after %d attempts: %w", generatedCodeAttempts, directory.ErrCodeInUse)
}

// applyPreset finalizes setup from the preset once the host loop runs.
func (s *Services) applyPreset(ctx context.Context) error {
	p := s.Preset
	err := s.Gateway.Host().FinalizeSetup(ctx, p.AllTemplates(), p.Mode, p.InitialCoins)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to apply preset: %w", err)
	}
	return nil
}

// release frees the room code so another host can claim it.
func (s *Services) release(ctx context.Context) {
	if s.Directory == nil || s.Code == "" {
		return
	}
	if err := s.Directory.Release(ctx, s.Code); err != nil {
		log.Warn().Err(err).Str("room_code", s.Code).Msg("failed to release room code")
		return
	}
	log.Info().Str("room_code", s.Code).Msg("room code released")
}

func (s *Services) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close mirror store")
		}
	}
	if s.archive != nil {
		s.archive.Close()
	}
	if s.closeDir != nil {
		if err := s.closeDir(); err != nil {
			log.Warn().Err(err).Msg("failed to close directory")
		}
	}
}
