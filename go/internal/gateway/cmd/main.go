package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcdev12/auctionroom/go/internal/config"
	"github.com/mcdev12/auctionroom/go/internal/directory"
	"github.com/mcdev12/auctionroom/go/internal/gateway"
	"github.com/mcdev12/auctionroom/go/internal/mirror"
	"github.com/mcdev12/auctionroom/go/internal/models"
	"github.com/mcdev12/auctionroom/go/internal/room"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.LoadParticipant()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	zerolog.SetGlobalLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := mirror.Open(cfg.MirrorPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open participant store")
	}
	defer store.Close()

	// Fall back to the identity remembered from the last run.
	if last, err := store.LoadIdentity(room.RoleParticipant); err == nil {
		if cfg.Code == "" {
			cfg.Code = last.Code
		}
		if cfg.Nickname == "" {
			cfg.Nickname = last.Nickname
		}
	}
	if cfg.Code == "" || cfg.Nickname == "" {
		log.Fatal().Msg("AUCTION_CODE and AUCTION_NICKNAME are required")
	}

	dir, closeDir, err := setupDirectory(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up directory")
	}
	defer closeDir()

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	client, err := gateway.Connect(connectCtx, dir, cfg.Code, cfg.Nickname, gateway.DefaultClientConfig())
	cancel()
	switch {
	case errors.Is(err, directory.ErrRoomNotFound):
		log.Fatal().Str("room_code", cfg.Code).Msg("no room with that code")
	case errors.Is(err, gateway.ErrNicknameTaken):
		log.Fatal().Str("nickname", cfg.Nickname).Msg("nickname already taken, pick another")
	case err != nil:
		log.Fatal().Err(err).Msg("failed to join room")
	}
	defer client.Close()

	p := client.Participant()
	if err := store.SaveIdentity(room.IdentityOf(p)); err != nil {
		log.Warn().Err(err).Msg("failed to remember identity")
	}
	p.Subscribe(func(r *models.Room) {
		fmt.Print(renderRoom(r, p.StudentID()))
	})
	fmt.Print(renderRoom(p.Mirror(), p.StudentID()))
	fmt.Print(helpText)

	c := &console{p: p, out: os.Stdout}
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-client.Done():
			return client.Err()
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					return errQuit
				}
				if err := c.exec(gctx, line); err != nil {
					if errors.Is(err, errQuit) {
						return err
					}
					fmt.Fprintln(os.Stderr, err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		log.Error().Err(err).Msg("disconnected from room")
	}
}

// setupDirectory resolves codes through the configured backend, or through
// a single static entry when an endpoint is given.
func setupDirectory(ctx context.Context, cfg config.ParticipantConfig) (directory.Directory, func(), error) {
	if cfg.Endpoint != "" {
		dir := directory.NewMemory()
		if err := dir.Register(ctx, cfg.Code, cfg.Endpoint); err != nil {
			return nil, nil, err
		}
		return dir, func() {}, nil
	}
	switch cfg.Directory {
	case config.DirectoryNATS:
		natsConfig := directory.DefaultNATSConfig()
		natsConfig.URL = cfg.NATSURL
		d, err := directory.NewNATS(ctx, natsConfig)
		if err != nil {
			return nil, nil, err
		}
		return d, func() { _ = d.Close() }, nil
	default:
		d, err := directory.NewRedis(ctx, directory.RedisConfig{Addr: cfg.RedisAddr})
		if err != nil {
			return nil, nil, err
		}
		return d, func() { _ = d.Close() }, nil
	}
}
