package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/tinyland-inc/mirrorclaw/cmd/mirrorclaw/internal"
	"github.com/tinyland-inc/mirrorclaw/pkg/bus"
	"github.com/tinyland-inc/mirrorclaw/pkg/channels"
	"github.com/tinyland-inc/mirrorclaw/pkg/dedup"
	"github.com/tinyland-inc/mirrorclaw/pkg/logger"
	"github.com/tinyland-inc/mirrorclaw/pkg/media"
	"github.com/tinyland-inc/mirrorclaw/pkg/mirror"
	"github.com/tinyland-inc/mirrorclaw/pkg/moderation"
	"github.com/tinyland-inc/mirrorclaw/pkg/providers"
	"github.com/tinyland-inc/mirrorclaw/pkg/state"
)

func runCmd(debug bool) error {
	if debug {
		logger.SetLevel(logger.DEBUG)
		fmt.Println("🔍 Debug mode enabled")
	}

	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	store, err := state.NewStore(cfg.Mirror.StateFile)
	if err != nil {
		if errors.Is(err, state.ErrCorruptState) {
			return fmt.Errorf("state file %s is corrupt, refusing to start: %w",
				cfg.Mirror.StateFile, err)
		}
		return fmt.Errorf("error opening state file: %w", err)
	}

	provider, err := providers.New(cfg.Provider)
	if err != nil {
		return fmt.Errorf("error creating provider: %w", err)
	}
	moderator := moderation.NewModerator(provider, cfg.Provider)

	mediaStore, err := media.NewStore(cfg.Mirror.Workdir)
	if err != nil {
		return fmt.Errorf("error creating workdir: %w", err)
	}
	sweeper, err := media.NewSweeper(mediaStore, cfg.Cleanup.Schedule)
	if err != nil {
		return fmt.Errorf("error setting up cleanup: %w", err)
	}

	eventBus := bus.NewEventBus()

	channel, err := channels.NewTelegramChannel(channels.TelegramOptions{
		Token:       cfg.Telegram.Token,
		Sources:     cfg.Mirror.Sources,
		Destination: cfg.Mirror.Destination,
		Bus:         eventBus,
		Media:       mediaStore,
	})
	if err != nil {
		return fmt.Errorf("error creating telegram channel: %w", err)
	}

	m := mirror.New(mirror.Options{
		Store: store,
		Window: dedup.NewWindow(dedup.Options{
			Capacity:       cfg.Dedup.WindowSize,
			Threshold:      cfg.Dedup.Threshold,
			MaxComparisons: cfg.Dedup.MaxComparisons,
			MinLength:      cfg.Dedup.MinLength,
		}),
		Moderation:        moderator,
		Transport:         channel,
		Media:             mediaStore,
		DestinationHandle: cfg.Mirror.DestinationHandle,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := channel.Start(ctx); err != nil {
		return fmt.Errorf("error starting telegram channel: %w", err)
	}

	go sweeper.Run(ctx)
	go m.Run(ctx, eventBus)

	singles, albums, history := store.Stats()
	logger.InfoCF("run", "Mirror started", map[string]any{
		"sources": len(cfg.Mirror.Sources),
		"singles": singles,
		"albums":  albums,
		"history": history,
	})
	fmt.Printf("✓ Mirroring %d source(s) into %s\n", len(cfg.Mirror.Sources), cfg.Mirror.Destination)
	fmt.Println("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	<-sigChan

	fmt.Println("\nShutting down...")
	cancel()
	channel.Stop(context.Background())
	eventBus.Close()
	fmt.Println("✓ Mirror stopped")

	return nil
}
