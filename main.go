package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/morelo/writeback/internal/account"
	"github.com/morelo/writeback/internal/audit"
	"github.com/morelo/writeback/internal/coalesce"
	"github.com/morelo/writeback/internal/config"
	"github.com/morelo/writeback/internal/draft"
	"github.com/morelo/writeback/internal/logger"
	"github.com/morelo/writeback/internal/media"
	"github.com/morelo/writeback/internal/store"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal(err)
	}

	l := logger.New(cfg.Logging.Level)
	config.SetLogger(l)
	store.SetLogger(l)

	var gw store.Gateway
	if cfg.Storage.Path == "" {
		l.Warn().Msg("No storage path configured, using in-memory store")
		gw = store.NewMemory()
	} else {
		sqlite, err := store.NewSQLite(cfg.Storage.Path)
		if err != nil {
			l.Fatal().Err(err).Msg("Error creating document store")
		}
		if err := sqlite.Init(); err != nil {
			l.Fatal().Err(err).Msg("Error initializing document store")
		}
		defer sqlite.Close()
		gw = sqlite
	}

	var remover draft.Remover
	if cfg.Media.Enabled {
		r, err := media.NewS3Store(
			os.Getenv("S3_ACCESS_KEY_ID"),
			os.Getenv("S3_SECRET_ACCESS_KEY"),
			cfg.Media.Endpoint,
			cfg.Media.Region,
			cfg.Media.Bucket,
		)
		if err != nil {
			l.Fatal().Err(err).Msg("Error initializing media store")
		}
		remover = r
	}

	pending := coalesce.New(gw, cfg.FlushDelay(), l)
	accounts := account.NewService(gw, pending, audit.NewLogRecorder(l), l)

	drafts := draft.NewStore(gw, remover, l)
	drafts.SetTTL(cfg.DraftTTL())
	drafts.SetSweepBatch(cfg.Drafts.SweepBatch)

	l.Info().
		Dur("flush_delay", cfg.FlushDelay()).
		Dur("draft_ttl", cfg.DraftTTL()).
		Dur("sweep_interval", cfg.SweepInterval()).
		Msg("writeback started")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(cfg.SweepInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := drafts.SweepExpired(ctx); err != nil {
				l.Error().Err(err).Msg("Draft sweep failed")
			}
		case <-ctx.Done():
			// Persist whatever is still queued before exiting.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			accounts.FlushAllPending(shutdownCtx)
			cancel()
			l.Info().Msg("writeback stopped")
			return
		}
	}
}
