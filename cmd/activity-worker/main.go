package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/nataliagff23/checklist-clientes/activity"
	"github.com/nataliagff23/checklist-clientes/cmd/internal/backend"
	"github.com/nataliagff23/checklist-clientes/config"
)

var errMissingFeed = errors.New("ACTIVITY_QUEUE_URL and REDIS_CONNECTION_STRING are required")

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg); err != nil {
		stop()
		log.Fatal(err)
	}
}

// run drains the activity queue until ctx is done.
func run(ctx context.Context, cfg config.Config) error {
	b, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	if b.Queue() == nil || b.Redis == nil {
		return errMissingFeed
	}

	logger := log.New()
	logger.SetLevel(log.GetLevel())
	feed := activity.NewFeed(b.Redis, activity.DefaultLimit)

	log.Info("activity worker starting")
	return activity.NewProcessor(b.Queue(), feed, time.Second, logger).Run(ctx)
}
