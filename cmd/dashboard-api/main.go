package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/nataliagff23/checklist-clientes/activity"
	"github.com/nataliagff23/checklist-clientes/api"
	"github.com/nataliagff23/checklist-clientes/cmd/internal/backend"
	"github.com/nataliagff23/checklist-clientes/config"
	"github.com/nataliagff23/checklist-clientes/router"
)

const shutdownTimeout = 10 * time.Second

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

// run serves the API until ctx is done. Connections opened by the backend are
// closed before it returns.
func run(ctx context.Context, cfg config.Config) error {
	b, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderContentEncoding},
	}))

	if cfg.Debug {
		pprof.Register(e)
	}

	logger := log.New()
	logger.SetLevel(log.GetLevel())
	api.Register(e, b.Store, b.Events, router.Links{Base: cfg.PublicBaseURL}, logger)
	if b.Redis != nil {
		api.RegisterActivity(e, b.Store, activity.NewFeed(b.Redis, activity.DefaultLimit), logger)
	}

	log.WithField("backend", cfg.Backend).Info("dashboard api starting")
	return serve(ctx, e, ":"+cfg.Port)
}

func serve(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() { errCh <- e.Start(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
