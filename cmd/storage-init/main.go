package main

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/nataliagff23/checklist-clientes/catalog"
	"github.com/nataliagff23/checklist-clientes/cmd/internal/backend"
	"github.com/nataliagff23/checklist-clientes/config"
	"github.com/nataliagff23/checklist-clientes/domain"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if err := run(context.Background(), cfg, os.Getenv("TEMPLATES_FILE")); err != nil {
		log.Fatal(err)
	}
}

// run provisions the configured backend with the catalog at templatesFile, or
// the embedded one when it is empty.
func run(ctx context.Context, cfg config.Config, templatesFile string) error {
	log.Info("storage init starting")
	templates, err := loadTemplates(templatesFile)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	b, err := backend.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer b.Close()

	if err := b.Provision(ctx, templates); err != nil {
		return fmt.Errorf("provision: %w", err)
	}
	log.WithField("templates", len(templates)).Info("storage init complete")
	return nil
}

// loadTemplates reads a catalog file, or the embedded default when path is
// empty.
func loadTemplates(path string) ([]domain.TaskTemplate, error) {
	if path == "" {
		return catalog.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return catalog.Parse(data)
}
