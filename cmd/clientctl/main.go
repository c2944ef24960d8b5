package main

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nataliagff23/checklist-clientes/cmd/internal/backend"
	"github.com/nataliagff23/checklist-clientes/config"
	"github.com/nataliagff23/checklist-clientes/dashboard"
	"github.com/nataliagff23/checklist-clientes/router"
)

var Version = "dev"

// env is what every command works against.
type env struct {
	store  dashboard.Store
	events dashboard.Publisher
	links  router.Links
	log    *log.Logger
}

type opener func(ctx context.Context) (*env, func(), error)

func main() {
	if err := newRootCmd(openFromConfig).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openFromConfig(ctx context.Context) (*env, func(), error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, nil, err
	}
	logger := log.New()
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
	}
	b, err := backend.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return &env{
		store:  b.Store,
		events: b.Events,
		links:  router.Links{Base: cfg.PublicBaseURL},
		log:    logger,
	}, b.Close, nil
}

func newRootCmd(open opener) *cobra.Command {
	c := &cli{open: open}
	root := &cobra.Command{
		Use:           "clientctl",
		Short:         "Manage agency clients, their checklists and briefings",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.base, "base-url", "", "origin and path used for share links (overrides PUBLIC_BASE_URL)")

	root.AddCommand(c.clientsCmd())
	root.AddCommand(c.tasksCmd())
	root.AddCommand(c.briefingCmd())
	root.AddCommand(c.linkCmd())
	root.AddCommand(c.openCmd())
	c.closeAfter(root)
	return root
}

// closeAfter makes every command release the backend when it returns, on
// failure too.
func (c *cli) closeAfter(cmd *cobra.Command) {
	for _, sub := range cmd.Commands() {
		c.closeAfter(sub)
	}
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			defer c.close()
			return run(cmd, args)
		}
	}
}

// cli connects lazily so that --help and --version work without a store.
type cli struct {
	open opener
	base string

	env  *env
	done func()
}

func (c *cli) connect(cmd *cobra.Command) (*env, error) {
	if c.env != nil {
		return c.env, nil
	}
	e, done, err := c.open(cmd.Context())
	if err != nil {
		return nil, err
	}
	if c.base != "" {
		e.links = router.Links{Base: c.base}
	}
	c.env, c.done = e, done
	return e, nil
}

func (c *cli) close() {
	if c.done != nil {
		c.done()
		c.done = nil
	}
	c.env = nil
}
