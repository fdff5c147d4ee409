package main

import (
	"context"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"towlot/internal/config"
	"towlot/internal/engine"
	"towlot/internal/logging"
	"towlot/internal/outbox"
	"towlot/internal/services/push"
	"towlot/internal/status"
	"towlot/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// workspace bundles the opened registry and wired components for one CLI
// invocation. The CLI keeps its own logs quiet; structured logging belongs
// to the daemon.
type workspace struct {
	cfg    *config.Config
	store  *store.Store
	engine *engine.Engine
	status *status.Manager
	queue  *outbox.Queue
}

func (c *commandContext) withWorkspace(ctx context.Context, fn func(context.Context, *workspace) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	logger := logging.NewNop()
	mgr := status.NewManager(st, cfg.Lifecycle, logger)
	ws := &workspace{
		cfg:    cfg,
		store:  st,
		engine: engine.New(st, mgr, cfg.Lifecycle, logger),
		status: mgr,
		queue:  outbox.NewQueue(st, push.NewSender(cfg), logger),
	}
	return fn(ctx, ws)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
