package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"hexfm/internal/api"
	"hexfm/internal/config"
	"hexfm/internal/ledger"
	"hexfm/internal/logging"
	"hexfm/internal/plexdb"
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

func (c *commandContext) newLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

// withService opens the ledger and Plex databases under the instance lock and
// runs fn against a wired service. The lock keeps concurrent invocations from
// interleaving mutating passes.
func (c *commandContext) withService(fn func(*config.Config, *api.Service) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateAccount(); err != nil {
		return err
	}
	logger, err := c.newLogger()
	if err != nil {
		return err
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another hexfm instance holds %s", cfg.LockPath())
	}
	defer func() { _ = lock.Unlock() }()

	store, err := ledger.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	plex, err := plexdb.Open(cfg)
	if err != nil {
		return err
	}
	defer plex.Close()

	return fn(cfg, api.NewService(cfg, store, plex, nil, logger))
}
