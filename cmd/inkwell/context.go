package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"inkwell/internal/config"
	"inkwell/internal/logging"
	"inkwell/internal/pipeline"
	"inkwell/internal/prompt"
	"inkwell/internal/reviewer"
	"inkwell/internal/services/llm"
	"inkwell/internal/source"
	"inkwell/internal/versionstore"
	"inkwell/internal/writer"
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

func (c *commandContext) logger() *slog.Logger {
	cfg, err := c.ensureConfig()
	if err != nil {
		return logging.NewNop()
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// withStore opens the version store for the duration of fn.
func (c *commandContext) withStore(fn func(*config.Config, *versionstore.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := versionstore.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

// withRunner wires the full pipeline (store, loader, agents, console gate)
// for the duration of fn.
func (c *commandContext) withRunner(cmd *cobra.Command, fn func(*config.Config, *versionstore.Store, *pipeline.Runner) error) error {
	return c.withStore(func(cfg *config.Config, store *versionstore.Store) error {
		library := prompt.NewLibrary()
		if dir := strings.TrimSpace(cfg.Prompts.Dir); dir != "" {
			if err := library.LoadDir(dir); err != nil {
				return err
			}
		}

		client := llm.NewClient(llm.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			Referer:        cfg.LLM.Referer,
			Title:          cfg.LLM.Title,
			Temperature:    cfg.LLM.Temperature,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		})

		runner, err := pipeline.NewRunner(
			cfg,
			store,
			source.NewLoader(cfg),
			writer.New(cfg, client, library),
			reviewer.New(cfg, client, library),
			newConsoleGate(cmd.InOrStdin(), cmd.OutOrStdout()),
			c.logger(),
		)
		if err != nil {
			return err
		}
		return fn(cfg, store, runner)
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
