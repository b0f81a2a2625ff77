package cli

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/blazecut/blazecut/internal/config"
	"github.com/blazecut/blazecut/internal/logging"
	"github.com/blazecut/blazecut/internal/pipeline"
)

const skipConfigAnnotation = "skipConfigLoad"

type commandContext struct {
	configFlag string
	jsonFlag   bool

	configOnce sync.Once
	config     *config.Config
	log        zerolog.Logger
	configErr  error

	appOnce sync.Once
	app     pipeline.App
	appErr  error
}

func NewRootCommand() *cobra.Command {
	c := &commandContext{}

	root := &cobra.Command{
		Use:           "blazecut",
		Short:         "Media backend for the BlazeCut editor: probe, sample frames, thumbnails",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := c.ensureConfig(cmd)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVarP(&c.configFlag, "config", "c", "", "Configuration file path")
	root.PersistentFlags().BoolVar(&c.jsonFlag, "json", false, "Write JSON even when stdout is a terminal")

	root.AddCommand(
		newAnalyzeCommand(c),
		newKeyframesCommand(c),
		newThumbnailCommand(c),
		newAppDirCommand(c),
		newCleanupCommand(c),
		newToolsCommand(c),
		newServeCommand(c),
		newConfigCommand(c),
	)
	return root
}

func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		log, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Out:    cmd.ErrOrStderr(),
		})
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.log = log
	})
	return c.config, c.configErr
}

// ensureApp resolves the toolchain and wires the use case. Only commands that
// touch media pay for tool discovery.
func (c *commandContext) ensureApp(cmd *cobra.Command) (pipeline.App, error) {
	cfg, err := c.ensureConfig(cmd)
	if err != nil {
		return pipeline.App{}, err
	}
	c.appOnce.Do(func() {
		c.app, c.appErr = pipeline.Build(cmd.Context(), cfg, &c.log)
	})
	return c.app, c.appErr
}

// commandCtx bounds a single command by command_timeout_seconds when set.
func (c *commandContext) commandCtx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if c.config != nil && c.config.CommandTimeoutSeconds > 0 {
		return context.WithTimeout(ctx, time.Duration(c.config.CommandTimeoutSeconds)*time.Second)
	}
	return context.WithCancel(ctx)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations[skipConfigAnnotation] == "true" {
			return true
		}
	}
	return false
}
