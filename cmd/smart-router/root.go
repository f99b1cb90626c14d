package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"smartrouter/internal/app"
)

type cliOptions struct {
	configPath string
	projectDir string
	jsonOutput bool
	verbose    bool
	noColor    bool
	logger     *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := cliOptions{
		logger: zap.NewNop(),
	}

	root := &cobra.Command{
		Use:           "smart-router",
		Short:         "Index installed agent tools by capability and route requests to them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			applyRootFlagBindings(cmd, &opts)
			if opts.noColor || opts.jsonOutput {
				color.NoColor = true
			}
			logger, err := app.NewCLILogger(opts.verbose)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = opts.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "runtime config file (default <project>/.claude/smart-router.yaml)")
	root.PersistentFlags().StringVar(&opts.projectDir, "project", "", "project directory (default $CLAUDE_PROJECT_DIR or the working directory)")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output JSON")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging to stderr")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newBuildCmd(&opts),
		newQueryCmd(&opts),
		newListCmd(&opts),
		newStatsCmd(&opts),
		newHookCmd(&opts),
		newWatchCmd(&opts),
		newPrefsCmd(&opts),
	)

	return root
}

func applyRootFlagBindings(cmd *cobra.Command, opts *cliOptions) {
	flags := cmd.Flags()
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "config":
			opts.configPath, _ = flags.GetString("config")
		case "project":
			opts.projectDir, _ = flags.GetString("project")
		case "json":
			opts.jsonOutput, _ = flags.GetBool("json")
		case "verbose":
			opts.verbose, _ = flags.GetBool("verbose")
		case "no-color":
			opts.noColor, _ = flags.GetBool("no-color")
		}
	})
}

func (o *cliOptions) loadConfig() (app.Config, error) {
	return app.LoadConfig(app.ConfigOptions{
		Path:       o.configPath,
		ProjectDir: o.projectDir,
	})
}

// withApplication assembles the application, runs fn and flushes metrics.
func (o *cliOptions) withApplication(fn func(*app.Application) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	application, cleanup, err := app.InitializeApplication(cfg, app.LoggingConfig{Logger: o.logger})
	if err != nil {
		return err
	}
	defer cleanup()

	runErr := fn(application)
	if err := application.FlushMetrics(); err != nil {
		o.logger.Warn("metrics flush failed", zap.Error(err))
	}
	return runErr
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
