package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"smartrouter/internal/app"
	"smartrouter/internal/domain"
	"smartrouter/internal/infra/inventory"
	"smartrouter/internal/infra/prefs"
)

func newBuildCmd(opts *cliOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Scan installed tools and refresh the capability registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApplication(func(application *app.Application) error {
				result, err := application.Build(cmd.Context(), force)
				if err != nil {
					printProblems(cmd.ErrOrStderr(), result.Outcome.Problems)
					return err
				}
				if err := printBuild(cmd.OutOrStdout(), result, opts.jsonOutput); err != nil {
					return err
				}
				if !result.Outcome.Success {
					return exitSilent(exitIncomplete)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "rebuild even when the tool tree is unchanged")
	return cmd
}

func newQueryCmd(opts *cliOptions) *cobra.Command {
	var (
		hints []string
		mode  string
	)
	cmd := &cobra.Command{
		Use:   "query <request...>",
		Short: "Route a request to the best installed tool",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			routing := domain.RoutingMode(strings.ToLower(strings.TrimSpace(mode)))
			if routing != "" && !routing.Valid() {
				return exitWith(exitFailure, fmt.Sprintf("--mode: unknown mode %q (want auto, ask or context)", mode))
			}
			return opts.withApplication(func(application *app.Application) error {
				result, err := application.Query(cmd.Context(), app.QueryRequest{
					Text:      strings.Join(args, " "),
					FileHints: hints,
					Mode:      routing,
				})
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), result)
				}
				printProblems(cmd.ErrOrStderr(), append(result.Build.Problems, result.Problems...))
				printDecision(cmd.OutOrStdout(), result.Decision)
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVarP(&hints, "file-hint", "f", nil, "file or extension in the working set (repeatable)")
	cmd.Flags().StringVar(&mode, "mode", "", "override the routing mode (auto, ask or context)")
	return cmd
}

func newListCmd(opts *cliOptions) *cobra.Command {
	var tags []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed tools by capability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApplication(func(application *app.Application) error {
				result, err := application.Build(cmd.Context(), false)
				if err != nil {
					return err
				}
				registry := result.Registry
				if registry == nil {
					registry, err = application.Snapshot()
					if err != nil {
						printProblems(cmd.ErrOrStderr(), result.Outcome.Problems)
						return exitWith(exitIncomplete, "no registry available")
					}
				}
				return printList(cmd.OutOrStdout(), registry, selectTags(registry, tags), opts.jsonOutput)
			})
		},
	}
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "only this capability (repeatable)")
	return cmd
}

func newStatsCmd(opts *cliOptions) *cobra.Command {
	var metrics bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the stored registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApplication(func(application *app.Application) error {
				registry, err := application.Snapshot()
				if errors.Is(err, domain.ErrSnapshotNotFound) {
					return exitWith(exitFailure, "no registry yet; run `smart-router build`")
				}
				if err != nil {
					return err
				}
				if err := printStats(cmd.OutOrStdout(), application.Config(), registry, opts.jsonOutput); err != nil {
					return err
				}
				if metrics {
					return application.WriteMetrics(cmd.OutOrStdout())
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&metrics, "metrics", false, "also print collected metrics in the Prometheus text format")
	return cmd
}

// newHookCmd prints the early reminder for a prompt-submit event. It always exits 0 so
// a broken setup never blocks a prompt.
func newHookCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hook",
		Short: "Prompt-submit hook: remind to consult the router for task requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				opts.logger.Debug("hook config unavailable")
				return nil
			}
			application, cleanup, err := app.InitializeApplication(cfg, app.LoggingConfig{Logger: opts.logger})
			if err != nil {
				return nil
			}
			defer cleanup()
			if reminder := application.Hook(cmd.InOrStdin()); reminder != "" {
				fmt.Fprintln(cmd.OutOrStdout(), reminder)
			}
			return nil
		},
	}
}

func newWatchCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the registry whenever installed tools change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()
			return opts.withApplication(func(application *app.Application) error {
				out := cmd.OutOrStdout()
				return application.Watch(ctx, app.WatchOptions{
					OnBuild: func(result inventory.BuildResult, err error) {
						if err != nil {
							fmt.Fprintf(cmd.ErrOrStderr(), "build failed: %v\n", err)
							return
						}
						if opts.jsonOutput {
							_ = writeJSON(out, buildView(result))
							return
						}
						printBuildLine(out, result)
						printProblems(cmd.ErrOrStderr(), result.Outcome.Problems)
					},
				})
			})
		},
	}
}

func newPrefsCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Inspect routing preferences",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a preferences document and print the effective preferences",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				cfg, err := opts.loadConfig()
				if err != nil {
					return err
				}
				path = cfg.PreferencesPath
			}
			if _, err := os.Stat(path); err != nil {
				return exitWith(exitFailure, fmt.Sprintf("preferences %s: %v", path, err))
			}
			preferences, problems := prefs.NewLoader(opts.logger).Load(path)
			if opts.jsonOutput {
				if err := writeJSON(cmd.OutOrStdout(), map[string]any{
					"path":        path,
					"valid":       len(problems) == 0,
					"preferences": preferences,
					"problems":    problems,
				}); err != nil {
					return err
				}
			} else {
				printProblems(cmd.ErrOrStderr(), problems)
				printPreferences(cmd.OutOrStdout(), path, preferences, len(problems) == 0)
			}
			if len(problems) > 0 {
				return exitSilent(exitFailure)
			}
			return nil
		},
	})
	return cmd
}

func selectTags(registry *domain.Registry, only []string) []domain.CapabilityTag {
	if len(only) == 0 {
		return registry.Tags()
	}
	tags := make([]domain.CapabilityTag, 0, len(only))
	for _, tag := range only {
		tags = append(tags, domain.CapabilityTag(strings.ToLower(strings.TrimSpace(tag))))
	}
	return tags
}
