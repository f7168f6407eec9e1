package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"fodmap-research/internal/config"
	"fodmap-research/llm/agents/main-agents/primary"
)

type options struct {
	configFile string
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "fodmap [question]",
		Short: "FODMAP research - classify food sensitivities from cited web sources",
		Long: `Answers questions about FODMAP food sensitivities with a chat model that
can research foods category by category and search the web for cited summaries.
Without a subcommand the question is answered by the chat agent.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, opts, args)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	askCmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the chat agent a question",
		Long:  fmt.Sprintf("Ask a free-form question. Defaults to %q.", primary.DefaultQuestion),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, opts, args)
		},
	}

	researchCmd := &cobra.Command{
		Use:   "research [food]",
		Short: "Classify a food against every FODMAP category",
		Long:  `Research each sensitivity category for the food concurrently and print the aggregated result as JSON.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			food := "chocolate"
			if len(args) > 0 {
				food = args[0]
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				result, err := a.classifier.ResearchFoodSensitivity(ctx, food)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search and summarize a query with citations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				result, err := a.search.SearchAndSummarize(ctx, query)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), result.String())
				return nil
			})
		},
	}

	var topN int
	webCmd := &cobra.Command{
		Use:   "web <query>",
		Short: "Answer a query from the top ranked web pages",
		Long:  `Search the web, answer the query from each of the top pages and summarize the answers.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				n := topN
				if n <= 0 {
					n = a.cfg.Research.TopN
				}
				result, err := a.web.Research(ctx, query, n)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), result.String())
				return nil
			})
		},
	}
	webCmd.Flags().IntVarP(&topN, "top", "n", 0, "number of ranked pages to read (default from config)")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  `Manage configuration files.`,
	}

	configInitCmd := &cobra.Command{
		Use:   "init [filename]",
		Short: "Create a default configuration file",
		Long:  `Generate a default configuration file with all available options. Secrets are left empty.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := "fodmap-config.json"
			if len(args) > 0 {
				filename = args[0]
			}
			if err := config.DefaultConfig().SaveToFile(filename); err != nil {
				return fmt.Errorf("failed to save config file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default configuration saved to: %s\n", filename)
			return nil
		},
	}

	configValidateCmd := &cobra.Command{
		Use:   "validate [filename]",
		Short: "Validate a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfigFromFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file '%s' is valid!\n", args[0])
			if opts.verbose {
				fmt.Fprintln(cmd.OutOrStdout(), cfg.String())
			}
			return nil
		},
	}

	configCmd.AddCommand(configInitCmd, configValidateCmd)
	rootCmd.AddCommand(askCmd, researchCmd, searchCmd, webCmd, configCmd)
	return rootCmd
}

func runAsk(cmd *cobra.Command, opts *options, args []string) error {
	question := strings.Join(args, " ")
	return withApp(cmd, opts, func(ctx context.Context, a *app) error {
		answer, err := a.primary.Ask(ctx, question)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	})
}

// withApp loads the configuration, wires the components and runs fn with a
// context cancelled on SIGINT or SIGTERM
func withApp(cmd *cobra.Command, opts *options, fn func(ctx context.Context, a *app) error) error {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if opts.verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "Configuration: %s\n", cfg.String())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := fn(ctx, a)

	if opts.verbose {
		if summary, err := a.metrics.Summary(); err == nil && summary != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "\nMetrics:\n%s\n", summary)
		}
	}
	return runErr
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
