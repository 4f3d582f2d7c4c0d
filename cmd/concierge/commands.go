package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"campus-concierge/internal/catalog"
	"campus-concierge/internal/common/config"
	"campus-concierge/internal/common/logger"
	"campus-concierge/internal/concierge"
	"campus-concierge/internal/providers/appcontext"
	"campus-concierge/internal/providers/genai"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "concierge",
		Short:         "Campus concierge: ask where things are and how campus processes work",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a config YAML (default: ./configs/config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "error", "log level for diagnostics on stderr")

	root.AddCommand(newAskCmd(opts), newValidateCmd(opts))
	return root
}

func (o *rootOptions) load() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFromFile(o.configPath)
	}
	return config.Load()
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	var noLLM, showStage bool

	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Resolve one query and print the response payload as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			log := logger.NewStructured(opts.logLevel, "console")

			cat, err := catalog.Load(catalog.PathsFromConfig(cfg.Concierge))
			if err != nil {
				return err
			}

			var provider concierge.CompletionProvider
			if !noLLM {
				p, err := genai.New(cfg.APIs.GenAI, log)
				if err != nil {
					return err
				}
				if p != nil {
					provider = p
				}
			}

			// Without data backends the summarizer still answers app help.
			summarizer := appcontext.NewSummarizer(cfg.AppContext, map[string]appcontext.Source{}, nil, log)

			engine := concierge.NewEngine(cat, concierge.OptionsFromConfig(cfg.Concierge), provider, summarizer, log)

			allow := !noLLM
			result := engine.ResolveDetailed(context.Background(), concierge.Request{
				Query:    strings.Join(args, " "),
				AllowLLM: &allow,
			})

			out := cmd.OutOrStdout()
			if showStage {
				fmt.Fprintf(cmd.ErrOrStderr(), "stage=%s duration=%s\n", result.Stage, result.Duration)
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(result.Payload)
		},
	}
	cmd.Flags().BoolVar(&noLLM, "no-llm", false, "disable model-backed stages")
	cmd.Flags().BoolVar(&showStage, "stage", false, "print the resolving stage to stderr")
	return cmd
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configured campus catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			cat, err := catalog.Load(catalog.PathsFromConfig(cfg.Concierge))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "catalog ok: %d buildings, %d aliases, %d knowledge base entries, %d fallbacks\n",
				len(cat.Buildings), len(cat.Aliases), len(cat.KnowledgeBase.Entries), len(cat.KnowledgeBase.Fallbacks))
			return nil
		},
	}
}
