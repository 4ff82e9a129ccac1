package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"backlog/internal/config"
	"backlog/internal/services/llm"
)

const llmCheckTimeout = 30 * time.Second

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the configuration file",
	}
	cmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(ctx))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var path string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented sample config",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := initTarget(path)
			if err != nil {
				return err
			}
			if !overwrite {
				_, statErr := os.Stat(target)
				switch {
				case statErr == nil:
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				case !errors.Is(statErr, fs.ErrNotExist):
					return fmt.Errorf("check config path: %w", statErr)
				}
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Next: set paths.input and llm.api_key (or OPENROUTER_API_KEY), then run backlog enrich.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", "", "Where to write the file (default: user config dir)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func initTarget(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		target, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("determine default config path: %w", err)
		}
		return target, nil
	}
	target, err := config.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return target, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	var checkLLM bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that the config can drive an enrichment run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if !ctx.configExists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}

			runErr := cfg.ValidateForRun()
			if runErr != nil {
				fmt.Fprintln(out, renderStatusLine("Enrich ready", statusWarn, runErr.Error(), colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Enrich ready", statusOK, "", colorize))
			}

			if checkLLM && runErr == nil {
				if err := pingLLM(cmd.Context(), cfg); err != nil {
					fmt.Fprintln(out, renderStatusLine("LLM", statusError, err.Error(), colorize))
					return fmt.Errorf("llm health check failed: %w", err)
				}
				fmt.Fprintln(out, renderStatusLine("LLM", statusOK, cfg.GetLLM().Model, colorize))
			}

			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkLLM, "check-llm", false, "Also send one test prompt to the classification service")
	return cmd
}

func pingLLM(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(ctx, llmCheckTimeout)
	defer cancel()
	return newLLMClient(cfg, llm.WithRetryMaxAttempts(1)).HealthCheck(ctx)
}
