package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-parser/internal/config"
	"github.com/jonathan/resume-parser/internal/llm"
	"github.com/jonathan/resume-parser/internal/logger"
	"github.com/jonathan/resume-parser/internal/observability"
	"github.com/jonathan/resume-parser/internal/pipeline"
	"github.com/jonathan/resume-parser/internal/schemas"
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse a resume file into structured Record JSON",
	Long: `Parse a PDF, DOCX, HTML or plain text resume and print the extracted Record as JSON.

Phone, skills, education and experience are delegated to the configured LLM provider,
which needs GEMINI_API_KEY or OPENAI_API_KEY. With --local only the pattern-based
extractors run.`,
	RunE: runParse,
}

var (
	parseFile     string
	parseOut      string
	parseLocal    bool
	parseValidate bool
	parseVerbose  bool
)

func init() {
	parseCmd.Flags().StringVarP(&parseFile, "file", "f", "", "Path to the resume file (required)")
	parseCmd.Flags().StringVarP(&parseOut, "out", "o", "", "Write the Record JSON to this file instead of stdout")
	parseCmd.Flags().BoolVar(&parseLocal, "local", false, "Skip LLM-backed extractors")
	parseCmd.Flags().BoolVar(&parseValidate, "validate", false, "Validate the Record against the output schema")
	parseCmd.Flags().BoolVarP(&parseVerbose, "verbose", "v", false, "Print stage progress and per-field results to stderr")
	_ = parseCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	errOut := cmd.ErrOrStderr()

	client, err := newLLMClient(ctx, appConfig, parseLocal)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close() //nolint:errcheck
	}

	var opts []pipeline.Option
	if parseVerbose {
		opts = append(opts, pipeline.WithProgress(func(e pipeline.ProgressEvent) {
			_, _ = fmt.Fprintf(errOut, "[%s] %s\n", e.Elapsed.Round(time.Millisecond), e.Stage)
		}))
	}

	report, err := pipeline.NewFromConfig(appConfig, client, opts...).Analyze(ctx, parseFile)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", parseFile, err)
	}

	if parseVerbose {
		printer := observability.NewPrinter(errOut)
		printer.PrintResults(report.Results)
		printer.PrintRecord(report.Record)
	}

	if parseValidate {
		if err := schemas.ValidateRecord(report.Record); err != nil {
			return fmt.Errorf("record failed schema validation: %w", err)
		}
		if parseVerbose {
			_, _ = fmt.Fprintln(errOut, "Validation passed")
		}
	}

	data, err := json.MarshalIndent(report.Record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	return writeOutput(cmd.OutOrStdout(), parseOut, data)
}

// newLLMClient returns nil when delegated extraction is disabled with --local.
// A missing provider key is an error so that skills, education and experience
// are never dropped silently.
func newLLMClient(ctx context.Context, cfg *config.Config, local bool) (llm.Client, error) {
	log := logger.For("cli")
	if local {
		log.Debug().Msg("LLM extractors disabled, running local extractors only")
		return nil, nil
	}

	client, err := llm.NewClientFromSettings(ctx, cfg.LLM)
	if errors.Is(err, llm.ErrMissingAPIKey) {
		return nil, fmt.Errorf("%w: set %s or pass --local", err, apiKeyEnv(cfg.LLM.Provider))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return client, nil
}

// apiKeyEnv names the environment variable holding the provider's key
func apiKeyEnv(provider string) string {
	if llm.Provider(strings.ToLower(provider)) == llm.ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

// writeOutput writes data to path, or to w when path is empty
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := fmt.Fprintln(w, string(data))
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
