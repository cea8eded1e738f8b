package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-parser/internal/pipeline"
	"github.com/jonathan/resume-parser/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server exposing POST /parse-resume and GET /health.`,
	RunE:  runServe,
}

var (
	servePort  int
	serveLocal bool
)

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveLocal, "local", false, "Skip LLM-backed extractors")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("port") {
		appConfig.Server.Port = servePort
	}

	client, err := newLLMClient(cmd.Context(), appConfig, serveLocal)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close() //nolint:errcheck
	}

	srv := server.New(server.ConfigFrom(appConfig, version), pipeline.NewFromConfig(appConfig, client))
	if err := srv.Start(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
