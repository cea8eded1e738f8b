package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-parser/internal/pipeline"
)

var extractTextCmd = &cobra.Command{
	Use:   "extract-text",
	Short: "Print the cleaned text of a resume without field extraction",
	RunE:  runExtractText,
}

var (
	extractFile     string
	extractOut      string
	extractMetadata bool
)

func init() {
	extractTextCmd.Flags().StringVarP(&extractFile, "file", "f", "", "Path to the resume file (required)")
	extractTextCmd.Flags().StringVarP(&extractOut, "out", "o", "", "Write output to this file instead of stdout")
	extractTextCmd.Flags().BoolVar(&extractMetadata, "metadata", false, "Print document metadata JSON instead of the text")
	_ = extractTextCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(extractTextCmd)
}

func runExtractText(cmd *cobra.Command, _ []string) error {
	text, meta, err := pipeline.NewFromConfig(appConfig, nil).ExtractText(cmd.Context(), extractFile)
	if err != nil {
		return fmt.Errorf("failed to extract text from %s: %w", extractFile, err)
	}

	if !extractMetadata {
		return writeOutput(cmd.OutOrStdout(), extractOut, []byte(text))
	}

	data, err := meta.ToJSON()
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), extractOut, data)
}
