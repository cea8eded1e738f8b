package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-parser/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a Record JSON file against a JSON Schema",
	Long:  "Validate a Record JSON file. Without --schema the built-in Record schema is used.",
	RunE:  runValidate,
}

var (
	validateSchema string
	validateJSON   string
)

func init() {
	validateCmd.Flags().StringVar(&validateSchema, "schema", "", "Path to a JSON Schema file (default: built-in Record schema)")
	validateCmd.Flags().StringVar(&validateJSON, "json", "", "Path to the JSON file to validate (required)")
	_ = validateCmd.MarkFlagRequired("json")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	var err error
	if validateSchema != "" {
		err = schemas.ValidateJSON(validateSchema, validateJSON)
	} else {
		data, readErr := os.ReadFile(validateJSON)
		if readErr != nil {
			return fmt.Errorf("JSON file not found: %w", readErr)
		}
		err = schemas.ValidateRecordJSON(data)
	}

	var validationErr *schemas.ValidationError
	if errors.As(err, &validationErr) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), validationErr.Error())
		return fmt.Errorf("validation failed with %d error(s)", len(validationErr.Errors))
	}
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Validation passed")
	return nil
}
