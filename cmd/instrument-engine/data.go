// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prometheusresearch/baseline-codebase-sub000/internal/assessment"
	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

var validateDataCmd = &cobra.Command{
	Use:   "validate-data <document>...",
	Short: "Check Assessment Documents against a definition",
	Long: `Validate-data checks each document against the base document schema and,
with --definition, against the definition's fields, types and policies.
Use --draft for in-progress data: presence rules (required values,
explanations and annotations) are then not enforced.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidateData,
}

func runValidateData(cmd *cobra.Command, args []string) error {
	defPath, _ := cmd.Flags().GetString("definition")
	draft, _ := cmd.Flags().GetBool("draft")

	var def *types.Definition
	if defPath != "" {
		var err error
		if def, err = loadDefinition(defPath); err != nil {
			return err
		}
	}
	check := assessment.ValidateData
	if draft {
		check = assessment.ValidateDraft
	}

	failed := 0
	for _, path := range args {
		data, err := readFile(path)
		if err != nil {
			return err
		}
		if err := check(data, def); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintf(os.Stdout, "%s: valid\n", path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d document(s) failed validation", failed, len(args))
	}
	return nil
}

func init() {
	validateDataCmd.Flags().String("definition", "", "definition file the documents answer")
	validateDataCmd.Flags().Bool("draft", false, "validate in-progress data")

	rootCmd.AddCommand(validateDataCmd)
}
