// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prometheusresearch/baseline-codebase-sub000/internal/assessment"
	"github.com/prometheusresearch/baseline-codebase-sub000/internal/instrument"
)

// --- validate-definition ---

var validateDefinitionCmd = &cobra.Command{
	Use:   "validate-definition <definition>",
	Short: "Check an Instrument Definition",
	Long: `Validate-definition checks the structure of a definition, the uniqueness
of every identifier (including generated matrix row_column ids), its custom
types, and the constraints and policies of every field. It stops at the first
problem. Use "-" to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidateDefinition,
}

func runValidateDefinition(cmd *cobra.Command, args []string) error {
	def, err := loadDefinition(args[0])
	if err != nil {
		return err
	}

	showTypes, _ := cmd.Flags().GetBool("types")
	if !showTypes {
		fmt.Fprintf(os.Stdout, "%s %s: valid\n", def.ID, def.Version)
		return nil
	}
	cat, err := instrument.BuildCatalog(def)
	if err != nil {
		return err
	}
	bases := cat.Bases()
	out := make(map[string]interface{}, len(bases))
	for name, base := range bases {
		out[name] = base.String()
	}
	return writeResult(out)
}

// --- skeleton ---

var skeletonCmd = &cobra.Command{
	Use:   "skeleton <definition>",
	Short: "Print an unanswered Assessment Document for a definition",
	Long: `Skeleton writes the empty document for a definition: every field is
present with a null value and every matrix cell is pre-populated.`,
	Args: cobra.ExactArgs(1),
	RunE: runSkeleton,
}

func runSkeleton(cmd *cobra.Command, args []string) error {
	def, err := loadDefinition(args[0])
	if err != nil {
		return err
	}
	doc, err := assessment.GenerateEmptyData(def)
	if err != nil {
		return err
	}
	return writeResult(doc)
}

func init() {
	validateDefinitionCmd.Flags().Bool("types", false, "print the resolved base type of every type name")

	rootCmd.AddCommand(validateDefinitionCmd)
	rootCmd.AddCommand(skeletonCmd)
}
