// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prometheusresearch/baseline-codebase-sub000/internal/assessment"
	"github.com/prometheusresearch/baseline-codebase-sub000/internal/discrepancy"
)

// --- discrepancies ---

var discrepanciesCmd = &cobra.Command{
	Use:   "discrepancies <entry>...",
	Short: "Report where parallel Entries disagree",
	Long: `Discrepancies compares the entry files field by field and prints a tree
holding, for every disagreeing answer, each entry's value keyed by entry id.
Record-list indexes where the entries agree but leave a subfield unanswered
are marked with _NEEDS_VALUE_. Fewer than two entries give an empty report.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDiscrepancies,
}

func runDiscrepancies(cmd *cobra.Command, args []string) error {
	defPath, _ := cmd.Flags().GetString("definition")
	def, err := loadDefinition(defPath)
	if err != nil {
		return err
	}
	entries, err := loadEntries(args)
	if err != nil {
		return err
	}
	report, err := discrepancy.Find(def, entries)
	if err != nil {
		return err
	}
	logger.Info("compared entries", zap.Int("entries", len(entries)), zap.Int("fields", len(report)))
	return writeResult(report)
}

// --- reconcile ---

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <entry>...",
	Short: "Merge parallel Entries into one resolved document",
	Long: `Reconcile merges the entry files into one Assessment Document. Values
from --overrides win; every other answer comes from the first entry, in the
order given, that has one. Explanations and annotations from several entries
are combined. The result is validated against the definition before it is
printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReconcile,
}

func runReconcile(cmd *cobra.Command, args []string) error {
	defPath, _ := cmd.Flags().GetString("definition")
	overridesPath, _ := cmd.Flags().GetString("overrides")

	def, err := loadDefinition(defPath)
	if err != nil {
		return err
	}
	entries, err := loadEntries(args)
	if err != nil {
		return err
	}
	overrides, err := loadTree(overridesPath)
	if err != nil {
		return err
	}

	doc, err := discrepancy.Solve(def, entries, overrides)
	if err != nil {
		return err
	}
	if err := assessment.ValidateData(doc, def); err != nil {
		return fmt.Errorf("resolved document: %w", err)
	}
	return writeResult(doc)
}

func init() {
	for _, c := range []*cobra.Command{discrepanciesCmd, reconcileCmd} {
		c.Flags().String("definition", "", "definition file the entries answer")
		_ = c.MarkFlagRequired("definition")
	}
	reconcileCmd.Flags().String("overrides", "", "YAML or JSON file of chosen values, shaped like a discrepancy report")

	rootCmd.AddCommand(discrepanciesCmd)
	rootCmd.AddCommand(reconcileCmd)
}
