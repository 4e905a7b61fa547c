// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prometheusresearch/baseline-codebase-sub000/internal/assessment"
	"github.com/prometheusresearch/baseline-codebase-sub000/internal/calculation"
	"github.com/prometheusresearch/baseline-codebase-sub000/internal/querystore"
	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

var calculateCmd = &cobra.Command{
	Use:   "calculate <document>",
	Short: "Run a Calculation Set over a completed Assessment Document",
	Long: `Calculate validates the document as complete data, then runs every
calculation of the set in order. The expression method evaluates Go
expressions; the query method runs SQL against the configured SQLite store
(calculation.query_store in the config file), seeded by its init scripts.

Prints the results by calculation id, or with --attach the document with the
results stored under meta.calculations.`,
	Args: cobra.ExactArgs(1),
	RunE: runCalculate,
}

func runCalculate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	defPath, _ := cmd.Flags().GetString("definition")
	setPath, _ := cmd.Flags().GetString("calculations")
	attach, _ := cmd.Flags().GetBool("attach")

	def, err := loadDefinition(defPath)
	if err != nil {
		return err
	}
	data, err := readFile(args[0])
	if err != nil {
		return err
	}
	if err := assessment.ValidateData(data, def); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	doc, err := assessment.Parse(data)
	if err != nil {
		return err
	}

	store, err := querystore.Open(ctx, cfg.Calculation.QueryStore)
	if err != nil {
		return err
	}
	defer store.Close()

	registry, err := calculation.DefaultRegistry(store, cfg.Calculation.Expression)
	if err != nil {
		return err
	}
	setData, err := readFile(setPath)
	if err != nil {
		return err
	}
	set, err := calculation.ValidateCalculationSet(setData, def, registry)
	if err != nil {
		return fmt.Errorf("%s: %w", setPath, err)
	}

	engine := calculation.NewEngine(registry, calculation.WithLogger(logger))
	a := types.Assessment{ID: args[0], Status: types.StatusComplete, Data: doc}
	results, err := engine.Execute(ctx, def, a, set)
	if err != nil {
		return err
	}
	if attach {
		return writeResult(calculation.Attach(doc, results))
	}
	return writeResult(results)
}

func init() {
	calculateCmd.Flags().String("definition", "", "definition file the document answers")
	calculateCmd.Flags().String("calculations", "", "Calculation Set file")
	calculateCmd.Flags().Bool("attach", false, "print the document with results under meta.calculations")
	_ = calculateCmd.MarkFlagRequired("definition")
	_ = calculateCmd.MarkFlagRequired("calculations")

	rootCmd.AddCommand(calculateCmd)
}
