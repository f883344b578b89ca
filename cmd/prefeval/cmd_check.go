package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/kotoba-bench/prefeval/internal/corpus"
	"github.com/kotoba-bench/prefeval/internal/sampling"
	"github.com/kotoba-bench/prefeval/internal/study"
)

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <study.yaml>",
		Short: "Validate a study spec and its corpora without starting a session",
		Long: `Validate a study spec and its corpora.

Loads the prompt corpus and every model's response file, draws the sample
the way a session would, and reports what an evaluator will see. Fails
when any model has no responses or the sample cannot be drawn.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := study.Load(args[0])
			if err != nil {
				return err
			}

			prompts, skipped, err := corpus.LoadPrompts(spec.Data.Prompts)
			if err != nil {
				return fmt.Errorf("loading prompts: %w", err)
			}

			responses, err := corpus.LoadResponses(spec.Data.OutputsDir, spec.Models)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Study:    %s\n", spec.Name)
			fmt.Fprintf(out, "Prompts:  %d", len(prompts))
			if skipped > 0 {
				fmt.Fprintf(out, " (%d malformed lines skipped)", skipped)
			}
			fmt.Fprintln(out)
			for _, m := range spec.Models {
				fmt.Fprintf(out, "  %-24s %d responses\n", m, len(responses[m]))
			}

			if spec.Data.Persona != "" {
				facts, _, err := corpus.LoadPersona(spec.Data.Persona)
				if err != nil {
					fmt.Fprintf(out, "Persona:  unavailable (%v)\n", err)
				} else {
					fmt.Fprintf(out, "Persona:  %d facts\n", len(facts))
				}
			}

			sample, err := sampling.Draw(rand.New(rand.NewSource(spec.Seed)), prompts, responses, spec.SampleSize)
			if err != nil {
				return fmt.Errorf("study %s: %w", spec.Name, err)
			}

			pages := sample.PageCount()
			pairCount := spec.PairCount()
			fmt.Fprintf(out, "Session:  %d pages x %d pairs = %d cells\n", pages, pairCount, pages*pairCount)
			fmt.Fprintf(out, "Sampled prompt indices (seed %d): %v\n", spec.Seed, sample.Indices)

			if spec.Sheet.SpreadsheetID != "" {
				fmt.Fprintf(out, "Sheet:    %s / %s\n", spec.Sheet.SpreadsheetID, spec.Sheet.Worksheet)
			} else {
				fmt.Fprintln(out, "Sheet:    not configured (runs need --output)")
			}

			fmt.Fprintln(out, "OK")
			return nil
		},
	}

	return cmd
}
