package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-files-must-flow/internal/cli"
)

func patternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Inspect learned filing patterns",
	}

	cmd.AddCommand(listPatternsCmd())

	return cmd
}

func listPatternsCmd() *cobra.Command {
	var negativeOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List learned patterns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			patterns, err := store.GetPatterns(ctx)
			if err != nil {
				return fmt.Errorf("failed to get patterns: %w", err)
			}

			if len(patterns) == 0 {
				fmt.Println(cli.InfoStyle.Render("No learned patterns yet. They accumulate as you accept suggestions."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("Extension"),
				cli.BoldStyle.Render("Destination"),
				cli.BoldStyle.Render("Seen"),
				cli.BoldStyle.Render("Confidence"),
				cli.BoldStyle.Render("Type"))

			for _, pattern := range patterns {
				if negativeOnly && !pattern.IsNegative {
					continue
				}
				kind := cli.SuccessStyle.Render("suggests")
				if pattern.IsNegative {
					kind = cli.ErrorStyle.Render("suppresses")
				}
				fmt.Fprintf(w, ".%s\t%s\t%d\t%.0f%%\t%s\n",
					pattern.Extension, pattern.Destination,
					pattern.OccurrenceCount, pattern.Confidence*100, kind)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&negativeOnly, "negative", false, "show only negative (suppressing) patterns")

	return cmd
}
