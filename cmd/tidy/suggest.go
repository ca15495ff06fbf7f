package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/the-files-must-flow/internal/cli"
	"github.com/Veraticus/the-files-must-flow/internal/model"
	"github.com/Veraticus/the-files-must-flow/internal/pattern"
	"github.com/Veraticus/the-files-must-flow/internal/predict"
	"github.com/Veraticus/the-files-must-flow/internal/rules"
	"github.com/Veraticus/the-files-must-flow/internal/suggest"
)

// progressThreshold is the batch size above which a progress bar is shown.
const progressThreshold = 20

func suggestCmd() *cobra.Command {
	var (
		noML          bool
		minConfidence float64
		allowedDest   []string
		showPending   bool
	)

	cmd := &cobra.Command{
		Use:   "suggest <path>...",
		Short: "Suggest destinations for files",
		Long: `Evaluate files (or directories of files) through the suggestion pipeline:
rules first, then learned patterns, then the statistical predictor.
Each file receives at most one suggestion.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			files, err := collectFileFacts(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Println(cli.InfoStyle.Render("No files found."))
				return nil
			}

			ruleSet, err := store.GetEnabledRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to load rules: %w", err)
			}
			allPatterns, err := store.GetPatterns(ctx)
			if err != nil {
				return fmt.Errorf("failed to load patterns: %w", err)
			}
			patterns, negatives := splitNegatives(allPatterns)

			models := predict.NewManager(store)
			if restoreErr := models.Restore(ctx); restoreErr != nil {
				return restoreErr
			}
			gate := predict.NewGate(models, viper.GetBool("ml.enabled"))

			pipeline := suggest.NewPipeline(rules.NewEngine(), pattern.NewMatcher(), gate)

			predCtx := model.PredictionContext{
				MLEnabled:           !noML,
				MinimumConfidence:   minConfidence,
				AllowedDestinations: allowedDest,
			}

			var bar *progressbar.ProgressBar
			if len(files) > progressThreshold {
				bar = progressbar.Default(int64(len(files)), "evaluating")
			}

			results := make([]model.SuggestionResult, 0, len(files))
			for _, file := range files {
				results = append(results, pipeline.Suggest(ctx, file, ruleSet, patterns, negatives, predCtx))
				if bar != nil {
					_ = bar.Add(1)
				}
			}
			if bar != nil {
				_ = bar.Finish()
				fmt.Println()
			}

			printResults(results, showPending)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noML, "no-ml", false, "disable the statistical predictor for this run")
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "minimum prediction confidence (0 = default)")
	cmd.Flags().StringSliceVar(&allowedDest, "allow", nil, "restrict predictions to these destinations")
	cmd.Flags().BoolVar(&showPending, "show-pending", false, "also list files with no suggestion")

	return cmd
}

func splitNegatives(all []model.LearnedPattern) (patterns, negatives []model.LearnedPattern) {
	for _, p := range all {
		if p.IsNegative {
			negatives = append(negatives, p)
		} else {
			patterns = append(patterns, p)
		}
	}
	return patterns, negatives
}

func printResults(results []model.SuggestionResult, showPending bool) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		cli.BoldStyle.Render("File"),
		cli.BoldStyle.Render("Destination"),
		cli.BoldStyle.Render("Confidence"),
		cli.BoldStyle.Render("Source"))

	pending := 0
	for _, result := range results {
		if result.Status != model.StatusReady {
			pending++
			if showPending {
				fmt.Fprintf(w, "%s\t%s\t\t\n", result.FilePath, cli.SubtleStyle.Render("(pending)"))
			}
			continue
		}

		destination := result.Destination
		if destination == model.TrashDestination {
			destination = cli.WarningStyle.Render(destination)
		}
		fmt.Fprintf(w, "%s\t%s\t%.0f%%\t%s\n",
			result.FilePath,
			destination,
			result.Confidence*100,
			renderProvenance(result.Provenance))
	}

	if pending > 0 && !showPending {
		fmt.Fprintf(w, "%s\n", cli.SubtleStyle.Render(
			fmt.Sprintf("(%d file(s) pending with no suggestion; use --show-pending to list)", pending)))
	}
}

func renderProvenance(p model.Provenance) string {
	switch p {
	case model.ProvenanceRule:
		return cli.SuccessStyle.Render("rule")
	case model.ProvenancePattern:
		return cli.InfoStyle.Render("pattern")
	case model.ProvenancePrediction:
		return cli.WarningStyle.Render("prediction")
	default:
		return strings.ToLower(string(p))
	}
}
