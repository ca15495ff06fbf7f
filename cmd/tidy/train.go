package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-files-must-flow/internal/cli"
	"github.com/Veraticus/the-files-must-flow/internal/model"
	"github.com/Veraticus/the-files-must-flow/internal/predict"
)

func trainCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the destination predictor if enough data exists",
		Long: `Check the cold-start thresholds and, when met, train a candidate model in
the background. A candidate below the acceptance threshold is recorded as
rejected and the previously accepted model stays active.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			models := predict.NewManager(store)
			if err := models.Restore(ctx); err != nil {
				return err
			}

			before := models.CurrentModelMetadata()
			models.ScheduleTrainingIfNeeded(ctx)

			// Training runs in the background; give it a bounded window to
			// finish so the one-shot CLI can report the outcome.
			deadline := time.Now().Add(wait)
			for time.Now().Before(deadline) {
				current := models.CurrentModelMetadata()
				if changed(before, current) {
					break
				}
				time.Sleep(100 * time.Millisecond)
			}

			metadata := models.CurrentModelMetadata()
			if metadata == nil {
				fmt.Println(cli.InfoStyle.Render(
					"No accepted model yet. Either the cold-start thresholds are not met or the candidate was rejected; see 'tidy model'."))
				return nil
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf(
				"Active model %s: %d examples, %d destinations, %.0f%% validation accuracy",
				metadata.Version, metadata.ExampleCount, metadata.DestinationCount,
				metadata.ValidationAccuracy*100)))
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 10*time.Second, "how long to wait for the training run to finish")

	return cmd
}

func modelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "model",
		Short: "Show model history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			history, err := store.GetModelHistory(ctx, predict.DefaultModelName)
			if err != nil {
				return fmt.Errorf("failed to get model history: %w", err)
			}

			if len(history) == 0 {
				fmt.Println(cli.InfoStyle.Render("No training runs recorded yet."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("Version"),
				cli.BoldStyle.Render("Trained"),
				cli.BoldStyle.Render("Examples"),
				cli.BoldStyle.Render("Accuracy"),
				cli.BoldStyle.Render("FP rate"),
				cli.BoldStyle.Render("Status"))

			for _, record := range history {
				status := cli.ErrorStyle.Render("rejected")
				if record.Accepted {
					status = cli.SuccessStyle.Render("accepted")
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%.0f%%\t%.0f%%\t%s\n",
					record.Version[:8],
					record.TrainedAt.Format("2006-01-02 15:04"),
					record.ExampleCount,
					record.ValidationAccuracy*100,
					record.FalsePositiveRate*100,
					status)
			}

			return nil
		},
	}
}

// changed reports whether a new record became active between two snapshots.
func changed(before, after *model.TrainedModelRecord) bool {
	if after == nil {
		return false
	}
	return before == nil || before.Version != after.Version
}
