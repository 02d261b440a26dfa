package cli

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/popscore"
)

func (c *CLI) newEvaluateCommand() *cobra.Command {
	var split string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Report the mean squared error of every stored model",
		Args:  cobra.NoArgs,
		Example: `  popscore evaluate
  popscore evaluate --split test`,
		RunE: func(cmd *cobra.Command, args []string) error {
			slog.Info("Evaluating", "split", split)
			start := time.Now()
			return c.withStore(func(s popscore.Store) error {
				scores, err := popscore.Evaluate(s, split)
				if err != nil {
					return err
				}
				slog.Debug("Evaluation completed", "duration", time.Since(start))
				c.printScores(scores)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&split, "split", popscore.SplitValidation, "Split to evaluate on")
	return cmd
}

func (c *CLI) printScores(scores []popscore.Score) {
	table := c.newTable("Model", "Variant", "MSE", "R²", "Run")
	for _, s := range scores {
		table.Append([]string{
			s.Name,
			s.Variant,
			strconv.FormatFloat(s.MSE, 'g', 6, 64),
			strconv.FormatFloat(s.RSquared, 'f', 4, 64),
			s.RunID,
		})
	}
	table.Render()
}
