package cli

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/popscore"
	"github.com/happyhackingspace/popscore/internal/metrics"
	"github.com/happyhackingspace/popscore/regression"
)

func (c *CLI) newTrainCommand() *cobra.Command {
	var split string
	var metricsFile string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train closed-form and gradient-descent models on every feature variant",
		Args:  cobra.NoArgs,
		Example: `  popscore train
  popscore train --metrics-file train.prom -v`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tc := c.trainConfig()
			tc.Split = split
			m := metrics.NewTraining()
			tc.Observer = m

			err := c.withStore(func(s popscore.Store) error {
				run, err := popscore.Train(s, tc)
				if err != nil {
					return err
				}
				c.printRun(run)
				return nil
			})
			if err != nil {
				return err
			}
			if metricsFile != "" {
				if err := m.WriteFile(metricsFile); err != nil {
					return err
				}
				slog.Info("Metrics written", "path", metricsFile)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&split, "split", popscore.SplitTraining, "Split to fit the models on")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write training metrics in Prometheus text format")
	return cmd
}

func (c *CLI) printRun(run *popscore.Run) {
	fmt.Fprintf(c.out, "Run %s\n", run.ID)
	table := c.newTable("Model", "Variant", "Duration", "Iterations", "Status", "Saved")
	for _, tm := range run.Models {
		iterations, status := "-", "trained"
		if gd, ok := tm.Model.(*regression.GradientDescent); ok && gd.IsTrained() {
			iterations = strconv.Itoa(gd.Iterations())
			status = gd.Status().String()
		}
		if tm.Err != nil {
			status = "diverged"
		}
		table.Append([]string{
			tm.Name,
			tm.Variant.Name,
			tm.Duration.String(),
			iterations,
			status,
			strconv.FormatBool(tm.Trained()),
		})
	}
	table.Render()
}
