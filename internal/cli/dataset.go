package cli

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/popscore"
)

func (c *CLI) newDatasetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dataset",
		Short: "Split the raw corpus, build the vocabularies and preprocess every split",
		Args:  cobra.NoArgs,
		Example: `  popscore dataset
  popscore dataset -c popscore.yaml -v`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.datasetConfig()
			slog.Info("Preparing dataset", "data-dir", cfg.DataDir, "raw", cfg.RawFile)
			start := time.Now()
			return c.withStore(func(s popscore.Store) error {
				a, err := popscore.PrepareDataset(cfg, s)
				if err != nil {
					return err
				}
				slog.Info("Dataset prepared", "words", a.Layout().Words, "stems", a.Layout().Stems,
					"duration", time.Since(start))
				return nil
			})
		},
	}
}

func (c *CLI) newFeaturesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "features",
		Short:   "Assemble feature matrices and target vectors from the processed splits",
		Args:    cobra.NoArgs,
		Example: `  popscore features`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(func(s popscore.Store) error {
				return popscore.BuildFeatures(c.config.DataDir, s)
			})
		},
	}
}
