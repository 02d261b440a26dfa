package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/popscore"
	"github.com/happyhackingspace/popscore/errs"
	"github.com/happyhackingspace/popscore/features"
)

// Prediction is one scored document of the predict output.
type Prediction struct {
	Text            string  `json:"text"`
	PopularityScore float64 `json:"popularity_score"`
}

func (c *CLI) newPredictCommand() *cobra.Command {
	var modelName string
	var input string

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score documents with a stored model",
		Args:  cobra.NoArgs,
		Example: `  popscore predict --model GradientDescent_60 --input comments.json
  cat comments.json | popscore predict --model ClosedForm -s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := readDocuments(input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			slog.Debug("Documents read", "input", input, "documents", len(docs))

			return c.withStore(func(s popscore.Store) error {
				p, err := popscore.LoadPredictor(s, modelName)
				if err != nil {
					return err
				}
				scores, err := p.Score(docs)
				if err != nil {
					return err
				}
				out := make([]Prediction, len(docs))
				for i, d := range docs {
					out[i] = Prediction{Text: d.Text, PopularityScore: scores[i]}
				}
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			})
		},
	}

	cmd.Flags().StringVar(&modelName, "model", "GradientDescent", "Stored model name")
	cmd.Flags().StringVar(&input, "input", "-", "JSON array of documents, - for stdin")
	return cmd
}

func readDocuments(input string, stdin io.Reader) ([]features.Document, error) {
	var data []byte
	var err error
	if input == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(input)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInputFormat, err)
	}

	var docs []features.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errs.ErrInputFormat, input, err)
	}
	return docs, nil
}
