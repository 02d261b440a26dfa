// Package popscore predicts the popularity score of short comments with
// linear regression over structural and bag-of-words features.
//
// The pipeline runs in stages that exchange artifacts through a Store:
//
//	a, _ := popscore.PrepareDataset(popscore.DefaultDatasetConfig(), store)
//	_ = popscore.BuildFeatures("data", store)
//	run, _ := popscore.Train(store, popscore.DefaultTrainConfig())
//	scores, _ := popscore.Evaluate(store, "validation")
//
// A stored model scores new documents through a Predictor:
//
//	p, _ := popscore.LoadPredictor(store, "GradientDescent_60")
//	y, _ := p.Score(docs)
package popscore

// Store keeps pipeline artifacts as blobs under slash-separated keys.
// Get fails with errs.ErrInputFormat for a missing key.
type Store interface {
	Put(key string, data []byte) error
	Get(key string) ([]byte, error)
	List(prefix string) ([]string, error)
	Close() error
}

// Split names accepted by the features, train and evaluate stages.
const (
	SplitTraining   = "training"
	SplitValidation = "validation"
	SplitTest       = "test"
)
