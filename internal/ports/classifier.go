package ports

import "github.com/bft-labs/gesturebridge/internal/domain"

// Classifier maps one feature vector to a discrete command. Implementations
// are opaque to the bridge.
type Classifier interface {
	Predict(features []float64) (domain.Command, error)
}

// FeatureExtractor turns one raw sample (e.g. a pose) into a feature vector.
type FeatureExtractor interface {
	Extract(sample []float64) ([]float64, error)
}
