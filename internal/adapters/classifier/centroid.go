// Package classifier holds the pose feature extractor and a nearest-centroid
// classifier loaded from a TOML model file.
//
// Model file format:
//
//	[[class]]
//	code = 0
//	centroid = [0.4, 0.9, 0.9, 0.5, 0.5]
//
//	[[class]]
//	code = 2
//	centroid = [0.2, 1.4, 0.9, 0.1, 0.5]
package classifier

import (
	"fmt"
	"math"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bft-labs/gesturebridge/internal/domain"
)

// ModelFile is the TOML form of a centroid model.
type ModelFile struct {
	Classes []ClassEntry `toml:"class"`
}

// ClassEntry is one class of a centroid model.
type ClassEntry struct {
	Code     int32     `toml:"code"`
	Centroid []float64 `toml:"centroid"`
}

// Centroid predicts the command whose centroid is closest (Euclidean) to the
// feature vector. Ties go to the class listed first.
type Centroid struct {
	codes     []domain.Command
	centroids [][]float64
	dim       int
}

// NewCentroid builds a classifier from model entries. Every centroid must
// have the same, non-zero length.
func NewCentroid(classes []ClassEntry) (*Centroid, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("%w: model has no classes", domain.ErrInvalidConfig)
	}
	c := &Centroid{dim: len(classes[0].Centroid)}
	if c.dim == 0 {
		return nil, fmt.Errorf("%w: empty centroid for code %d", domain.ErrInvalidConfig, classes[0].Code)
	}
	seen := make(map[int32]bool, len(classes))
	for _, cl := range classes {
		if len(cl.Centroid) != c.dim {
			return nil, fmt.Errorf("%w: centroid for code %d has %d values, want %d",
				domain.ErrInvalidConfig, cl.Code, len(cl.Centroid), c.dim)
		}
		if seen[cl.Code] {
			return nil, fmt.Errorf("%w: duplicate class code %d", domain.ErrInvalidConfig, cl.Code)
		}
		seen[cl.Code] = true
		c.codes = append(c.codes, domain.Command(cl.Code))
		c.centroids = append(c.centroids, append([]float64(nil), cl.Centroid...))
	}
	return c, nil
}

// LoadCentroid reads a TOML model file.
func LoadCentroid(path string) (*Centroid, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var mf ModelFile
	if err := toml.Unmarshal(b, &mf); err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}
	return NewCentroid(mf.Classes)
}

// Dim returns the feature vector length the model expects.
func (c *Centroid) Dim() int {
	return c.dim
}

// Predict implements ports.Classifier.
func (c *Centroid) Predict(features []float64) (domain.Command, error) {
	if len(features) != c.dim {
		return 0, fmt.Errorf("%w: got %d features, want %d", domain.ErrFeatureMismatch, len(features), c.dim)
	}
	best, bestDist := 0, math.Inf(1)
	for i, centroid := range c.centroids {
		var d float64
		for j, v := range centroid {
			diff := features[j] - v
			d += diff * diff
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return c.codes[best], nil
}
