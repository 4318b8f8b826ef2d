// Package artifact loads the pre-trained classifiers and scalers consumed by
// the inference pipeline. Artifacts are produced by an external training job,
// serialized as YAML or JSON documents and referenced from a manifest.
package artifact

import (
	"errors"
	"fmt"
)

// Model is a trained binary classifier.
type Model interface {
	Predict(x []float64) (int, error)
	NumFeatures() int
}

// Scaler is a trained feature transform applied before prediction.
type Scaler interface {
	Transform(x []float64) ([]float64, error)
	NumFeatures() int
}

// ErrShape is returned when a vector does not have the length an artifact was trained on.
var ErrShape = errors.New("feature vector shape mismatch")

func checkShape(x []float64, n int) error {
	if len(x) != n {
		return fmt.Errorf("%w: got %d features, want %d", ErrShape, len(x), n)
	}
	return nil
}

// Logistic is a linear classifier: label 1 when coef·x + intercept > 0.
type Logistic struct {
	Coef      []float64
	Intercept float64
}

func (m *Logistic) NumFeatures() int { return len(m.Coef) }

// Decision returns the signed distance of x to the separating hyperplane.
func (m *Logistic) Decision(x []float64) (float64, error) {
	if err := checkShape(x, len(m.Coef)); err != nil {
		return 0, err
	}
	z := m.Intercept
	for i, w := range m.Coef {
		z += w * x[i]
	}
	return z, nil
}

func (m *Logistic) Predict(x []float64) (int, error) {
	z, err := m.Decision(x)
	if err != nil {
		return 0, err
	}
	if z > 0 {
		return 1, nil
	}
	return 0, nil
}

// Tree is a binary decision tree in flattened array form. Node i is a leaf
// when Left[i] == -1; otherwise samples with x[Feature[i]] <= Threshold[i]
// go to Left[i] and the rest to Right[i]. Value[i] holds per-class weights.
type Tree struct {
	Feature   []int       `yaml:"feature"`
	Threshold []float64   `yaml:"threshold"`
	Left      []int       `yaml:"left"`
	Right     []int       `yaml:"right"`
	Value     [][]float64 `yaml:"value"`
}

func (t *Tree) validate(nFeatures, nClasses int) error {
	n := len(t.Left)
	if n == 0 {
		return errors.New("empty tree")
	}
	if len(t.Right) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return errors.New("node arrays differ in length")
	}
	for i := 0; i < n; i++ {
		if t.Left[i] == -1 {
			if len(t.Value[i]) != nClasses {
				return fmt.Errorf("node %d: %d class weights, want %d", i, len(t.Value[i]), nClasses)
			}
			continue
		}
		if t.Left[i] <= i || t.Left[i] >= n || t.Right[i] <= i || t.Right[i] >= n {
			return fmt.Errorf("node %d: child index out of range", i)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= nFeatures {
			return fmt.Errorf("node %d: feature %d out of range", i, t.Feature[i])
		}
	}
	return nil
}

// proba returns the normalized class distribution of the leaf x falls into.
func (t *Tree) proba(x []float64) []float64 {
	i := 0
	for t.Left[i] != -1 {
		if x[t.Feature[i]] <= t.Threshold[i] {
			i = t.Left[i]
		} else {
			i = t.Right[i]
		}
	}
	w := t.Value[i]
	var sum float64
	for _, v := range w {
		sum += v
	}
	out := make([]float64, len(w))
	if sum == 0 {
		return out
	}
	for c, v := range w {
		out[c] = v / sum
	}
	return out
}

// Forest averages the class distributions of its trees and predicts the
// class with the highest mean probability; ties go to the first class.
type Forest struct {
	Trees    []Tree
	Classes  []int
	Features int
}

func (m *Forest) NumFeatures() int { return m.Features }

func (m *Forest) Predict(x []float64) (int, error) {
	if err := checkShape(x, m.Features); err != nil {
		return 0, err
	}
	mean := make([]float64, len(m.Classes))
	for i := range m.Trees {
		for c, p := range m.Trees[i].proba(x) {
			mean[c] += p
		}
	}
	best := 0
	for c := 1; c < len(mean); c++ {
		if mean[c] > mean[best] {
			best = c
		}
	}
	return m.Classes[best], nil
}

// StandardScaler centers and scales each feature: (x - mean) / scale.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

func (s *StandardScaler) NumFeatures() int { return len(s.Mean) }

func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if err := checkShape(x, len(s.Mean)); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, v := range x {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
	}
	return out, nil
}
