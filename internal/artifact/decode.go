package artifact

import (
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Kind names the concrete artifact type stored in a document.
type Kind string

const (
	KindLogistic       Kind = "logistic"
	KindForest         Kind = "forest"
	KindStandardScaler Kind = "standard_scaler"
)

// document is the on-disk form of every artifact kind. JSON documents are
// accepted as well since YAML is a superset.
type document struct {
	Kind      Kind      `yaml:"kind"`
	Version   string    `yaml:"version"`
	NFeatures int       `yaml:"n_features"`
	Coef      []float64 `yaml:"coef"`
	Intercept float64   `yaml:"intercept"`
	Classes   []int     `yaml:"classes"`
	Trees     []Tree    `yaml:"trees"`
	Mean      []float64 `yaml:"mean"`
	Scale     []float64 `yaml:"scale"`
}

// Decoded is a parsed artifact together with its metadata.
type Decoded struct {
	Kind    Kind
	Version string
	Model   Model
	Scaler  Scaler
}

// Decode parses one serialized artifact and validates its internal consistency.
func Decode(b []byte) (*Decoded, error) {
	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse artifact: %w", err)
	}
	if doc.NFeatures <= 0 {
		return nil, errors.New("artifact: n_features must be positive")
	}

	out := &Decoded{Kind: doc.Kind, Version: doc.Version}
	switch doc.Kind {
	case KindLogistic:
		if len(doc.Coef) != doc.NFeatures {
			return nil, fmt.Errorf("artifact: %d coefficients for %d features", len(doc.Coef), doc.NFeatures)
		}
		if !finite(doc.Coef...) || !finite(doc.Intercept) {
			return nil, errors.New("artifact: non-finite coefficient")
		}
		out.Model = &Logistic{Coef: doc.Coef, Intercept: doc.Intercept}

	case KindForest:
		classes := doc.Classes
		if len(classes) == 0 {
			classes = []int{0, 1}
		}
		if len(doc.Trees) == 0 {
			return nil, errors.New("artifact: forest has no trees")
		}
		for i := range doc.Trees {
			if err := doc.Trees[i].validate(doc.NFeatures, len(classes)); err != nil {
				return nil, fmt.Errorf("artifact: tree %d: %w", i, err)
			}
		}
		out.Model = &Forest{Trees: doc.Trees, Classes: classes, Features: doc.NFeatures}

	case KindStandardScaler:
		if len(doc.Mean) != doc.NFeatures || len(doc.Scale) != doc.NFeatures {
			return nil, fmt.Errorf("artifact: scaler has %d means and %d scales for %d features",
				len(doc.Mean), len(doc.Scale), doc.NFeatures)
		}
		if !finite(doc.Mean...) || !finite(doc.Scale...) {
			return nil, errors.New("artifact: non-finite scaler parameter")
		}
		out.Scaler = &StandardScaler{Mean: doc.Mean, Scale: doc.Scale}

	case "":
		return nil, errors.New("artifact: missing kind")
	default:
		return nil, fmt.Errorf("artifact: unsupported kind %q", doc.Kind)
	}
	return out, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
