package artifact

import (
	"fmt"

	"github.com/Skufu/medpredict/internal/schema"
)

// Entry holds the artifacts serving one domain. Scaler is nil when the
// domain's model was trained on raw features.
type Entry struct {
	Model  Model
	Scaler Scaler

	ModelKind     Kind
	ModelVersion  string
	ScalerVersion string
}

// Registry owns the artifacts of every domain. It is built once at startup
// and never mutated afterwards, so it is safe for concurrent readers.
type Registry struct {
	entries map[schema.Domain]Entry
}

// NewRegistry validates entries against the domain schemas and returns an
// immutable registry. Every domain must have a model, a scaler exactly when
// its schema is scaled, and each artifact's feature count must equal the
// schema length.
func NewRegistry(entries map[schema.Domain]Entry) (*Registry, error) {
	r := &Registry{entries: make(map[schema.Domain]Entry, len(entries))}
	for _, d := range schema.Domains {
		e, ok := entries[d]
		if !ok || e.Model == nil {
			return nil, fmt.Errorf("artifact: no model registered for %s", d)
		}
		s := schema.For(d)
		want := s.Len()
		if got := e.Model.NumFeatures(); got != want {
			return nil, fmt.Errorf("artifact: %s model expects %d features, schema has %d", d, got, want)
		}
		switch {
		case s.Scaled && e.Scaler == nil:
			return nil, fmt.Errorf("artifact: %s model requires a scaler", d)
		case !s.Scaled && e.Scaler != nil:
			return nil, fmt.Errorf("artifact: %s model takes raw features, scaler not allowed", d)
		}
		if e.Scaler != nil {
			if got := e.Scaler.NumFeatures(); got != want {
				return nil, fmt.Errorf("artifact: %s scaler expects %d features, schema has %d", d, got, want)
			}
		}
		r.entries[d] = e
	}
	for d := range entries {
		if !d.Valid() {
			return nil, fmt.Errorf("artifact: unknown domain %s", d)
		}
	}
	return r, nil
}

// Model returns the classifier for d.
func (r *Registry) Model(d schema.Domain) (Model, bool) {
	e, ok := r.entries[d]
	if !ok {
		return nil, false
	}
	return e.Model, true
}

// Scaler returns the scaler for d, or false if the domain has none.
func (r *Registry) Scaler(d schema.Domain) (Scaler, bool) {
	e, ok := r.entries[d]
	if !ok || e.Scaler == nil {
		return nil, false
	}
	return e.Scaler, true
}

// Info describes the artifacts of one domain.
type Info struct {
	Domain        schema.Domain `json:"domain"`
	ModelKind     Kind          `json:"model_kind"`
	ModelVersion  string        `json:"model_version"`
	Scaled        bool          `json:"scaled"`
	ScalerVersion string        `json:"scaler_version,omitempty"`
}

// Describe lists artifact metadata for every domain in display order.
func (r *Registry) Describe() []Info {
	out := make([]Info, 0, len(r.entries))
	for _, d := range schema.Domains {
		e := r.entries[d]
		out = append(out, Info{
			Domain:        d,
			ModelKind:     e.ModelKind,
			ModelVersion:  e.ModelVersion,
			Scaled:        e.Scaler != nil,
			ScalerVersion: e.ScalerVersion,
		})
	}
	return out
}
