package inference

import (
	"fmt"

	"github.com/Skufu/medpredict/internal/artifact"
	"github.com/Skufu/medpredict/internal/schema"
)

// ScalerAdapter applies a domain's scaler, or returns the vector unchanged
// when the domain's model was trained on raw features.
type ScalerAdapter struct {
	reg *artifact.Registry
}

func NewScalerAdapter(reg *artifact.Registry) *ScalerAdapter {
	return &ScalerAdapter{reg: reg}
}

// Scale never mutates v.
func (a *ScalerAdapter) Scale(d schema.Domain, v FeatureVector) (FeatureVector, error) {
	sc, ok := a.reg.Scaler(d)
	if !ok {
		out := make(FeatureVector, len(v))
		copy(out, v)
		return out, nil
	}
	out, err := sc.Transform(v)
	if err != nil {
		return nil, &InferenceError{Domain: d, Err: fmt.Errorf("scale: %w", err)}
	}
	return out, nil
}
