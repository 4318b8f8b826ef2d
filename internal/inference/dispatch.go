package inference

import (
	"errors"
	"fmt"

	"github.com/Skufu/medpredict/internal/artifact"
	"github.com/Skufu/medpredict/internal/schema"
)

var errNoArtifact = errors.New("no artifact registered")

// Dispatcher routes a feature vector to the model of its domain. It holds
// read-only references only and is safe for concurrent use.
type Dispatcher struct {
	reg *artifact.Registry
}

func NewDispatcher(reg *artifact.Registry) *Dispatcher {
	return &Dispatcher{reg: reg}
}

// Dispatch returns the binary label predicted for v.
func (d *Dispatcher) Dispatch(domain schema.Domain, v FeatureVector) (int, error) {
	m, ok := d.reg.Model(domain)
	if !ok {
		return 0, &InferenceError{Domain: domain, Err: errNoArtifact}
	}
	label, err := m.Predict(v)
	if err != nil {
		return 0, &InferenceError{Domain: domain, Err: err}
	}
	if label != 0 && label != 1 {
		return 0, &InferenceError{Domain: domain, Err: fmt.Errorf("label %d is not binary", label)}
	}
	return label, nil
}
