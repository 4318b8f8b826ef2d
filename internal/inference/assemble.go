package inference

import (
	"github.com/Skufu/medpredict/internal/schema"
)

// FeatureVector is the ordered model input of one domain.
type FeatureVector []float64

// Assemble places every value at its schema position. All schema fields must
// be present; otherwise no vector is produced and the error names the
// missing fields in schema order.
func Assemble(d schema.Domain, values map[string]float64) (FeatureVector, error) {
	s := schema.For(d)
	vec := make(FeatureVector, s.Len())
	var missing []string
	for _, f := range s.Fields {
		v, ok := values[f.Name]
		if !ok {
			missing = append(missing, f.Name)
			continue
		}
		vec[f.Position] = v
	}
	if len(missing) > 0 {
		return nil, &IncompleteInputError{Domain: d, Missing: missing}
	}
	return vec, nil
}
