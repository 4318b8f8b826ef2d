package inference

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/Skufu/medpredict/internal/schema"
)

var errNotFinite = errors.New("value is not finite")

// ParseNumeric converts the raw text of a numeric field to a float.
func ParseNumeric(f schema.FieldSpec, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &ParseError{Field: f.Name, Raw: raw, Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ParseError{Field: f.Name, Raw: raw, Err: errNotFinite}
	}
	return v, nil
}

// CheckRange rejects values outside the field's advisory range. Fields
// without a documented range accept any value.
func CheckRange(f schema.FieldSpec, v float64) error {
	if f.Range == nil || f.Range.Contains(v) {
		return nil
	}
	return &RangeError{Field: f.Name, Value: v, Range: *f.Range}
}
