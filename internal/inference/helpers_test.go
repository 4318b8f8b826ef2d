package inference

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Skufu/medpredict/internal/artifact"
	"github.com/Skufu/medpredict/internal/schema"
)

func diabetesInput() map[string]string {
	return map[string]string{
		"Pregnancies":              "3",
		"Glucose":                  "90",
		"BloodPressure":            "60",
		"SkinThickness":            "25",
		"Insulin":                  "120",
		"BMI":                      "22",
		"DiabetesPedigreeFunction": "1.2",
		"Age":                      "21",
	}
}

func heartInput() map[string]string {
	return map[string]string{
		"Age":      "52",
		"Gender":   "Male (1)",
		"cp":       "Atypical Angina (1)",
		"trestbps": "125",
		"chol":     "212",
		"fbs":      "No (0)",
		"restecg":  "ST-T Abnormality (1)",
		"thalach":  "168",
		"exang":    "No (0)",
		"oldpeak":  "1.0",
		"slope":    "Downsloping (2)",
		"ca":       "2",
		"thal":     "Reversible Defect (3)",
	}
}

func kidneyInput() map[string]string {
	return map[string]string{
		"age": "40", "bp": "80", "sg": "1.020", "al": "0", "su": "0",
		"rbc": "normal (1)", "pc": "normal (1)", "pcc": "notpresent (0)", "ba": "notpresent (0)",
		"bgr": "110", "bu": "30", "sc": "0.9", "sod": "140", "pot": "4.5",
		"hemo": "15.0", "pcv": "45", "wc": "7500", "rc": "5.2",
		"htn": "no (0)", "dm": "no (0)", "cad": "no (0)", "appet": "good (0)",
		"pe": "no (0)", "ane": "no (0)",
	}
}

func inputFor(d schema.Domain) map[string]string {
	switch d {
	case schema.Diabetes:
		return diabetesInput()
	case schema.Heart:
		return heartInput()
	default:
		return kidneyInput()
	}
}

func bundledRegistry(t *testing.T) *artifact.Registry {
	t.Helper()
	reg, err := artifact.Load("../../models")
	require.NoError(t, err)
	return reg
}

// stubModel returns a fixed label, or err when set.
type stubModel struct {
	n     int
	label int
	err   error
	seen  []float64
}

func (m *stubModel) NumFeatures() int { return m.n }

func (m *stubModel) Predict(x []float64) (int, error) {
	m.seen = append([]float64(nil), x...)
	return m.label, m.err
}

type failingScaler struct{ n int }

func (s failingScaler) NumFeatures() int { return s.n }

func (s failingScaler) Transform([]float64) ([]float64, error) {
	return nil, errors.New("scaler exploded")
}

type identityScaler struct{ n int }

func (s identityScaler) NumFeatures() int { return s.n }

func (s identityScaler) Transform(x []float64) ([]float64, error) {
	return append([]float64(nil), x...), nil
}

// stubRegistry registers stub models for every domain, with overrides.
// Scaled domains get an identity scaler unless the override brings one.
func stubRegistry(t *testing.T, overrides map[schema.Domain]artifact.Entry) *artifact.Registry {
	t.Helper()
	entries := make(map[schema.Domain]artifact.Entry)
	for _, d := range schema.Domains {
		entries[d] = artifact.Entry{Model: &stubModel{n: schema.For(d).Len()}}
	}
	for d, e := range overrides {
		entries[d] = e
	}
	for d, e := range entries {
		if s := schema.For(d); s.Scaled && e.Scaler == nil {
			e.Scaler = identityScaler{n: s.Len()}
			entries[d] = e
		}
	}
	reg, err := artifact.NewRegistry(entries)
	require.NoError(t, err)
	return reg
}
