package schema

import (
	"fmt"
	"math"
)

// Kind distinguishes free-text numeric fields from labelled choices.
type Kind string

const (
	Numeric     Kind = "numeric"
	Categorical Kind = "categorical"
)

// Range is the advisory interval shown next to a numeric field.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v falls inside the closed interval.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

func (r Range) String() string {
	return fmt.Sprintf("%g - %g", r.Min, r.Max)
}

// FieldSpec describes one model input.
type FieldSpec struct {
	Name     string
	Kind     Kind
	Position int
	Label    string
	Unit     string
	Example  string

	// Range is nil for numeric fields the form leaves unbounded.
	Range *Range
	// Table is set for categorical fields only.
	Table *CodeTable
}

// Schema is the ordered field list of one domain.
type Schema struct {
	Domain Domain
	Fields []FieldSpec
	// Scaled is set when the domain's model was trained on standardized
	// features and must be served with a scaler.
	Scaled bool

	byName map[string]int
}

// Len is the feature vector length the domain's model expects.
func (s *Schema) Len() int { return len(s.Fields) }

// Field returns the spec for name.
func (s *Schema) Field(name string) (FieldSpec, bool) {
	i, ok := s.byName[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.Fields[i], true
}

// Validate checks that positions form a permutation of 0..N-1, names are
// unique, and every categorical field has a well formed table.
func (s *Schema) Validate() error {
	n := len(s.Fields)
	seenPos := make([]bool, n)
	seenName := make(map[string]struct{}, n)
	for _, f := range s.Fields {
		if f.Position < 0 || f.Position >= n {
			return fmt.Errorf("%s: field %s position %d outside 0..%d", s.Domain, f.Name, f.Position, n-1)
		}
		if seenPos[f.Position] {
			return fmt.Errorf("%s: duplicate position %d", s.Domain, f.Position)
		}
		seenPos[f.Position] = true

		if _, dup := seenName[f.Name]; dup {
			return fmt.Errorf("%s: duplicate field %s", s.Domain, f.Name)
		}
		seenName[f.Name] = struct{}{}

		switch f.Kind {
		case Numeric:
			if f.Table != nil {
				return fmt.Errorf("%s: numeric field %s has a code table", s.Domain, f.Name)
			}
			if f.Range != nil && (math.IsNaN(f.Range.Min) || f.Range.Min > f.Range.Max) {
				return fmt.Errorf("%s: field %s has invalid range %s", s.Domain, f.Name, f.Range)
			}
		case Categorical:
			if f.Table == nil || len(f.Table.entries) == 0 {
				return fmt.Errorf("%s: categorical field %s has no code table", s.Domain, f.Name)
			}
			if err := f.Table.validate(); err != nil {
				return fmt.Errorf("%s: %w", s.Domain, err)
			}
		default:
			return fmt.Errorf("%s: field %s has unknown kind %q", s.Domain, f.Name, f.Kind)
		}
	}
	return nil
}

// For returns the schema of d. It panics on an invalid domain, which can only
// come from a programming error since domains are parsed at the boundary.
func For(d Domain) *Schema {
	s, ok := registry[d]
	if !ok {
		panic(fmt.Sprintf("schema: no schema for %s", d))
	}
	return s
}

var registry = map[Domain]*Schema{
	Diabetes: build(Diabetes, true, diabetesFields()),
	Heart:    build(Heart, false, heartFields()),
	Kidney:   build(Kidney, true, kidneyFields()),
}

func build(d Domain, scaled bool, fields []FieldSpec) *Schema {
	s := &Schema{Domain: d, Fields: fields, Scaled: scaled, byName: make(map[string]int, len(fields))}
	for i, f := range fields {
		s.byName[f.Name] = i
	}
	if err := s.Validate(); err != nil {
		panic(err)
	}
	return s
}

// fieldList assigns positions in declaration order.
type fieldList []FieldSpec

func (l *fieldList) num(name, label, unit, example string, r *Range) {
	*l = append(*l, FieldSpec{Name: name, Kind: Numeric, Position: len(*l), Label: label, Unit: unit, Example: example, Range: r})
}

func (l *fieldList) cat(name, label string, codes ...Code) {
	*l = append(*l, FieldSpec{Name: name, Kind: Categorical, Position: len(*l), Label: label, Table: newCodeTable(name, codes...)})
}

func rng(lo, hi float64) *Range { return &Range{Min: lo, Max: hi} }

var (
	yesNo      = []Code{{"Yes", 1}, {"No", 0}}
	noYes      = []Code{{"no", 0}, {"yes", 1}}
	normalAbn  = []Code{{"abnormal", 0}, {"normal", 1}}
	presentAbs = []Code{{"notpresent", 0}, {"present", 1}}
)

func diabetesFields() []FieldSpec {
	var l fieldList
	l.num("Pregnancies", "Pregnancies", "", "3", nil)
	l.num("Glucose", "Blood Glucose Level", "mg/dL", "90", rng(70, 320))
	l.num("BloodPressure", "Blood Pressure", "mmHg", "60", rng(40, 180))
	l.num("SkinThickness", "Skin Thickness", "mm", "25", rng(1, 100))
	l.num("Insulin", "Insulin Level", "µU/mL", "120", rng(0, 900))
	l.num("BMI", "Body Mass Index", "", "22", rng(5, 100))
	l.num("DiabetesPedigreeFunction", "Diabetes Pedigree Function", "", "1.2", rng(0.1, 2.5))
	l.num("Age", "Age", "years", "21", rng(10, 100))
	return l
}

func heartFields() []FieldSpec {
	var l fieldList
	l.num("Age", "Age", "years", "20", rng(20, 100))
	l.cat("Gender", "Gender", Code{"Male", 1}, Code{"Female", 0})
	l.cat("cp", "Chest Pain Type",
		Code{"Typical Angina", 0}, Code{"Atypical Angina", 1}, Code{"Non-anginal", 2}, Code{"Asymptomatic", 3})
	l.num("trestbps", "Resting Blood Pressure", "mm Hg", "120", rng(90, 220))
	l.num("chol", "Cholesterol", "mg/dL", "224", rng(120, 600))
	l.cat("fbs", "Fasting Blood Sugar", yesNo...)
	l.cat("restecg", "Resting ECG",
		Code{"Normal", 0}, Code{"ST-T Abnormality", 1}, Code{"Left Ventricular Hypertrophy", 2})
	l.num("thalach", "Max Heart Rate Achieved", "bpm", "130", rng(70, 220))
	l.cat("exang", "Exercise Induced Angina", yesNo...)
	l.num("oldpeak", "Oldpeak", "", "3.1", rng(0, 7))
	l.cat("slope", "Slope of ST Segment", Code{"Upsloping", 0}, Code{"Flat", 1}, Code{"Downsloping", 2})
	l.num("ca", "Number of Major Vessels", "", "2", rng(0, 3))
	l.cat("thal", "Thal",
		Code{"Unknown", 0}, Code{"Normal", 1}, Code{"Fixed Defect", 2}, Code{"Reversible Defect", 3})
	return l
}

func kidneyFields() []FieldSpec {
	var l fieldList
	l.num("age", "Age", "years", "45", rng(2, 90))
	l.num("bp", "Blood Pressure", "mm Hg", "80", rng(50, 180))
	l.num("sg", "Specific Gravity", "", "1.015", rng(1.005, 1.025))
	l.num("al", "Albumin", "", "1", rng(0, 5))
	l.num("su", "Sugar", "", "0", rng(0, 5))
	l.cat("rbc", "Red Blood Cells", normalAbn...)
	l.cat("pc", "Pus Cell", normalAbn...)
	l.cat("pcc", "Pus Cell Clumps", presentAbs...)
	l.cat("ba", "Bacteria", presentAbs...)
	l.num("bgr", "Blood Glucose Random", "mgs/dl", "121", rng(20, 500))
	l.num("bu", "Blood Urea", "mgs/dl", "44.5", rng(1.5, 391))
	l.num("sc", "Serum Creatinine", "mgs/dl", "1.2", rng(0.4, 76))
	l.num("sod", "Sodium", "mEq/L", "135", rng(4.5, 163))
	l.num("pot", "Potassium", "mEq/L", "4.6", rng(2.5, 47))
	l.num("hemo", "Hemoglobin", "gms", "13.5", rng(3.1, 17.8))
	l.num("pcv", "Packed Cell Volume", "", "38", rng(9, 54))
	l.num("wc", "White Blood Cell Count", "cells/cumm", "8000", rng(2200, 26400))
	l.num("rc", "Red Blood Cell Count", "millions/cmm", "4.5", rng(2.1, 9.2))
	l.cat("htn", "Hypertension", noYes...)
	l.cat("dm", "Diabetes Mellitus", noYes...)
	l.cat("cad", "Coronary Artery Disease", noYes...)
	l.cat("appet", "Appetite", Code{"good", 0}, Code{"poor", 1})
	l.cat("pe", "Pedal Edema", noYes...)
	l.cat("ane", "Anemia", noYes...)
	return l
}
