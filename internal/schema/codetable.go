package schema

import (
	"fmt"
	"strings"
)

// Code is one label of a categorical field and the integer the model was trained on.
type Code struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// CodeTable maps labels to canonical codes for a single categorical field.
// Entries keep their declaration order so the form can present them as-is.
type CodeTable struct {
	field   string
	entries []Code
}

func newCodeTable(field string, entries ...Code) *CodeTable {
	return &CodeTable{field: field, entries: entries}
}

// Entries returns a copy of the table in presentation order.
func (t *CodeTable) Entries() []Code {
	out := make([]Code, len(t.entries))
	copy(out, t.entries)
	return out
}

// Choose builds a typed Choice for label, or reports false if the table has
// no such entry. Matching ignores case and surrounding whitespace; there is
// no fallback value.
func (t *CodeTable) Choose(label string) (Choice, bool) {
	label = strings.TrimSpace(label)
	for _, e := range t.entries {
		if strings.EqualFold(e.Label, label) {
			return Choice{field: t.field, label: e.Label, code: e.Value}, true
		}
	}
	return Choice{}, false
}

func (t *CodeTable) validate() error {
	seen := make(map[string]struct{}, len(t.entries))
	for _, e := range t.entries {
		k := strings.ToLower(e.Label)
		if _, dup := seen[k]; dup {
			return fmt.Errorf("field %s: duplicate label %q", t.field, e.Label)
		}
		seen[k] = struct{}{}
	}
	return nil
}

// Choice is a validated categorical selection. The zero value is not a valid
// selection; values only come from CodeTable.Choose.
type Choice struct {
	field string
	label string
	code  int
}

func (c Choice) Label() string { return c.label }
func (c Choice) Code() int     { return c.code }

// StripHint removes an inline code hint from a form label:
// "Atypical Angina (1)" becomes "Atypical Angina".
func StripHint(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "("); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}
