package inference

import (
	"fmt"

	"github.com/Skufu/medpredict/internal/schema"
)

// Verdict is the outcome of one prediction. Positive is true when the message
// reports the disease as present.
type Verdict struct {
	Domain   schema.Domain `json:"domain"`
	Label    int           `json:"label"`
	Positive bool          `json:"positive"`
	Message  string        `json:"message"`
}

type phrasing struct {
	msg      string
	positive bool
}

// verdicts is indexed by domain and label. Heart and kidney wording is kept
// verbatim pending clinical review of the label polarity.
var verdicts = map[schema.Domain][2]phrasing{
	schema.Diabetes: {
		{"The person does not have diabetes.", false},
		{"The person has diabetes.", true},
	},
	schema.Heart: {
		{"This person is unlikely to have heart disease.", false},
		{"This person is likely to have Not heart disease.", false},
	},
	schema.Kidney: {
		{"The person has chronic kidney disease.", true},
		{"The person does not have chronic kidney disease.", false},
	},
}

// Interpret maps a model label to the domain's verdict.
func Interpret(d schema.Domain, label int) (Verdict, error) {
	table, ok := verdicts[d]
	if !ok {
		return Verdict{}, fmt.Errorf("no verdicts for %s", d)
	}
	if label != 0 && label != 1 {
		return Verdict{}, &InferenceError{Domain: d, Err: fmt.Errorf("label %d is not binary", label)}
	}
	p := table[label]
	return Verdict{Domain: d, Label: label, Positive: p.positive, Message: p.msg}, nil
}
