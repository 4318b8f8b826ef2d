package inference

import (
	"fmt"

	"github.com/Skufu/medpredict/internal/schema"
)

// ParseChoice turns a form label such as "Male (1)" into a typed choice for
// field f. The inline hint is dropped; only the label decides the code.
func ParseChoice(f schema.FieldSpec, raw string) (schema.Choice, error) {
	if f.Table == nil {
		return schema.Choice{}, fmt.Errorf("field %s is not categorical", f.Name)
	}
	c, ok := f.Table.Choose(schema.StripHint(raw))
	if !ok {
		return schema.Choice{}, &UnknownCategoryError{Field: f.Name, Label: raw}
	}
	return c, nil
}

// Encode returns the model code of a choice.
func Encode(c schema.Choice) float64 {
	return float64(c.Code())
}

// EncodeLabel parses and encodes a raw label in one step.
func EncodeLabel(f schema.FieldSpec, raw string) (float64, error) {
	c, err := ParseChoice(f, raw)
	if err != nil {
		return 0, err
	}
	return Encode(c), nil
}
