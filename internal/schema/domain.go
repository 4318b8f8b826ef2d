// Package schema describes the fixed input contract of each prediction domain:
// which fields a domain expects, in which order its classifier consumes them,
// and how categorical labels map to integer codes.
//
// Schemas are contracts with the trained artifacts, not configuration. Callers
// may read them but never reorder or extend them.
package schema

import (
	"fmt"
	"strings"
)

// Domain identifies one of the disease prediction contexts.
type Domain int

const (
	Diabetes Domain = iota
	Heart
	Kidney
)

// Domains lists every supported domain in display order.
var Domains = []Domain{Diabetes, Heart, Kidney}

func (d Domain) String() string {
	switch d {
	case Diabetes:
		return "diabetes"
	case Heart:
		return "heart"
	case Kidney:
		return "kidney"
	default:
		return fmt.Sprintf("domain(%d)", int(d))
	}
}

// Title is the human readable name used by the form layer.
func (d Domain) Title() string {
	switch d {
	case Diabetes:
		return "Diabetes Prediction"
	case Heart:
		return "Heart Disease Prediction"
	case Kidney:
		return "Kidney Disease Prediction"
	default:
		return d.String()
	}
}

// Valid reports whether d is one of the known domains.
func (d Domain) Valid() bool {
	return d >= Diabetes && d <= Kidney
}

// ParseDomain resolves a domain name such as "heart" (case-insensitive).
func ParseDomain(s string) (Domain, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "diabetes":
		return Diabetes, nil
	case "heart":
		return Heart, nil
	case "kidney":
		return Kidney, nil
	}
	return 0, fmt.Errorf("unknown domain %q", s)
}

// MarshalText encodes the domain by name.
func (d Domain) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid domain %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes a domain name, so domains can be used as YAML and JSON keys.
func (d *Domain) UnmarshalText(b []byte) error {
	v, err := ParseDomain(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
