package dataset

import (
	"fmt"
	"strings"
)

// Kind is the value type of an attribute.
type Kind int

const (
	// Numeric attributes hold real values and may act as predictors.
	Numeric Kind = iota
	// Nominal attributes hold category indices into Attribute.Values.
	Nominal
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Nominal:
		return "nominal"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Attribute describes one column of an example table.
//
// Nominal values are stored as float64 category indices. For a two-class
// nominal attribute, index 0 is the negative and index 1 the positive class.
type Attribute struct {
	Name   string
	Kind   Kind
	Values []string
}

// NumericAttribute returns a numeric attribute called name.
func NumericAttribute(name string) Attribute {
	return Attribute{Name: name, Kind: Numeric}
}

// NominalAttribute returns a nominal attribute with the given categories.
func NominalAttribute(name string, values ...string) Attribute {
	return Attribute{Name: name, Kind: Nominal, Values: append([]string(nil), values...)}
}

// IsNumeric reports whether the attribute is numeric.
func (a Attribute) IsNumeric() bool { return a.Kind == Numeric }

// IsBinominal reports whether the attribute is nominal with exactly two classes.
func (a Attribute) IsBinominal() bool { return a.Kind == Nominal && len(a.Values) == 2 }

// NegativeClass returns the category mapped to 0.
func (a Attribute) NegativeClass() string {
	if len(a.Values) == 0 {
		return ""
	}
	return a.Values[0]
}

// PositiveClass returns the category mapped to 1.
func (a Attribute) PositiveClass() string {
	if len(a.Values) < 2 {
		return ""
	}
	return a.Values[1]
}

// IndexOf returns the category index of value, or -1.
func (a Attribute) IndexOf(value string) int {
	for i, v := range a.Values {
		if v == value {
			return i
		}
	}
	return -1
}

func (a Attribute) String() string {
	if a.Kind == Nominal {
		return fmt.Sprintf("%s{%s}", a.Name, strings.Join(a.Values, ","))
	}
	return a.Name
}
