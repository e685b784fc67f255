package domain

import "strings"

// InputUnit is one logical, self-contained piece of source text submitted to
// the engine. It is built incrementally by the input accumulator and is
// complete only when grouping delimiters balance and no quoted region is open.
type InputUnit struct {
	// Source is the raw text, lines joined with "\n".
	Source string

	// Lines is the number of raw lines that were accumulated.
	Lines int
}

// NewInputUnit creates a unit from already complete source text.
func NewInputUnit(source string) InputUnit {
	return InputUnit{Source: source, Lines: strings.Count(source, "\n") + 1}
}

// IsBlank reports whether the unit carries nothing but whitespace.
func (u InputUnit) IsBlank() bool {
	return strings.TrimSpace(u.Source) == ""
}

func (u InputUnit) String() string {
	return u.Source
}
