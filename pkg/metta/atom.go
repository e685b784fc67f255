package metta

import (
	"fmt"
	"strconv"
	"strings"
)

// Atom is the unit of data and code of the language.
type Atom interface {
	String() string
	isAtom()
}

// Symbol is a named constant.
type Symbol struct {
	Name string
}

// Variable is a pattern variable, written $name.
type Variable struct {
	Name string
}

// Expression is an ordered list of atoms.
type Expression struct {
	Children []Atom
}

// Number is a grounded integer or float.
type Number struct {
	Int     int64
	Float   float64
	IsFloat bool
}

// String is a grounded string literal.
type String struct {
	Value string
}

// Bool is a grounded boolean.
type Bool struct {
	Value bool
}

// SpaceRef is a grounded reference to an atom space.
type SpaceRef struct {
	Space *Space
}

// OpFunc implements a grounded operation.
type OpFunc func(c *Call) ([]Atom, error)

// Operation is a grounded executable atom.
//
// Lazy operations receive their arguments unevaluated. Tail operations hand
// their results back to the interpreter for further reduction instead of
// returning final values.
type Operation struct {
	Name string
	Lazy bool
	Tail bool
	Fn   OpFunc
}

func (Symbol) isAtom()     {}
func (Variable) isAtom()   {}
func (Expression) isAtom() {}
func (Number) isAtom()     {}
func (String) isAtom()     {}
func (Bool) isAtom()       {}
func (SpaceRef) isAtom()   {}
func (*Operation) isAtom() {}

func (s Symbol) String() string   { return s.Name }
func (v Variable) String() string { return "$" + v.Name }

func (e Expression) String() string {
	parts := make([]string, len(e.Children))
	for i, c := range e.Children {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func (n Number) String() string {
	if n.IsFloat {
		return strconv.FormatFloat(n.Float, 'g', -1, 64)
	}
	return strconv.FormatInt(n.Int, 10)
}

func (s String) String() string { return strconv.Quote(s.Value) }

func (b Bool) String() string {
	if b.Value {
		return "True"
	}
	return "False"
}

func (s SpaceRef) String() string  { return fmt.Sprintf("GroundingSpace-%p", s.Space) }
func (o *Operation) String() string { return o.Name }

// Sym, Var and Expr are construction helpers.
func Sym(name string) Symbol { return Symbol{Name: name} }
func Var(name string) Variable { return Variable{Name: name} }
func Expr(children ...Atom) Expression {
	return Expression{Children: children}
}

// Int and Float build grounded numbers.
func Int(v int64) Number     { return Number{Int: v} }
func Float(v float64) Number { return Number{Float: v, IsFloat: true} }

var (
	// Empty is the unit expression ().
	Empty = Expr()
	// ErrorSymbol heads error expressions.
	ErrorSymbol = Sym("Error")
	// VoidSymbol is matched by case when its scrutinee yields nothing.
	VoidSymbol = Sym("%void%")
	// ExecSymbol marks the next atom for interpretation.
	ExecSymbol = Sym("!")
)

// ErrorAtom builds (Error atom message).
func ErrorAtom(atom Atom, msg string) Expression {
	return Expr(ErrorSymbol, atom, Sym(msg))
}

// Equal reports structural equality.
func Equal(a, b Atom) bool {
	switch x := a.(type) {
	case Symbol:
		y, ok := b.(Symbol)
		return ok && x.Name == y.Name
	case Variable:
		y, ok := b.(Variable)
		return ok && x.Name == y.Name
	case Expression:
		y, ok := b.(Expression)
		if !ok || len(x.Children) != len(y.Children) {
			return false
		}
		for i := range x.Children {
			if !Equal(x.Children[i], y.Children[i]) {
				return false
			}
		}
		return true
	case Number:
		y, ok := b.(Number)
		if !ok {
			return false
		}
		if x.IsFloat || y.IsFloat {
			return x.float() == y.float()
		}
		return x.Int == y.Int
	case String:
		y, ok := b.(String)
		return ok && x.Value == y.Value
	case Bool:
		y, ok := b.(Bool)
		return ok && x.Value == y.Value
	case SpaceRef:
		y, ok := b.(SpaceRef)
		return ok && x.Space == y.Space
	case *Operation:
		y, ok := b.(*Operation)
		return ok && x == y
	}
	return false
}

func (n Number) float() float64 {
	if n.IsFloat {
		return n.Float
	}
	return float64(n.Int)
}

// Render formats a result list the way the shell prints it: [a, b].
func Render(atoms []Atom) string {
	parts := make([]string, len(atoms))
	for i, a := range atoms {
		parts[i] = a.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Strings renders every atom.
func Strings(atoms []Atom) []string {
	out := make([]string, len(atoms))
	for i, a := range atoms {
		out[i] = a.String()
	}
	return out
}
