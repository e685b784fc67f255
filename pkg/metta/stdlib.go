package metta

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

func arity(c *Call, n int) error {
	if len(c.Args) != n {
		return fmt.Errorf("expected %d arguments, got %d", n, len(c.Args))
	}
	return nil
}

func asNumber(a Atom) (Number, error) {
	n, ok := a.(Number)
	if !ok {
		return Number{}, fmt.Errorf("%s is not a number", a)
	}
	return n, nil
}

func asBool(a Atom) (bool, error) {
	b, ok := a.(Bool)
	if !ok {
		return false, fmt.Errorf("%s is not a boolean", a)
	}
	return b.Value, nil
}

func asSpace(a Atom) (*Space, error) {
	s, ok := a.(SpaceRef)
	if !ok {
		return nil, fmt.Errorf("%s is not a space", a)
	}
	return s.Space, nil
}

func arith(name string, ints func(a, b int64) (int64, error), floats func(a, b float64) float64) *Operation {
	return &Operation{Name: name, Fn: func(c *Call) ([]Atom, error) {
		if err := arity(c, 2); err != nil {
			return nil, err
		}
		x, err := asNumber(c.Args[0])
		if err != nil {
			return nil, err
		}
		y, err := asNumber(c.Args[1])
		if err != nil {
			return nil, err
		}
		if !x.IsFloat && !y.IsFloat && ints != nil {
			v, err := ints(x.Int, y.Int)
			if err != nil {
				return nil, err
			}
			return []Atom{Int(v)}, nil
		}
		return []Atom{Float(floats(x.float(), y.float()))}, nil
	}}
}

func compare(name string, cmp func(a, b float64) bool) *Operation {
	return &Operation{Name: name, Fn: func(c *Call) ([]Atom, error) {
		if err := arity(c, 2); err != nil {
			return nil, err
		}
		x, err := asNumber(c.Args[0])
		if err != nil {
			return nil, err
		}
		y, err := asNumber(c.Args[1])
		if err != nil {
			return nil, err
		}
		return []Atom{Bool{Value: cmp(x.float(), y.float())}}, nil
	}}
}

var errDivByZero = errors.New("division by zero")

func arithmeticOps() []*Operation {
	return []*Operation{
		arith("+", func(a, b int64) (int64, error) { return a + b, nil }, func(a, b float64) float64 { return a + b }),
		arith("-", func(a, b int64) (int64, error) { return a - b, nil }, func(a, b float64) float64 { return a - b }),
		arith("*", func(a, b int64) (int64, error) { return a * b, nil }, func(a, b float64) float64 { return a * b }),
		arith("/", func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, errDivByZero
			}
			return a / b, nil
		}, func(a, b float64) float64 { return a / b }),
		arith("%", func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, errDivByZero
			}
			return a % b, nil
		}, math.Mod),
		compare("<", func(a, b float64) bool { return a < b }),
		compare(">", func(a, b float64) bool { return a > b }),
		compare("<=", func(a, b float64) bool { return a <= b }),
		compare(">=", func(a, b float64) bool { return a >= b }),
		{Name: "==", Fn: func(c *Call) ([]Atom, error) {
			if err := arity(c, 2); err != nil {
				return nil, err
			}
			return []Atom{Bool{Value: Equal(c.Args[0], c.Args[1])}}, nil
		}},
		{Name: "and", Fn: boolOp(func(a, b bool) bool { return a && b })},
		{Name: "or", Fn: boolOp(func(a, b bool) bool { return a || b })},
		{Name: "not", Fn: func(c *Call) ([]Atom, error) {
			if err := arity(c, 1); err != nil {
				return nil, err
			}
			v, err := asBool(c.Args[0])
			if err != nil {
				return nil, err
			}
			return []Atom{Bool{Value: !v}}, nil
		}},
	}
}

func boolOp(fn func(a, b bool) bool) OpFunc {
	return func(c *Call) ([]Atom, error) {
		if err := arity(c, 2); err != nil {
			return nil, err
		}
		x, err := asBool(c.Args[0])
		if err != nil {
			return nil, err
		}
		y, err := asBool(c.Args[1])
		if err != nil {
			return nil, err
		}
		return []Atom{Bool{Value: fn(x, y)}}, nil
	}
}

func controlOps() []*Operation {
	return []*Operation{
		{Name: "if", Lazy: true, Tail: true, Fn: func(c *Call) ([]Atom, error) {
			if err := arity(c, 3); err != nil {
				return nil, err
			}
			conds, err := c.Eval(c.Args[0])
			if err != nil {
				return nil, err
			}
			var out []Atom
			for _, cond := range conds {
				v, err := asBool(cond)
				if err != nil {
					return nil, err
				}
				if v {
					out = append(out, c.Args[1])
				} else {
					out = append(out, c.Args[2])
				}
			}
			return out, nil
		}},
		{Name: "let", Lazy: true, Tail: true, Fn: func(c *Call) ([]Atom, error) {
			if err := arity(c, 3); err != nil {
				return nil, err
			}
			return letBind(c, c.Args[0], c.Args[1], c.Args[2])
		}},
		{Name: "let*", Lazy: true, Tail: true, Fn: func(c *Call) ([]Atom, error) {
			if err := arity(c, 2); err != nil {
				return nil, err
			}
			pairs, ok := c.Args[0].(Expression)
			if !ok {
				return nil, fmt.Errorf("let* expects a list of (pattern value) pairs")
			}
			if len(pairs.Children) == 0 {
				return []Atom{c.Args[1]}, nil
			}
			first, ok := pairs.Children[0].(Expression)
			if !ok || len(first.Children) != 2 {
				return nil, fmt.Errorf("let* expects (pattern value) pairs, got %s", pairs.Children[0])
			}
			rest := Expr(c.Expr().Children[0], Expression{Children: pairs.Children[1:]}, c.Args[1])
			return letBind(c, first.Children[0], first.Children[1], rest)
		}},
		{Name: "quote", Lazy: true, Fn: func(c *Call) ([]Atom, error) {
			return []Atom{c.Expr()}, nil
		}},
		{Name: "superpose", Tail: true, Fn: func(c *Call) ([]Atom, error) {
			if err := arity(c, 1); err != nil {
				return nil, err
			}
			e, ok := c.Args[0].(Expression)
			if !ok {
				return nil, fmt.Errorf("superpose expects an expression, got %s", c.Args[0])
			}
			return e.Children, nil
		}},
		{Name: "collapse", Lazy: true, Fn: func(c *Call) ([]Atom, error) {
			if err := arity(c, 1); err != nil {
				return nil, err
			}
			res, err := c.Eval(c.Args[0])
			if err != nil {
				return nil, err
			}
			return []Atom{Expression{Children: res}}, nil
		}},
		{Name: "case", Lazy: true, Tail: true, Fn: caseOp},
	}
}

func letBind(c *Call, pattern, value, body Atom) ([]Atom, error) {
	values, err := c.Eval(value)
	if err != nil {
		return nil, err
	}
	var out []Atom
	for _, v := range values {
		b := Bindings{}
		if Unify(pattern, v, b) {
			out = append(out, b.Apply(body))
		}
	}
	return out, nil
}

func caseOp(c *Call) ([]Atom, error) {
	if err := arity(c, 2); err != nil {
		return nil, err
	}
	branches, ok := c.Args[1].(Expression)
	if !ok {
		return nil, fmt.Errorf("case expects a list of branches")
	}
	values, err := c.Eval(c.Args[0])
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		values = []Atom{VoidSymbol}
	}

	var out []Atom
	for _, v := range values {
		for _, br := range branches.Children {
			pair, ok := br.(Expression)
			if !ok || len(pair.Children) != 2 {
				return nil, fmt.Errorf("case branch must be (pattern result), got %s", br)
			}
			b := Bindings{}
			if Unify(pair.Children[0], v, b) {
				out = append(out, b.Apply(pair.Children[1]))
				break
			}
		}
	}
	return out, nil
}

func (r *Runner) spaceOps() []*Operation {
	return []*Operation{
		{Name: "match", Lazy: true, Tail: true, Fn: func(c *Call) ([]Atom, error) {
			if err := arity(c, 3); err != nil {
				return nil, err
			}
			spaces, err := c.Eval(c.Args[0])
			if err != nil {
				return nil, err
			}
			var out []Atom
			for _, sa := range spaces {
				space, err := asSpace(sa)
				if err != nil {
					return nil, err
				}
				for _, b := range space.Query(c.Args[1]) {
					out = append(out, b.Apply(c.Args[2]))
				}
			}
			return out, nil
		}},
		{Name: "new-space", Fn: func(c *Call) ([]Atom, error) {
			if err := arity(c, 0); err != nil {
				return nil, err
			}
			return []Atom{SpaceRef{Space: NewSpace()}}, nil
		}},
		{Name: "add-atom", Lazy: true, Fn: func(c *Call) ([]Atom, error) {
			return r.mutateSpace(c, func(s *Space, a Atom) { s.Add(a) })
		}},
		{Name: "remove-atom", Lazy: true, Fn: func(c *Call) ([]Atom, error) {
			return r.mutateSpace(c, func(s *Space, a Atom) { s.Remove(a) })
		}},
		{Name: "get-atoms", Fn: func(c *Call) ([]Atom, error) {
			if err := arity(c, 1); err != nil {
				return nil, err
			}
			space, err := asSpace(c.Args[0])
			if err != nil {
				return nil, err
			}
			return space.Atoms(), nil
		}},
		{Name: "bind!", Lazy: true, Fn: func(c *Call) ([]Atom, error) {
			if err := arity(c, 2); err != nil {
				return nil, err
			}
			name, ok := c.Args[0].(Symbol)
			if !ok {
				return nil, fmt.Errorf("bind! expects a symbol, got %s", c.Args[0])
			}
			values, err := c.Eval(c.Args[1])
			if err != nil {
				return nil, err
			}
			if len(values) != 1 {
				return nil, fmt.Errorf("bind! expects a single value, got %d", len(values))
			}
			r.tokenizer.RegisterAtom(name.Name, values[0])
			return []Atom{Empty}, nil
		}},
		{Name: "import!", Lazy: true, Fn: func(c *Call) ([]Atom, error) {
			if err := arity(c, 2); err != nil {
				return nil, err
			}
			spaces, err := c.Eval(c.Args[0])
			if err != nil {
				return nil, err
			}
			if len(spaces) != 1 {
				return nil, fmt.Errorf("import! expects a single space")
			}
			space, err := asSpace(spaces[0])
			if err != nil {
				return nil, err
			}
			return []Atom{Empty}, r.importFile(c, space, c.Args[1])
		}},
	}
}

func (r *Runner) mutateSpace(c *Call, fn func(*Space, Atom)) ([]Atom, error) {
	if err := arity(c, 2); err != nil {
		return nil, err
	}
	spaces, err := c.Eval(c.Args[0])
	if err != nil {
		return nil, err
	}
	for _, sa := range spaces {
		space, err := asSpace(sa)
		if err != nil {
			return nil, err
		}
		fn(space, c.Args[1])
	}
	return []Atom{Empty}, nil
}

func (r *Runner) importFile(c *Call, space *Space, target Atom) error {
	var name string
	switch t := target.(type) {
	case Symbol:
		name = t.Name
	case String:
		name = t.Value
	default:
		return fmt.Errorf("import! expects a file name, got %s", target)
	}
	if filepath.Ext(name) == "" {
		name += ".metta"
	}
	if !filepath.IsAbs(name) {
		name = filepath.Join(r.cwd, name)
	}
	src, err := os.ReadFile(name)
	if err != nil {
		return fmt.Errorf("import! failed: %w", err)
	}
	child := &Runner{
		space:     space,
		tokenizer: r.tokenizer,
		settings:  r.settings,
		out:       r.out,
		cwd:       filepath.Dir(name),
	}
	_, err = child.run(c.Ctx, string(src))
	return err
}

func (r *Runner) utilityOps() []*Operation {
	return []*Operation{
		{Name: "pragma!", Lazy: true, Fn: func(c *Call) ([]Atom, error) {
			if err := arity(c, 2); err != nil {
				return nil, err
			}
			key, value := c.Args[0].String(), c.Args[1].String()
			if key == SettingMaxDepth {
				n, err := strconv.Atoi(value)
				if err != nil {
					return nil, fmt.Errorf("%s expects an integer, got %s", SettingMaxDepth, value)
				}
				if n <= 0 {
					return nil, fmt.Errorf("%s must be positive, got %d", SettingMaxDepth, n)
				}
			}
			r.settings.Set(key, value)
			return []Atom{Empty}, nil
		}},
		{Name: "println!", Fn: func(c *Call) ([]Atom, error) {
			parts := make([]string, len(c.Args))
			for i, a := range c.Args {
				if s, ok := a.(String); ok {
					parts[i] = s.Value
				} else {
					parts[i] = a.String()
				}
			}
			fmt.Fprintln(c.Output(), strings.Join(parts, " "))
			return []Atom{Empty}, nil
		}},
		{Name: "assertEqual", Lazy: true, Fn: func(c *Call) ([]Atom, error) {
			if err := arity(c, 2); err != nil {
				return nil, err
			}
			actual, err := c.Eval(c.Args[0])
			if err != nil {
				return nil, err
			}
			expected, err := c.Eval(c.Args[1])
			if err != nil {
				return nil, err
			}
			return assertResults(c.Expr(), actual, expected), nil
		}},
		{Name: "assertEqualToResult", Lazy: true, Fn: func(c *Call) ([]Atom, error) {
			if err := arity(c, 2); err != nil {
				return nil, err
			}
			actual, err := c.Eval(c.Args[0])
			if err != nil {
				return nil, err
			}
			expected, ok := c.Args[1].(Expression)
			if !ok {
				return nil, fmt.Errorf("assertEqualToResult expects a list of results")
			}
			return assertResults(c.Expr(), actual, expected.Children), nil
		}},
	}
}

// assertResults compares two result lists ignoring order. A match yields no
// results; a mismatch yields a single error atom describing the difference.
func assertResults(expr Expression, actual, expected []Atom) []Atom {
	missed, excess := diffMultiset(expected, actual)
	if len(missed) == 0 && len(excess) == 0 {
		return nil
	}
	msg := fmt.Sprintf("\nExpected: %s\nGot: %s", Render(expected), Render(actual))
	if len(excess) > 0 {
		msg += "\nExcessive result: " + excess[0].String()
	}
	if len(missed) > 0 {
		msg += "\nMissed result: " + missed[0].String()
	}
	return []Atom{ErrorAtom(expr, msg)}
}

func diffMultiset(expected, actual []Atom) (missed, excess []Atom) {
	used := make([]bool, len(actual))
	for _, e := range expected {
		found := false
		for i, a := range actual {
			if !used[i] && Equal(e, a) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			missed = append(missed, e)
		}
	}
	for i, a := range actual {
		if !used[i] {
			excess = append(excess, a)
		}
	}
	return missed, excess
}

// Operations returns the names of every built-in operation, sorted.
func (r *Runner) Operations() []string {
	var names []string
	for _, op := range r.builtins() {
		names = append(names, op.Name)
	}
	sort.Strings(names)
	return names
}

func (r *Runner) builtins() []*Operation {
	var ops []*Operation
	ops = append(ops, arithmeticOps()...)
	ops = append(ops, controlOps()...)
	ops = append(ops, r.spaceOps()...)
	ops = append(ops, r.utilityOps()...)
	return ops
}
