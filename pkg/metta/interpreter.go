package metta

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxDepth bounds nested evaluation.
const DefaultMaxDepth = 512

// ErrMaxDepth is returned when nested evaluation exceeds the depth limit.
var ErrMaxDepth = errors.New("maximum stack depth exceeded")

// Interpreter reduces atoms against a space by rewriting with (= lhs rhs)
// rules and executing grounded operations. Evaluation is nondeterministic:
// one atom may reduce to several results.
type Interpreter struct {
	space    *Space
	maxDepth int
	out      io.Writer
	steps    uint64
}

// Call is the argument bundle handed to an operation.
type Call struct {
	Args []Atom
	Ctx  context.Context

	interp *Interpreter
	depth  int
	expr   Expression
}

// Eval fully evaluates a with the interpreter of the call.
func (c *Call) Eval(a Atom) ([]Atom, error) {
	return c.interp.eval(c.Ctx, a, c.depth+1)
}

// Space returns the space the interpreter runs against.
func (c *Call) Space() *Space {
	return c.interp.space
}

// Output is where println! writes.
func (c *Call) Output() io.Writer {
	return c.interp.out
}

// Expr is the expression that invoked the operation.
func (c *Call) Expr() Expression {
	return c.expr
}

// Steps reports how many reductions the interpreter performed.
func (in *Interpreter) Steps() uint64 {
	return in.steps
}

// Interpret evaluates a, checking ctx between every reduction step.
func (in *Interpreter) Interpret(ctx context.Context, a Atom) ([]Atom, error) {
	return in.eval(ctx, a, 0)
}

func (in *Interpreter) eval(ctx context.Context, a Atom, depth int) ([]Atom, error) {
	if depth > in.maxDepth {
		return nil, fmt.Errorf("%w (%d)", ErrMaxDepth, in.maxDepth)
	}

	var results []Atom
	queue := []Atom{a}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		in.steps++

		cur := queue[0]
		queue = queue[1:]

		values, pending, err := in.step(ctx, cur, depth)
		if err != nil {
			return nil, err
		}
		results = append(results, values...)
		queue = append(queue, pending...)
	}
	return results, nil
}

// step performs one reduction. values are fully reduced; pending atoms go
// back to the queue.
func (in *Interpreter) step(ctx context.Context, a Atom, depth int) (values, pending []Atom, err error) {
	expr, ok := a.(Expression)
	if !ok || len(expr.Children) == 0 {
		return []Atom{a}, nil, nil
	}

	if op, ok := expr.Children[0].(*Operation); ok && op.Lazy {
		res, tail, err := in.call(ctx, op, expr, expr.Children[1:], depth)
		if tail {
			return nil, res, err
		}
		return res, nil, err
	}

	combos, err := in.evalChildren(ctx, expr, depth)
	if err != nil {
		return nil, nil, err
	}

	for _, combo := range combos {
		if op, ok := combo.Children[0].(*Operation); ok {
			res, tail, err := in.call(ctx, op, combo, combo.Children[1:], depth)
			if err != nil {
				return nil, nil, err
			}
			if tail {
				pending = append(pending, res...)
			} else {
				values = append(values, res...)
			}
			continue
		}

		rewrites := in.rewrite(combo)
		if len(rewrites) == 0 {
			values = append(values, combo)
			continue
		}
		pending = append(pending, rewrites...)
	}
	return values, pending, nil
}

// call runs an operation. tail reports whether res needs further reduction.
// Operation failures become (Error expr message) values; cancellation and
// depth overflow abort the whole evaluation.
func (in *Interpreter) call(ctx context.Context, op *Operation, expr Expression, args []Atom, depth int) (res []Atom, tail bool, err error) {
	c := &Call{Args: args, Ctx: ctx, interp: in, depth: depth, expr: expr}
	res, err = op.Fn(c)
	if err != nil {
		if isContextErr(err) || errors.Is(err, ErrMaxDepth) {
			return nil, false, err
		}
		return []Atom{ErrorAtom(expr, err.Error())}, false, nil
	}
	return res, op.Tail, nil
}

// evalChildren evaluates every child and returns the cartesian product of
// their results. A child without results makes the whole expression empty.
func (in *Interpreter) evalChildren(ctx context.Context, expr Expression, depth int) ([]Expression, error) {
	combos := [][]Atom{{}}
	for _, child := range expr.Children {
		var alts []Atom
		if _, ok := child.(Expression); ok {
			res, err := in.eval(ctx, child, depth+1)
			if err != nil {
				return nil, err
			}
			alts = res
		} else {
			alts = []Atom{child}
		}
		if len(alts) == 0 {
			return nil, nil
		}

		next := make([][]Atom, 0, len(combos)*len(alts))
		for _, prefix := range combos {
			for _, alt := range alts {
				row := make([]Atom, len(prefix), len(prefix)+1)
				copy(row, prefix)
				next = append(next, append(row, alt))
			}
		}
		combos = next
	}

	out := make([]Expression, len(combos))
	for i, row := range combos {
		out[i] = Expression{Children: row}
	}
	return out, nil
}

// rewrite returns the right-hand sides of every rule (= lhs rhs) whose lhs
// unifies with expr.
func (in *Interpreter) rewrite(expr Expression) []Atom {
	rhs := Var("rhs#q")
	pattern := Expr(Sym("="), expr, rhs)

	var out []Atom
	for _, b := range in.space.Query(pattern) {
		out = append(out, b.Apply(rhs))
	}
	return out
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
