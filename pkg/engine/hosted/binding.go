package hosted

import (
	"errors"
	"fmt"

	"github.com/aretw0/metta/pkg/metta"
	"github.com/dop251/goja"
)

// installBinding exposes the engine to the runtime as the global __hyperon:
//
//	run(src)            -> {results: string[][], error: {message, line, column} | null}
//	register(name, fn)  -> adds a grounded operation calling fn
//	engineVersion       -> version of the engine behind the binding
func (a *Adapter) installBinding() error {
	binding := a.vm.NewObject()
	if err := binding.Set("run", a.bindRun); err != nil {
		return fmt.Errorf("failed to set run: %w", err)
	}
	if err := binding.Set("register", a.bindRegister); err != nil {
		return fmt.Errorf("failed to set register: %w", err)
	}
	if err := binding.Set("engineVersion", metta.Version); err != nil {
		return fmt.Errorf("failed to set engineVersion: %w", err)
	}
	return a.vm.Set(bindingName, binding)
}

func (a *Adapter) bindRun(call goja.FunctionCall) goja.Value {
	src := call.Argument(0).String()

	res, err := a.runner.Run(a.runCtx, src)
	if err != nil {
		if a.runCtx.Err() != nil {
			panic(a.vm.NewGoError(err))
		}
		return a.vm.ToValue(map[string]any{
			"results": nil,
			"error":   errorObject(err),
		})
	}

	results := make([][]string, len(res))
	for i, r := range res {
		results[i] = metta.Strings(r)
	}
	return a.vm.ToValue(map[string]any{
		"results": results,
		"error":   nil,
	})
}

func errorObject(err error) map[string]any {
	var perr *metta.ParseError
	if errors.As(err, &perr) {
		return map[string]any{"message": perr.Message, "line": perr.Line, "column": perr.Column}
	}
	return map[string]any{"message": err.Error(), "line": 0, "column": 0}
}

func (a *Adapter) bindRegister(call goja.FunctionCall) goja.Value {
	name := call.Argument(0).String()
	fn, ok := goja.AssertFunction(call.Argument(1))
	if !ok {
		panic(a.vm.NewTypeError("register requires a function for " + name))
	}

	a.runner.RegisterOperation(&metta.Operation{Name: name, Fn: func(c *metta.Call) ([]metta.Atom, error) {
		args := make([]goja.Value, len(c.Args))
		for i, arg := range c.Args {
			args[i] = a.vm.ToValue(toJS(arg))
		}

		val, err := fn(goja.Undefined(), args...)
		if err != nil {
			if c.Ctx.Err() != nil {
				return nil, c.Ctx.Err()
			}
			var ex *goja.Exception
			if errors.As(err, &ex) {
				return nil, errors.New(ex.Value().String())
			}
			return nil, err
		}

		var out []any
		if err := a.vm.ExportTo(val, &out); err != nil {
			return nil, fmt.Errorf("%s returned %s: %w", name, val, err)
		}
		atoms := make([]metta.Atom, len(out))
		for i, v := range out {
			atoms[i] = a.fromJS(v)
		}
		return atoms, nil
	}})
	a.logger.Debug("operation registered", "name", name)
	return goja.Undefined()
}

func toJS(atom metta.Atom) any {
	switch x := atom.(type) {
	case metta.Number:
		if x.IsFloat {
			return x.Float
		}
		return x.Int
	case metta.String:
		return x.Value
	case metta.Bool:
		return x.Value
	}
	return atom.String()
}

func (a *Adapter) fromJS(v any) metta.Atom {
	switch x := v.(type) {
	case int64:
		return metta.Int(x)
	case float64:
		return metta.Float(x)
	case bool:
		return metta.Bool{Value: x}
	case string:
		return a.runner.Tokenizer().Atom(x)
	}
	return metta.Sym(fmt.Sprint(v))
}
