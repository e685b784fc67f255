package metta

import (
	"context"
	"io"
	"strconv"
	"sync"
)

// Version of the engine.
const Version = "0.2.1"

// Settings recognised by pragma!.
const (
	SettingTypeCheck = "type-check"
	SettingMaxDepth  = "max-stack-depth"
)

// Settings is the key/value store written by pragma!.
type Settings struct {
	mu     sync.RWMutex
	values map[string]string
}

// Get returns a setting or "".
func (s *Settings) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

// Set stores a setting.
func (s *Settings) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
}

// Runner executes source text against one space: atoms are added to the
// space, and an atom preceded by "!" is interpreted and its results returned.
// A Runner is not safe for concurrent Run calls.
type Runner struct {
	space     *Space
	tokenizer *Tokenizer
	settings  *Settings
	out       io.Writer
	cwd       string
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput sets where println! writes.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.out = w
	}
}

// WithWorkingDir sets the directory import! resolves relative paths against.
func WithWorkingDir(dir string) Option {
	return func(r *Runner) {
		r.cwd = dir
	}
}

// WithSpace runs against an existing space.
func WithSpace(s *Space) Option {
	return func(r *Runner) {
		r.space = s
	}
}

// New creates a Runner with the standard library registered.
func New(opts ...Option) *Runner {
	r := &Runner{
		space:     NewSpace(),
		tokenizer: NewTokenizer(),
		settings:  &Settings{},
		out:       io.Discard,
		cwd:       ".",
	}
	for _, opt := range opts {
		opt(r)
	}

	registerLiterals(r.tokenizer)
	for _, op := range r.builtins() {
		r.tokenizer.RegisterAtom(op.Name, op)
	}
	r.tokenizer.RegisterAtom("&self", SpaceRef{Space: r.space})
	return r
}

// Space returns the runner's space.
func (r *Runner) Space() *Space {
	return r.space
}

// Tokenizer returns the runner's tokenizer.
func (r *Runner) Tokenizer() *Tokenizer {
	return r.tokenizer
}

// Setting returns a pragma! setting.
func (r *Runner) Setting(key string) string {
	return r.settings.Get(key)
}

// RegisterOperation adds a grounded operation callable by name.
func (r *Runner) RegisterOperation(op *Operation) {
	r.tokenizer.RegisterAtom(op.Name, op)
}

// Run parses and executes src. It returns one result list per "!" atom.
// A syntax error is returned as *ParseError; cancellation returns ctx.Err().
func (r *Runner) Run(ctx context.Context, src string) ([][]Atom, error) {
	return r.run(ctx, src)
}

func (r *Runner) run(ctx context.Context, src string) ([][]Atom, error) {
	parser := NewParser(src)
	interp := &Interpreter{space: r.space, out: r.out}

	var results [][]Atom
	exec := false
	for {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		atom, err := parser.Next(r.tokenizer)
		if err != nil {
			return results, err
		}
		if atom == nil {
			return results, nil
		}
		if Equal(atom, ExecSymbol) {
			exec = true
			continue
		}
		if !exec {
			r.space.Add(atom)
			continue
		}
		exec = false

		interp.maxDepth = r.maxDepth()
		res, err := interp.Interpret(ctx, atom)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
}

func (r *Runner) maxDepth() int {
	if v, err := strconv.Atoi(r.settings.Get(SettingMaxDepth)); err == nil && v > 0 {
		return v
	}
	return DefaultMaxDepth
}
