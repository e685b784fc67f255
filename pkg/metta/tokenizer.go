package metta

import (
	"regexp"
	"strconv"
	"sync"
)

// Constructor builds an atom from the token text.
type Constructor func(token string) Atom

type tokenDescr struct {
	re     *regexp.Regexp
	constr Constructor
}

// Tokenizer maps word tokens to grounded atoms. The most recently registered
// token whose expression matches the whole word wins.
type Tokenizer struct {
	mu     sync.RWMutex
	tokens []tokenDescr
}

// NewTokenizer creates an empty tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{}
}

// Register adds a token expression.
func (t *Tokenizer) Register(re *regexp.Regexp, constr Constructor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tokens = append(t.tokens, tokenDescr{re: re, constr: constr})
}

// RegisterPattern compiles pattern and registers it.
func (t *Tokenizer) RegisterPattern(pattern string, constr Constructor) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	t.Register(re, constr)
	return nil
}

// RegisterAtom binds an exact word to a fixed atom.
func (t *Tokenizer) RegisterAtom(word string, atom Atom) {
	t.Register(regexp.MustCompile(regexp.QuoteMeta(word)), func(string) Atom { return atom })
}

// Find returns the constructor for token, or nil.
func (t *Tokenizer) Find(token string) Constructor {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := len(t.tokens) - 1; i >= 0; i-- {
		loc := t.tokens[i].re.FindStringIndex(token)
		if loc != nil && loc[0] == 0 && loc[1] == len(token) {
			return t.tokens[i].constr
		}
	}
	return nil
}

// Atom converts a word to an atom, falling back to a Symbol.
func (t *Tokenizer) Atom(token string) Atom {
	if constr := t.Find(token); constr != nil {
		return constr(token)
	}
	return Sym(token)
}

// registerLiterals installs numbers, strings and booleans.
func registerLiterals(t *Tokenizer) {
	t.Register(regexp.MustCompile(`[-+]?\d+`), func(tok string) Atom {
		v, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return Sym(tok)
		}
		return Int(v)
	})
	t.Register(regexp.MustCompile(`[-+]?\d+\.\d+([eE][-+]?\d+)?`), func(tok string) Atom {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return Sym(tok)
		}
		return Float(v)
	})
	t.Register(regexp.MustCompile(`(?s)".*"`), func(tok string) Atom {
		return String{Value: tok[1 : len(tok)-1]}
	})
	t.RegisterAtom("True", Bool{Value: true})
	t.RegisterAtom("False", Bool{Value: false})
}
