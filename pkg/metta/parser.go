package metta

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ParseError is a syntax error with its 1-based position in the source.
type ParseError struct {
	Message string
	Line    int
	Column  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// Parser reads atoms written in S-expression syntax. It is short-lived and
// cheap to create for each piece of source text.
type Parser struct {
	text string
	pos  int
	line int
	col  int
}

// NewParser creates a parser over text.
func NewParser(text string) *Parser {
	return &Parser{text: text, line: 1, col: 1}
}

type position struct {
	line, col int
}

// Next returns the next atom, or nil at the end of input.
func (p *Parser) Next(t *Tokenizer) (Atom, error) {
	p.skipBlank()
	if _, ok := p.peek(); !ok {
		return nil, nil
	}
	return p.parseAtom(t)
}

// ParseAll returns every atom in text.
func ParseAll(text string, t *Tokenizer) ([]Atom, error) {
	p := NewParser(text)
	var atoms []Atom
	for {
		a, err := p.Next(t)
		if err != nil {
			return atoms, err
		}
		if a == nil {
			return atoms, nil
		}
		atoms = append(atoms, a)
	}
}

func (p *Parser) peek() (rune, bool) {
	if p.pos >= len(p.text) {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(p.text[p.pos:])
	return r, true
}

func (p *Parser) advance() rune {
	r, size := utf8.DecodeRuneInString(p.text[p.pos:])
	p.pos += size
	if r == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	return r
}

func (p *Parser) here() position {
	return position{line: p.line, col: p.col}
}

// fail consumes the rest of the input so that later calls report end of input.
func (p *Parser) fail(at position, msg string) error {
	for p.pos < len(p.text) {
		p.advance()
	}
	return &ParseError{Message: msg, Line: at.line, Column: at.col}
}

func (p *Parser) skipBlank() {
	for {
		r, ok := p.peek()
		switch {
		case !ok:
			return
		case r == ';':
			for {
				r, ok := p.peek()
				if !ok || r == '\n' {
					break
				}
				p.advance()
			}
		case unicode.IsSpace(r):
			p.advance()
		default:
			return
		}
	}
}

func (p *Parser) parseAtom(t *Tokenizer) (Atom, error) {
	start := p.here()
	r, _ := p.peek()
	switch r {
	case '(':
		return p.parseExpr(t)
	case ')':
		p.advance()
		return nil, p.fail(start, "Unexpected right bracket")
	case '$':
		return p.parseVariable()
	case '"':
		tok, err := p.parseString()
		if err != nil {
			return nil, err
		}
		return t.Atom(tok), nil
	}
	return t.Atom(p.parseWord()), nil
}

func (p *Parser) parseExpr(t *Tokenizer) (Atom, error) {
	start := p.here()
	p.advance()

	var children []Atom
	for {
		p.skipBlank()
		r, ok := p.peek()
		if !ok {
			return nil, p.fail(start, "Unexpected end of expression")
		}
		if r == ')' {
			p.advance()
			return Expression{Children: children}, nil
		}
		child, err := p.parseAtom(t)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
}

func (p *Parser) parseVariable() (Atom, error) {
	start := p.here()
	p.advance()

	var b strings.Builder
	for {
		r, ok := p.peek()
		if !ok || unicode.IsSpace(r) || r == '(' || r == ')' {
			break
		}
		if r == '#' {
			return nil, p.fail(start, "'#' char is reserved for internal usage")
		}
		b.WriteRune(p.advance())
	}
	return Var(b.String()), nil
}

func (p *Parser) parseString() (string, error) {
	start := p.here()
	p.advance()

	var b strings.Builder
	b.WriteByte('"')
	for {
		r, ok := p.peek()
		if !ok {
			return "", p.fail(start, "Unclosed String Literal")
		}
		p.advance()
		switch r {
		case '"':
			b.WriteByte('"')
			return b.String(), nil
		case '\\':
			esc, ok := p.peek()
			if !ok {
				return "", p.fail(start, "Escaping sequence is not finished")
			}
			p.advance()
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteRune(esc)
			}
		default:
			b.WriteRune(r)
		}
	}
}

func (p *Parser) parseWord() string {
	var b strings.Builder
	for {
		r, ok := p.peek()
		if !ok || unicode.IsSpace(r) || r == '(' || r == ')' {
			return b.String()
		}
		b.WriteRune(p.advance())
	}
}
