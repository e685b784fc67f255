package runner

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/aretw0/metta/pkg/domain"
	"github.com/peterh/liner"
)

// prompter is the part of *liner.State the reader uses.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

type promptResult struct {
	line string
	err  error
}

// LinerReader reads lines from a terminal through a line editor with history
// recall. The editor owns the terminal in raw mode, so Ctrl-C arrives as an
// aborted prompt rather than as a signal while a line is being edited.
//
// The editor cannot be stopped from outside a prompt. When ctx is cancelled
// first, the prompt keeps running and the next ReadLine picks up its result.
type LinerReader struct {
	state   prompter
	pending chan promptResult
}

// NewLinerReader puts the terminal under line editor control and seeds its
// recall list.
func NewLinerReader(history []string) *LinerReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetMultiLineMode(true)
	r := newLinerReader(state)
	for _, entry := range history {
		r.AppendHistory(entry)
	}
	return r
}

func newLinerReader(p prompter) *LinerReader {
	return &LinerReader{state: p}
}

func (r *LinerReader) ReadLine(ctx context.Context, prompt string) (string, error) {
	if r.pending == nil {
		if ctx.Err() != nil {
			return "", domain.ErrInterrupted
		}
		ch := make(chan promptResult, 1)
		go func() {
			line, err := r.state.Prompt(prompt)
			ch <- promptResult{line: line, err: err}
		}()
		r.pending = ch
	}

	select {
	case <-ctx.Done():
		return "", domain.ErrInterrupted
	case res := <-r.pending:
		r.pending = nil
		switch {
		case errors.Is(res.err, liner.ErrPromptAborted):
			return "", domain.ErrInterrupted
		case errors.Is(res.err, io.EOF):
			return "", io.EOF
		}
		return res.line, res.err
	}
}

// AppendHistory records entry for recall as a single line.
func (r *LinerReader) AppendHistory(entry string) {
	entry = strings.TrimSpace(strings.ReplaceAll(entry, "\n", " "))
	if entry == "" {
		return
	}
	r.state.AppendHistory(entry)
}

// Close restores the terminal.
func (r *LinerReader) Close() error {
	return r.state.Close()
}
