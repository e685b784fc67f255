package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/metta/pkg/domain"
)

// PumpReader reads lines from a plain stream (a pipe or a file). A goroutine
// pumps lines into a channel so that a pending read can be abandoned when
// its context is cancelled; the line stays queued for the next read.
type PumpReader struct {
	reader *bufio.Reader
	writer io.Writer

	lines     chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// NewPumpReader creates a reader over r that writes prompts to w. A nil w
// disables prompts, which is what non-interactive runs want.
func NewPumpReader(r io.Reader, w io.Writer) *PumpReader {
	if r == nil {
		r = os.Stdin
	}
	return &PumpReader{
		reader: bufio.NewReader(r),
		writer: w,
	}
}

func (p *PumpReader) initPump() {
	p.startOnce.Do(func() {
		p.lines = make(chan inputResult)
		go p.pump()
	})
}

func (p *PumpReader) pump() {
	defer close(p.lines)
	for {
		text, err := p.reader.ReadString('\n')
		if text != "" {
			p.lines <- inputResult{text: strings.TrimRight(text, "\r\n")}
		}
		if err != nil {
			if err != io.EOF {
				p.lines <- inputResult{err: err}
			}
			return
		}
	}
}

func (p *PumpReader) ReadLine(ctx context.Context, prompt string) (string, error) {
	p.initPump()

	if ctx.Err() != nil {
		return "", domain.ErrInterrupted
	}
	if p.writer != nil && prompt != "" {
		fmt.Fprint(p.writer, prompt)
	}

	select {
	case <-ctx.Done():
		return "", domain.ErrInterrupted
	case res, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}
		return res.text, res.err
	}
}

// AppendHistory is a no-op: plain streams have no line editor.
func (p *PumpReader) AppendHistory(string) {}

// Close does not close the underlying stream; the pump exits at its end.
func (p *PumpReader) Close() error { return nil }
