package ports

import "context"

// LineReader reads raw lines for the session loop.
type LineReader interface {
	// ReadLine shows prompt and returns one line without its terminator.
	// It returns io.EOF at end of input and domain.ErrInterrupted when ctx is
	// cancelled or the user aborts the line. An interrupted read leaves the
	// reader usable.
	ReadLine(ctx context.Context, prompt string) (string, error)

	// AppendHistory records an entry for line-editor recall.
	AppendHistory(entry string)

	// Close releases the terminal.
	Close() error
}
