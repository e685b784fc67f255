package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxLineSize bounds a single input line (64KB).
	DefaultMaxLineSize = 64 * 1024
	// EnvMaxLineSize overrides DefaultMaxLineSize.
	EnvMaxLineSize = "METTA_MAX_LINE_SIZE"
)

var (
	ErrLineTooLarge = errors.New("line exceeds maximum allowed size")
	ErrInvalidUTF8  = errors.New("line contains invalid UTF-8 sequences")
)

// SanitizeInput rejects oversized or malformed lines and strips terminal
// control sequences from the rest. Pasted coloured text loses its CSI
// sequences entirely, not just the ESC byte.
func SanitizeInput(line string) (string, error) {
	if limit := maxLineSize(); len(line) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrLineTooLarge, len(line), limit)
	}
	if !utf8.ValidString(line) {
		return "", ErrInvalidUTF8
	}
	if !strings.ContainsFunc(line, unsafeControl) {
		return line, nil
	}

	var b strings.Builder
	b.Grow(len(line))
	for i := 0; i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		if r == '\x1b' && i+1 < len(line) && line[i+1] == '[' {
			i = skipCSI(line, i+2)
			continue
		}
		if !unsafeControl(r) {
			b.WriteRune(r)
		}
		i += size
	}
	return b.String(), nil
}

// skipCSI returns the index just past the final byte of a CSI sequence whose
// parameters start at i.
func skipCSI(s string, i int) int {
	for ; i < len(s); i++ {
		if s[i] >= 0x40 && s[i] <= 0x7e {
			return i + 1
		}
	}
	return i
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\t' && r != '\r' && r != '\n'
}

func maxLineSize() int {
	if val := os.Getenv(EnvMaxLineSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxLineSize
}
