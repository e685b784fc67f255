package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/metta/pkg/ports"
)

// Mask replaces redacted text.
const Mask = "***"

type redactionMiddleware struct {
	next     ports.HistoryStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware masks text matching any pattern before entries are
// persisted. When a pattern has capture groups only the groups are masked,
// so `\(api-key "([^"]*)"\)` keeps the surrounding expression.
func NewRedactionMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.HistoryStore) ports.HistoryStore {
		return &redactionMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *redactionMiddleware) Load(ctx context.Context) ([]string, error) {
	return m.next.Load(ctx)
}

func (m *redactionMiddleware) Append(ctx context.Context, entries ...string) error {
	masked := make([]string, len(entries))
	for i, e := range entries {
		masked[i] = m.redact(e)
	}
	return m.next.Append(ctx, masked...)
}

func (m *redactionMiddleware) Clear(ctx context.Context) error {
	return m.next.Clear(ctx)
}

func (m *redactionMiddleware) redact(entry string) string {
	for _, re := range m.patterns {
		entry = maskMatches(re, entry)
	}
	return entry
}

func maskMatches(re *regexp.Regexp, s string) string {
	if re.NumSubexp() == 0 {
		return re.ReplaceAllLiteralString(s, Mask)
	}
	var out []byte
	last := 0
	for _, loc := range re.FindAllStringSubmatchIndex(s, -1) {
		for g := 1; g <= re.NumSubexp(); g++ {
			start, end := loc[2*g], loc[2*g+1]
			if start < 0 || start < last {
				continue
			}
			out = append(out, s[last:start]...)
			out = append(out, Mask...)
			last = end
		}
	}
	return string(append(out, s[last:]...))
}
