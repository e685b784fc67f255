package history

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore implements ports.HistoryStore using a local file holding one
// entry per line. Backslashes and newlines inside entries are escaped.
type FileStore struct {
	Path       string
	MaxEntries int
}

// DefaultFileName is the history file created in the user's home directory.
const DefaultFileName = ".metta_history"

// NewFileStore creates a FileStore. If path is empty, it defaults to
// ~/.metta_history.
func NewFileStore(path string, maxEntries int) *FileStore {
	if path == "" {
		path = DefaultPath()
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &FileStore{Path: path, MaxEntries: maxEntries}
}

// DefaultPath returns ~/.metta_history, or the file in the working directory
// when the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(home, DefaultFileName)
}

// Load reads every entry. A missing file is an empty history.
func (s *FileStore) Load(ctx context.Context) ([]string, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	entries := []string{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			entries = append(entries, unescape(line))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	return entries, nil
}

// Append adds entries and rewrites the file atomically, keeping at most
// MaxEntries.
func (s *FileStore) Append(ctx context.Context, entries ...string) error {
	if len(entries) == 0 {
		return nil
	}
	existing, err := s.Load(ctx)
	if err != nil {
		return err
	}
	return s.write(bound(append(existing, entries...), s.MaxEntries))
}

// Clear removes the history file.
func (s *FileStore) Clear(ctx context.Context) error {
	err := os.Remove(s.Path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete history file: %w", err)
	}
	return nil
}

// write replaces the file via a temp file in the same directory, fsync and rename.
func (s *FileStore) write(entries []string) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure history directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "tmp-"+filepath.Base(s.Path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	w := bufio.NewWriter(tmpFile)
	for _, e := range entries {
		if _, err := w.WriteString(escape(e) + "\n"); err != nil {
			return fmt.Errorf("failed to write to temp file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.Path); err != nil {
		return fmt.Errorf("failed to replace history file: %w", err)
	}
	return nil
}

var escaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`)

func escape(entry string) string {
	return escaper.Replace(entry)
}

func unescape(line string) string {
	if !strings.Contains(line, `\`) {
		return line
	}
	var b strings.Builder
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c != '\\' || i == len(line)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch line[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte(line[i])
		}
	}
	return b.String()
}
