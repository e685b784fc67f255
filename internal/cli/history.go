package cli

import (
	"context"
	"fmt"
	"io"
)

// HistoryList prints the persisted history, numbered, oldest first.
func HistoryList(ctx context.Context, opts Options, w io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	store, closeStore, err := openHistoryStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	entries, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	for i, entry := range entries {
		fmt.Fprintf(w, "%4d  %s\n", i+1, entry)
	}
	return nil
}

// HistoryClear deletes the persisted history.
func HistoryClear(ctx context.Context, opts Options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	store, closeStore, err := openHistoryStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
