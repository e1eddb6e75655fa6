package staging

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"meditate/internal/logging"
)

const workDirPrefix = "entry_"

// WorkDirName returns the directory name used for an entry.
func WorkDirName(entryID int) string {
	return fmt.Sprintf("%s%02d", workDirPrefix, entryID)
}

// PrepareWorkDir returns an empty scratch directory for entryID under root.
// Anything already at that path is removed first.
func PrepareWorkDir(root string, entryID int) (string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return "", errors.New("staging root is empty")
	}
	dir := filepath.Join(root, WorkDirName(entryID))
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("clear stale work dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	return dir, nil
}

// Remove deletes dir and everything under it. Failures are logged and
// returned for the caller to ignore.
func Remove(ctx context.Context, dir string, logger *slog.Logger) error {
	if strings.TrimSpace(dir) == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, logger), "work dir cleanup failed", "staging_cleanup_failed",
			logging.String("path", dir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check temp_dir permissions"),
			logging.String(logging.FieldImpact, "scratch files remain until the next run"),
		)
		return err
	}
	return nil
}

// RemoveIfEmpty deletes dir when it has no entries. It reports whether the
// directory is gone afterwards; a missing dir counts as removed.
func RemoveIfEmpty(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return true, nil
		}
		return false, err
	}
	if len(entries) > 0 {
		return false, nil
	}
	if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	return true, nil
}
