package fileio

import (
	"fmt"
	"os"
	"path/filepath"

	"formula-editor/internal/logger"
)

// Writer writes UTF-8 text files atomically, optionally backing up the file
// it replaces.
type Writer struct {
	backups    *BackupManager
	maxBackups int
}

// NewWriter returns a Writer. A nil backups manager or maxBackups <= 0
// disables backups.
func NewWriter(backups *BackupManager, maxBackups int) *Writer {
	return &Writer{backups: backups, maxBackups: maxBackups}
}

// WriteText replaces path with content. The parent directory must exist.
func (w *Writer) WriteText(path, content string) error {
	if w.backupsEnabled() {
		if _, err := os.Stat(path); err == nil {
			if _, err := w.backups.CreateBackup(path); err != nil {
				return err
			}
			if err := w.backups.CleanupBackups(path, w.maxBackups); err != nil {
				logger.Warn("backup cleanup failed", logger.Err(err), logger.String("path", path))
			}
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}

func (w *Writer) backupsEnabled() bool {
	return w != nil && w.backups != nil && w.maxBackups > 0
}
