package fileio

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"formula-editor/internal/logger"
)

// backupTimeFormat sorts lexically in creation order.
const backupTimeFormat = "20060102_150405.000000000"

// BackupManager keeps timestamped copies of files before they are replaced.
type BackupManager struct {
	backupDir string
	now       func() time.Time
}

// NewBackupManager creates a new BackupManager.
// If backupDir is empty, backups are created next to the original file.
func NewBackupManager(backupDir string) *BackupManager {
	return &BackupManager{
		backupDir: backupDir,
		now:       time.Now,
	}
}

func (m *BackupManager) dirFor(path string) string {
	if m.backupDir != "" {
		return m.backupDir
	}
	return filepath.Dir(path)
}

// backupPrefix names the backups of path. Same-named files from different
// directories share a backup directory, so the prefix carries a short hash of
// the absolute path.
func backupPrefix(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Base(path) + "." + hex.EncodeToString(sum[:4]) + ".backup_"
}

// CreateBackup copies path to <name>.<hash>.backup_<timestamp> and returns the copy's path.
func (m *BackupManager) CreateBackup(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("file does not exist: %s", path)
	}

	dir := m.dirFor(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	backupPath := filepath.Join(dir, backupPrefix(path)+m.now().Format(backupTimeFormat))
	if err := copyFile(path, backupPath); err != nil {
		return "", fmt.Errorf("failed to copy file: %w", err)
	}

	logger.Debug("backup created", logger.String("backupPath", backupPath))
	return backupPath, nil
}

// Restore copies a backup of originalPath over it. backupPath must be one of
// the backups ListBackups reports for originalPath.
func (m *BackupManager) Restore(backupPath, originalPath string) error {
	backups, err := m.ListBackups(originalPath)
	if err != nil {
		return err
	}
	if !slices.Contains(backups, filepath.Clean(backupPath)) {
		return fmt.Errorf("%s is not a backup of %s", backupPath, originalPath)
	}
	if err := copyFile(backupPath, originalPath); err != nil {
		return fmt.Errorf("failed to restore backup: %w", err)
	}
	logger.Info("file restored from backup",
		logger.String("backupPath", backupPath),
		logger.String("originalPath", originalPath))
	return nil
}

// ListBackups returns the backups of path, newest first.
func (m *BackupManager) ListBackups(path string) ([]string, error) {
	dir := m.dirFor(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	prefix := backupPrefix(path)
	var backups []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			backups = append(backups, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(backups)))
	return backups, nil
}

// CleanupBackups removes all but the keepCount most recent backups of path.
func (m *BackupManager) CleanupBackups(path string, keepCount int) error {
	backups, err := m.ListBackups(path)
	if err != nil {
		return err
	}
	if keepCount < 0 {
		keepCount = 0
	}

	for i := keepCount; i < len(backups); i++ {
		if err := os.Remove(backups[i]); err != nil {
			logger.Warn("failed to remove backup", logger.Err(err), logger.String("path", backups[i]))
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}
