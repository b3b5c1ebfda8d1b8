package files

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "surveycli/internal/errors"
)

// Manager writes report artifacts below an output directory
type Manager struct {
	outputDir string
	logger    *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(outputDir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{outputDir: outputDir, logger: logger}
}

// WriteAtomic streams write into a temporary file next to path and renames
// it into place once write succeeds, so readers never see half a report.
func (m *Manager) WriteAtomic(path string, write func(w io.Writer) error) error {
	fullPath := m.resolvePath(path)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fullPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		return renameError(fullPath, err)
	}

	m.logger.Debug("Wrote file", slog.String("path", fullPath))
	return nil
}

// renameError reports a denied rename as apperrors.ErrFileInUse. Windows
// denies replacing a file that Word or Excel has open.
func renameError(path string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("failed to move %s into place: %w: %w", path, apperrors.ErrFileInUse, err)
	}
	return fmt.Errorf("failed to move %s into place: %w", path, err)
}

// WriteFile writes data atomically
func (m *Manager) WriteFile(path string, data []byte) error {
	return m.WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// FileExists checks if a file exists at the given path
func (m *Manager) FileExists(path string) bool {
	_, err := os.Stat(m.resolvePath(path))
	return err == nil
}

// EnsureDirectory creates a directory if it doesn't exist
func (m *Manager) EnsureDirectory(path string) error {
	return os.MkdirAll(m.resolvePath(path), 0755)
}

// resolvePath resolves relative paths against the output directory
func (m *Manager) resolvePath(path string) string {
	if filepath.IsAbs(path) || m.outputDir == "" {
		return path
	}
	return filepath.Join(m.outputDir, path)
}
