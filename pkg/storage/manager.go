package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Manager writes downloaded media into one output directory
type Manager struct {
	outputDir string
	created   bool
	written   int
	mu        sync.Mutex
}

// NewManager creates a manager for outputDir. The directory is created
// on the first write, not here.
func NewManager(outputDir string) *Manager {
	return &Manager{outputDir: outputDir}
}

// FileName returns the on-disk name for a message attachment
func FileName(messageID int, ext string) string {
	return strconv.Itoa(messageID) + "." + ext
}

// ensureDir creates the output directory once
func (m *Manager) ensureDir() error {
	if m.created {
		return nil
	}
	if err := os.MkdirAll(m.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	m.created = true
	return nil
}

// Save writes data to name inside the output directory through a
// temporary file and rename, replacing any previous file
func (m *Manager) Save(name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureDir(); err != nil {
		return "", err
	}

	filename := filepath.Join(m.outputDir, name)
	if err := writeAtomic(filename, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return "", err
	}

	m.written++
	return filename, nil
}

// writeAtomic streams into filename.tmp and renames it into place
func writeAtomic(filename string, fill func(io.Writer) error) error {
	tempFile := filename + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	err = fill(out)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write file data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// CopyFile copies src to dst atomically and keeps the source modification time
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}

	if err := writeAtomic(dst, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	}); err != nil {
		return err
	}

	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// OutputDir returns the output directory path
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// WrittenCount returns how many files Save has written
func (m *Manager) WrittenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written
}
