package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerCreatesDirectoryLazily(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "a", "b", "c")
	manager := NewManager(outputDir)

	_, err := os.Stat(outputDir)
	assert.True(t, os.IsNotExist(err), "directory must not exist before the first write")

	path, err := manager.Save(FileName(500, "jpg"), []byte("photo"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outputDir, "500.jpg"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "photo", string(content))
	assert.Equal(t, 1, manager.WrittenCount())
	assert.Equal(t, outputDir, manager.OutputDir())
}

func TestManagerOverwritesAndLeavesNoTemporaryFiles(t *testing.T) {
	outputDir := t.TempDir()
	manager := NewManager(outputDir)

	_, err := manager.Save("1.bin", []byte("first"))
	require.NoError(t, err)
	_, err = manager.Save("1.bin", []byte("second"))
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(outputDir, "1.bin"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))

	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1.bin", entries[0].Name())
}

func TestManagerSaveFailsWhenDirectoryCannotBeCreated(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	manager := NewManager(filepath.Join(blocker, "sub"))
	_, err := manager.Save("1.jpg", []byte("x"))
	assert.Error(t, err)
	assert.Zero(t, manager.WrittenCount())
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "601.mp4", FileName(601, "mp4"))
	assert.Equal(t, "7.bin", FileName(7, "bin"))
}

func TestCopyFileKeepsModTime(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "10.mpga")
	require.NoError(t, os.WriteFile(src, []byte("audio"), 0644))

	mtime := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, mtime, mtime))

	dst := filepath.Join(dir, "Song.mp3")
	require.NoError(t, CopyFile(src, dst))

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "audio", string(content))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(mtime))

	assert.Error(t, CopyFile(filepath.Join(dir, "missing"), dst))
}
