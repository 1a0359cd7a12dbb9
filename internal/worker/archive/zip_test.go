package archive

import (
	"archive/zip"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZipArchiver(t *testing.T) {
	if _, err := exec.LookPath("zip"); err != nil {
		t.Skip("zip not installed")
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hero.png"), []byte("png bytes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.json"), []byte("{}"), 0o644))

	archivePath := filepath.Join(t.TempDir(), "job-1.zip")
	require.NoError(t, NewZipArchiver("").Archive(context.Background(), dir, archivePath))

	reader, err := zip.OpenReader(archivePath)
	require.NoError(t, err)
	defer reader.Close()

	names := make([]string, 0, len(reader.File))
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "hero.png")
	assert.Contains(t, names, "hello.json")
}

func TestZipArchiver_MissingDir(t *testing.T) {
	if _, err := exec.LookPath("zip"); err != nil {
		t.Skip("zip not installed")
	}

	err := NewZipArchiver("").Archive(context.Background(), filepath.Join(t.TempDir(), "nope"), filepath.Join(t.TempDir(), "out.zip"))
	assert.Error(t, err)
}
