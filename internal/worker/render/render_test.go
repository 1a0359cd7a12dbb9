package render

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetforge/render-be/internal/domain"
)

func TestRegistry_CoversAllJobTypes(t *testing.T) {
	registry := NewRegistry()

	for _, jobType := range domain.ValidJobTypes {
		renderer, err := registry.Lookup(jobType)
		require.NoError(t, err, "job type %s", jobType)
		assert.Equal(t, jobType, renderer.Name())
	}
}

func TestRegistry_UnknownJobType(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Lookup(domain.JobType("wireframe"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedJobType)
}

func TestHelloRenderer(t *testing.T) {
	outputDir := t.TempDir()

	err := NewHelloRenderer().Render(context.Background(), "", outputDir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outputDir, "hello.json"))
	require.NoError(t, err)

	var greeting map[string]string
	require.NoError(t, json.Unmarshal(data, &greeting))
	assert.NotEmpty(t, greeting["message"])

	assertValidPNG(t, filepath.Join(outputDir, "hero.png"))
}

func TestStudioRenderer(t *testing.T) {
	inputPath := writeTestModel(t)
	outputDir := t.TempDir()

	err := NewStudioRenderer().Render(context.Background(), inputPath, outputDir)
	require.NoError(t, err)

	assertValidPNG(t, filepath.Join(outputDir, "hero.png"))
}

func TestStudioRenderer_DeterministicForSameInput(t *testing.T) {
	inputPath := writeTestModel(t)
	first := t.TempDir()
	second := t.TempDir()

	renderer := NewStudioRenderer()
	require.NoError(t, renderer.Render(context.Background(), inputPath, first))
	require.NoError(t, renderer.Render(context.Background(), inputPath, second))

	a, err := os.ReadFile(filepath.Join(first, "hero.png"))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(second, "hero.png"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestStudioRenderer_MissingInput(t *testing.T) {
	err := NewStudioRenderer().Render(context.Background(), filepath.Join(t.TempDir(), "missing.glb"), t.TempDir())
	assert.Error(t, err)
}

func TestTurntableRenderer(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	inputPath := writeTestModel(t)
	outputDir := t.TempDir()

	err := NewTurntableRenderer().Render(context.Background(), inputPath, outputDir)
	require.NoError(t, err)

	for frame := 0; frame < turntableFrames; frame++ {
		assertValidPNG(t, filepath.Join(outputDir, fmt.Sprintf("frame_%03d.png", frame)))
	}

	stat, err := os.Stat(filepath.Join(outputDir, "turntable.mp4"))
	require.NoError(t, err)
	assert.Positive(t, stat.Size())
}

func writeTestModel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.glb")
	require.NoError(t, os.WriteFile(path, []byte("glTF fake model bytes"), 0o644))
	return path
}

func assertValidPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data[:4])
}
