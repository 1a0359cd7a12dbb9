package render

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/assetforge/render-be/internal/domain"
)

const turntableFrames = 24

// TurntableRenderer produces a full rotation of the staged model: one
// frame per 15 degrees plus an mp4 assembled from the frames with
// ffmpeg.
type TurntableRenderer struct {
	frameRate int
}

func NewTurntableRenderer() *TurntableRenderer {
	return &TurntableRenderer{frameRate: 12}
}

func (r *TurntableRenderer) Name() domain.JobType {
	return domain.JobTypeTurntable
}

func (r *TurntableRenderer) Render(ctx context.Context, inputPath, outputDir string) error {
	seed, err := inputSeed(inputPath)
	if err != nil {
		return err
	}

	for frame := 0; frame < turntableFrames; frame++ {
		name := fmt.Sprintf("frame_%03d.png", frame)
		if err := writePNG(filepath.Join(outputDir, name), renderFrame(seed, frame, 512, 512)); err != nil {
			return err
		}
	}

	return r.assembleVideo(ctx, outputDir)
}

// assembleVideo muxes the frame sequence into turntable.mp4.
func (r *TurntableRenderer) assembleVideo(ctx context.Context, outputDir string) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	args := []string{
		"-framerate", fmt.Sprintf("%d", r.frameRate),
		"-i", filepath.Join(outputDir, "frame_%03d.png"),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-y",
		filepath.Join(outputDir, "turntable.mp4"),
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w\nOutput: %s", err, string(out))
	}

	return nil
}
