package render

import (
	"context"
	"crypto/sha256"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/assetforge/render-be/internal/domain"
)

// StudioRenderer produces a single hero shot of the staged model.
// The frame content is derived from the input bytes so the same model
// always yields the same image.
type StudioRenderer struct{}

func NewStudioRenderer() *StudioRenderer {
	return &StudioRenderer{}
}

func (r *StudioRenderer) Name() domain.JobType {
	return domain.JobTypeStudio
}

func (r *StudioRenderer) Render(ctx context.Context, inputPath, outputDir string) error {
	seed, err := inputSeed(inputPath)
	if err != nil {
		return err
	}

	return writePNG(filepath.Join(outputDir, "hero.png"), renderFrame(seed, 0, 512, 512))
}

// inputSeed hashes the staged model file so render output is a pure
// function of the input.
func inputSeed(inputPath string) ([32]byte, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return [32]byte{}, fmt.Errorf("failed to read staged input: %w", err)
	}
	return sha256.Sum256(data), nil
}

// renderFrame draws a deterministic gradient keyed by the input hash
// and the frame index.
func renderFrame(seed [32]byte, frame, w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	base := color.RGBA{
		R: seed[frame%len(seed)],
		G: seed[(frame+7)%len(seed)],
		B: seed[(frame+13)%len(seed)],
		A: 0xff,
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: base.R + uint8(x*255/w)/4,
				G: base.G + uint8(y*255/h)/4,
				B: base.B,
				A: 0xff,
			})
		}
	}
	return img
}
