package render

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/assetforge/render-be/internal/domain"
)

// HelloRenderer is the smoke-test profile. It ignores the staged input
// and produces a greeting document plus a small test card image, which
// exercises the whole pipeline end to end.
type HelloRenderer struct{}

func NewHelloRenderer() *HelloRenderer {
	return &HelloRenderer{}
}

func (r *HelloRenderer) Name() domain.JobType {
	return domain.JobTypeHello
}

func (r *HelloRenderer) Render(ctx context.Context, inputPath, outputDir string) error {
	greeting := map[string]string{
		"message":     "hello from the render pipeline",
		"rendered_at": time.Now().UTC().Format(time.RFC3339),
	}

	data, err := json.MarshalIndent(greeting, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode greeting: %w", err)
	}

	if err := os.WriteFile(filepath.Join(outputDir, "hello.json"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write greeting: %w", err)
	}

	if err := writePNG(filepath.Join(outputDir, "hero.png"), testCard(64, 64)); err != nil {
		return err
	}

	return nil
}

// testCard draws a fixed checker pattern.
func testCard(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/8+y/8)%2 == 0 {
				img.Set(x, y, color.RGBA{R: 0x33, G: 0x66, B: 0x99, A: 0xff})
			} else {
				img.Set(x, y, color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff})
			}
		}
	}
	return img
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}

	return nil
}
