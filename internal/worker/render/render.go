package render

import (
	"context"
	"fmt"

	"github.com/assetforge/render-be/internal/domain"
)

// Renderer produces the output files for one job type. Implementations
// write their artifacts into outputDir and must be safe to re-run: a
// second invocation for the same job overwrites the same files.
type Renderer interface {
	// Name identifies the render profile.
	Name() domain.JobType

	// Render reads the staged input at inputPath and writes outputs
	// into outputDir.
	Render(ctx context.Context, inputPath, outputDir string) error
}

// Registry resolves a renderer by job type.
type Registry struct {
	renderers map[domain.JobType]Renderer
}

// NewRegistry builds the registry over the full render profile set.
func NewRegistry() *Registry {
	r := &Registry{renderers: make(map[domain.JobType]Renderer)}
	for _, renderer := range []Renderer{
		NewHelloRenderer(),
		NewStudioRenderer(),
		NewTurntableRenderer(),
	} {
		r.renderers[renderer.Name()] = renderer
	}
	return r
}

// Lookup returns the renderer for jobType, or ErrUnsupportedJobType.
func (r *Registry) Lookup(jobType domain.JobType) (Renderer, error) {
	renderer, ok := r.renderers[jobType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedJobType, jobType)
	}
	return renderer, nil
}
