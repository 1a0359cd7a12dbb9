package artifact

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/assetforge/render-be/internal/domain"
)

// Store is the artifact store contract. Keys are deterministic per
// job, so re-running a pipeline overwrites its own earlier objects
// instead of accumulating duplicates.
type Store interface {
	// Fetch downloads the referenced object to localPath, creating
	// parent directories as needed. A missing object yields
	// domain.ErrArtifactNotFound.
	Fetch(ctx context.Context, ref domain.ArtifactRef, localPath string) error

	// PublishFile uploads the local file under key and returns the
	// resulting reference.
	PublishFile(ctx context.Context, key, localPath string) (domain.ArtifactRef, error)

	// PublishBytes uploads an in-memory payload under key.
	PublishBytes(ctx context.Context, key string, data []byte) (domain.ArtifactRef, error)

	// URL returns the public URL for a key.
	URL(key string) string

	// Bucket returns the bucket this store writes to.
	Bucket() string
}

// Presigner is implemented by stores that can hand out time-limited
// upload URLs so clients push inputs directly to storage.
type Presigner interface {
	PresignUpload(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)
}

var contentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".mp4":  "video/mp4",
	".json": "application/json",
	".zip":  "application/zip",
	".glb":  "model/gltf-binary",
	".gltf": "model/gltf+json",
	".obj":  "application/octet-stream",
	".fbx":  "application/octet-stream",
}

// ContentTypeFor maps a key's extension to a MIME type, falling back
// to application/octet-stream.
func ContentTypeFor(key string) string {
	ext := strings.ToLower(filepath.Ext(key))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
