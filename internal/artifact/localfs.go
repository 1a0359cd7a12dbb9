package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/assetforge/render-be/internal/domain"
)

// LocalFSStore keeps artifacts on the local filesystem under
// root/bucket/key. It backs development setups and the pipeline tests.
type LocalFSStore struct {
	root   string
	bucket string
}

// NewLocalFSStore creates a filesystem-backed store rooted at root.
func NewLocalFSStore(root, bucket string) *LocalFSStore {
	return &LocalFSStore{root: root, bucket: bucket}
}

func (l *LocalFSStore) objectPath(bucket, key string) string {
	return filepath.Join(l.root, bucket, filepath.FromSlash(key))
}

func (l *LocalFSStore) Fetch(ctx context.Context, ref domain.ArtifactRef, localPath string) error {
	bucket := ref.Bucket
	if bucket == "" {
		bucket = l.bucket
	}

	src, err := os.Open(l.objectPath(bucket, ref.Key))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, ref.Key)
		}
		return fmt.Errorf("%w: %v", domain.ErrArtifactUnavailable, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("failed to create local directory: %w", err)
	}

	dst, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to write local file: %w", err)
	}

	return nil
}

func (l *LocalFSStore) PublishFile(ctx context.Context, key, localPath string) (domain.ArtifactRef, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("failed to open local file: %w", err)
	}
	defer src.Close()

	return l.put(key, src)
}

func (l *LocalFSStore) PublishBytes(ctx context.Context, key string, data []byte) (domain.ArtifactRef, error) {
	dst := l.objectPath(l.bucket, key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("%w: %v", domain.ErrArtifactUnavailable, err)
	}

	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("%w: %v", domain.ErrArtifactUnavailable, err)
	}

	return domain.ArtifactRef{Bucket: l.bucket, Key: key, URL: l.URL(key)}, nil
}

func (l *LocalFSStore) put(key string, src io.Reader) (domain.ArtifactRef, error) {
	dst := l.objectPath(l.bucket, key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("%w: %v", domain.ErrArtifactUnavailable, err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("%w: %v", domain.ErrArtifactUnavailable, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, src); err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("%w: %v", domain.ErrArtifactUnavailable, err)
	}

	return domain.ArtifactRef{Bucket: l.bucket, Key: key, URL: l.URL(key)}, nil
}

func (l *LocalFSStore) URL(key string) string {
	return fmt.Sprintf("file://%s", l.objectPath(l.bucket, key))
}

func (l *LocalFSStore) Bucket() string {
	return l.bucket
}
