package artifact

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"

	"cloud.google.com/go/storage"
	"github.com/gabriel-vasile/mimetype"
	"google.golang.org/api/googleapi"

	"github.com/feral-file/ff-image-optimizer/internal/adapter"
	"github.com/feral-file/ff-image-optimizer/internal/domain"
)

// gcsStore keeps artifacts as objects in a Cloud Storage bucket
type gcsStore struct {
	client adapter.GCSClient
	bucket string
	prefix string
}

// NewGCSStore creates a Store backed by bucket; object names are prefix + path
func NewGCSStore(client adapter.GCSClient, bucket, prefix string) Store {
	return &gcsStore{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

func (s *gcsStore) object(p string) string {
	if s.prefix == "" {
		return p
	}
	return path.Join(s.prefix, p)
}

// Exists reports whether the object is present
func (s *gcsStore) Exists(ctx context.Context, p string) (bool, error) {
	_, err := s.client.Attrs(ctx, s.bucket, s.object(p))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get attributes of gs://%s/%s: %w", s.bucket, s.object(p), err)
	}
	return true, nil
}

// Read returns the object content
func (s *gcsStore) Read(ctx context.Context, p string) ([]byte, error) {
	data, err := s.client.Read(ctx, s.bucket, s.object(p))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: gs://%s/%s", domain.ErrArtifactNotFound, s.bucket, s.object(p))
		}
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", s.bucket, s.object(p), err)
	}
	return data, nil
}

// WriteIfAbsent relies on the DoesNotExist precondition; a failed precondition
// means another writer got there first
func (s *gcsStore) WriteIfAbsent(ctx context.Context, p string, data []byte) (bool, error) {
	contentType := mimetype.Detect(data).String()
	err := s.client.CreateIfAbsent(ctx, s.bucket, s.object(p), data, contentType)
	if err != nil {
		if isPreconditionFailed(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to write gs://%s/%s: %w", s.bucket, s.object(p), err)
	}
	return true, nil
}

func isPreconditionFailed(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed
}
