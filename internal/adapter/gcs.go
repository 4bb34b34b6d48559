package adapter

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
)

// GCSClient defines the Cloud Storage operations used by the artifact store
//
//go:generate mockgen -source=gcs.go -destination=../mocks/gcs.go -package=mocks -mock_names=GCSClient=MockGCSClient
type GCSClient interface {
	// Attrs returns object attributes; storage.ErrObjectNotExist when absent
	Attrs(ctx context.Context, bucket, object string) (*storage.ObjectAttrs, error)

	// Read returns the full object content
	Read(ctx context.Context, bucket, object string) ([]byte, error)

	// CreateIfAbsent writes the object guarded by a DoesNotExist precondition.
	// A lost race surfaces as a googleapi.Error with code 412.
	CreateIfAbsent(ctx context.Context, bucket, object string, data []byte, contentType string) error

	// Close releases the underlying client
	Close() error
}

// RealGCSClient implements GCSClient with the official storage SDK
type RealGCSClient struct {
	client *storage.Client
}

// NewGCSClient creates a client using application default credentials
func NewGCSClient(ctx context.Context) (GCSClient, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &RealGCSClient{client: client}, nil
}

func (c *RealGCSClient) Attrs(ctx context.Context, bucket, object string) (*storage.ObjectAttrs, error) {
	return c.client.Bucket(bucket).Object(object).Attrs(ctx)
}

func (c *RealGCSClient) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	r, err := c.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = r.Close()
	}()
	return io.ReadAll(r)
}

func (c *RealGCSClient) CreateIfAbsent(ctx context.Context, bucket, object string, data []byte, contentType string) error {
	w := c.client.Bucket(bucket).Object(object).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (c *RealGCSClient) Close() error {
	return c.client.Close()
}
