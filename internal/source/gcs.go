package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	gcs "cloud.google.com/go/storage"
)

// GCS reads loadouts from Google Cloud Storage.
type GCS struct {
	client *gcs.Client
}

// NewGCS creates a GCS source.
// It uses Application Default Credentials (works with Workload Identity, SA keys, gcloud auth).
func NewGCS(ctx context.Context) (*GCS, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCS{client: client}, nil
}

// Fetch reads gs://bucket/key.
func (s *GCS) Fetch(ctx context.Context, location string) ([]byte, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}
	if loc.Scheme != "gs" {
		return nil, fmt.Errorf("gcs source cannot fetch %s", location)
	}

	r, err := s.client.Bucket(loc.Bucket).Object(loc.Key).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, fmt.Errorf("gcs read %s: %w", loc.Key, fs.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("gcs read %s: %w", loc.Key, err)
	}
	defer r.Close()
	return readLimited(r)
}

// Close closes the underlying client.
func (s *GCS) Close() error {
	return s.client.Close()
}
