package storage

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

type GCSSource struct {
	client *gcs.Client
	bucket string
	prefix string
}

func NewGCSSource(ctx context.Context, bucket, prefix string) (*GCSSource, error) {
	c, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GCSSource{client: c, bucket: bucket, prefix: strings.TrimPrefix(prefix, "/")}, nil
}

func (s *GCSSource) Close() error { return s.client.Close() }

func (s *GCSSource) Location() string { return "gs://" + s.bucket + "/" + s.prefix }

func (s *GCSSource) Read(ctx context.Context, name string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(s.objectName(name)).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s *GCSSource) List(ctx context.Context, ext string) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &gcs.Query{Prefix: s.prefix})

	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		if strings.HasSuffix(strings.ToLower(attrs.Name), strings.ToLower(ext)) {
			names = append(names, strings.TrimPrefix(attrs.Name, s.prefix))
		}
	}
	slices.Sort(names)
	return names, nil
}

func (s *GCSSource) objectName(name string) string {
	if s.prefix == "" {
		return name
	}
	return strings.TrimSuffix(s.prefix, "/") + "/" + strings.TrimPrefix(name, "/")
}
