// Package sightingstore retrieves the sighting dataset from object storage and
// exposes it as decoded records, optionally cached across requests.
package sightingstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog"

	"github.com/wildtrack/wildtrack-relay/sightings"
)

const DefaultKey = "animals.csv"

// Store returns the complete raw dataset.
type Store interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Dataset returns the decoded dataset.
type Dataset interface {
	Records(ctx context.Context) ([]sightings.Record, error)
}

type S3Store struct {
	S3     s3iface.S3API
	Bucket string
	Key    string
}

// Fetch reads the whole object before returning; the header line must be
// available before any row is decoded.
func (s *S3Store) Fetch(ctx context.Context) ([]byte, error) {
	key := s.Key
	if key == "" {
		key = DefaultKey
	}

	defer func(begin time.Time) {
		zerolog.Ctx(ctx).Debug().
			Dur("elapsed", time.Since(begin)).
			Str("bucket", s.Bucket).
			Str("key", key).
			Msg("fetched dataset")
	}(time.Now())

	output, err := s.S3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object s3://%v/%v: %w", s.Bucket, key, err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object s3://%v/%v: %w", s.Bucket, key, err)
	}
	return data, nil
}

// FileStore reads the dataset from the local filesystem.
type FileStore struct {
	Path string
}

func (f *FileStore) Fetch(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %v: %w", f.Path, err)
	}
	return data, nil
}

// Loader fetches and decodes the dataset on every call.
type Loader struct {
	Store Store
}

func (l *Loader) Records(ctx context.Context) ([]sightings.Record, error) {
	data, err := l.Store.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return sightings.Decode(data), nil
}
