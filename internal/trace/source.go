// Package trace loads and stores workload traces: one command per line,
// optionally compressed, from local disk, S3 or Google Cloud Storage.
package trace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrNotFound is returned when the trace object does not exist.
var ErrNotFound = errors.New("trace not found")

// Source opens a raw, still compressed, trace stream.
type Source interface {
	Open(ctx context.Context, loc Location) (io.ReadCloser, error)
}

// Location is a parsed trace address.
type Location struct {
	Scheme string // "file", "s3" or "gs"
	Bucket string
	Path   string
}

func (l Location) String() string {
	if l.Scheme == "file" {
		return l.Path
	}
	return l.Scheme + "://" + l.Bucket + "/" + l.Path
}

// ParseLocation accepts a local path, s3://bucket/key or gs://bucket/object.
func ParseLocation(raw string) (Location, error) {
	if !strings.Contains(raw, "://") {
		if raw == "" {
			return Location{}, fmt.Errorf("empty trace location")
		}
		return Location{Scheme: "file", Path: raw}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parsing trace location: %w", err)
	}
	switch u.Scheme {
	case "s3", "gs":
	default:
		return Location{}, fmt.Errorf("unsupported trace scheme %q", u.Scheme)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return Location{}, fmt.Errorf("trace location %q needs a bucket and an object", raw)
	}
	return Location{Scheme: u.Scheme, Bucket: u.Host, Path: key}, nil
}

// FileSource reads traces from local disk.
type FileSource struct{}

func (FileSource) Open(_ context.Context, loc Location) (io.ReadCloser, error) {
	f, err := os.Open(loc.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, loc)
	}
	if err != nil {
		return nil, fmt.Errorf("opening trace: %w", err)
	}
	return f, nil
}

// S3Source reads traces from S3 or an S3-compatible service.
type S3Source struct {
	client *s3.Client
}

// S3Option configures an S3Source.
type S3Option func(*s3.Options)

// WithEndpoint sets a custom endpoint, for S3-compatible services like MinIO.
func WithEndpoint(endpoint string) S3Option {
	return func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) S3Option {
	return func(o *s3.Options) { o.Region = region }
}

// NewS3Source loads the default AWS configuration.
func NewS3Source(ctx context.Context, opts ...S3Option) (*S3Source, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	fns := make([]func(*s3.Options), 0, len(opts))
	for _, opt := range opts {
		fns = append(fns, opt)
	}
	return &S3Source{client: s3.NewFromConfig(cfg, fns...)}, nil
}

func (s *S3Source) Open(ctx context.Context, loc Location) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Path),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, loc)
		}
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	return out.Body, nil
}

// GCSSource reads traces from Google Cloud Storage.
type GCSSource struct {
	client *storage.Client
}

func NewGCSSource(ctx context.Context) (*GCSSource, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}
	return &GCSSource{client: client}, nil
}

func (s *GCSSource) Open(ctx context.Context, loc Location) (io.ReadCloser, error) {
	r, err := s.client.Bucket(loc.Bucket).Object(loc.Path).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, loc)
	}
	if err != nil {
		return nil, fmt.Errorf("creating reader: %w", err)
	}
	return r, nil
}

// Close releases the client.
func (s *GCSSource) Close() error {
	return s.client.Close()
}

// SourceFor builds the source matching loc's scheme.
func SourceFor(ctx context.Context, loc Location, s3opts ...S3Option) (Source, error) {
	switch loc.Scheme {
	case "s3":
		return NewS3Source(ctx, s3opts...)
	case "gs":
		return NewGCSSource(ctx)
	default:
		return FileSource{}, nil
	}
}
