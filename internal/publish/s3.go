package publish

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"runtime"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/sitepipe/internal/config"
	"github.com/vango-dev/sitepipe/internal/errors"
)

// PutObjectAPI is the part of the S3 client the mirror uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Options configures the object storage target.
type S3Options struct {
	// Dist is the absolute output directory.
	Dist string

	Bucket string
	Prefix string

	Client PutObjectAPI
	Logger *slog.Logger
}

// S3 mirrors the output directory into a bucket.
type S3 struct {
	opts S3Options
}

// NewS3 creates an S3 mirror.
func NewS3(opts S3Options) *S3 {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &S3{opts: opts}
}

// NewS3Client builds a client from the publish.s3 section. Credentials come
// from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN.
func NewS3Client(cfg config.S3Config) *s3.Client {
	region := cfg.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	opts := s3.Options{
		Region: region,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
			if id == "" || secret == "" {
				return aws.Credentials{}, fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
			}
			return aws.Credentials{
				AccessKeyID:     id,
				SecretAccessKey: secret,
				SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
				Source:          "environment",
			}, nil
		})),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

// Upload puts every file under Dist into the bucket.
func (m *S3) Upload(ctx context.Context) error {
	var files []string
	err := filepath.WalkDir(m.opts.Dist, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return errors.New("E404").WithDetail(m.opts.Dist).Wrap(err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0) * 2)
	sizes := make([]int64, len(files))
	for i, p := range files {
		g.Go(func() error {
			n, err := m.put(ctx, p)
			sizes[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var total int64
	for _, n := range sizes {
		total += n
	}
	m.opts.Logger.Info(fmt.Sprintf("uploaded %d files (%s) to s3://%s/%s", len(files), humanize.Bytes(uint64(total)), m.opts.Bucket, m.opts.Prefix))
	return nil
}

func (m *S3) put(ctx context.Context, p string) (int64, error) {
	rel, err := filepath.Rel(m.opts.Dist, p)
	if err != nil {
		return 0, err
	}
	key := m.Key(filepath.ToSlash(rel))

	data, err := os.ReadFile(p)
	if err != nil {
		return 0, errors.New("E404").WithDetail(p).Wrap(err)
	}

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = m.opts.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.opts.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return 0, errors.New("E404").WithDetail(fmt.Sprintf("s3://%s/%s", m.opts.Bucket, key)).Wrap(err)
	}
	return int64(len(data)), nil
}

// Key returns the object key for a slash-separated path relative to Dist.
func (m *S3) Key(rel string) string {
	if m.opts.Prefix == "" {
		return rel
	}
	return path.Join(m.opts.Prefix, rel)
}
