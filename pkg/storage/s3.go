package storage

import (
	"context"
	stderrors "errors"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vango-dev/composables/internal/errors"
	"github.com/vango-dev/composables/pkg/opt"
)

// S3API is the subset of *s3.Client used by S3.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Options configures NewS3.
type S3Options struct {
	Bucket string

	// Prefix is prepended to every key, e.g. "prefs/local/".
	Prefix string

	// Timeout bounds each request. Zero means 10 seconds.
	Timeout time.Duration
}

// S3 is a Storage whose keys are objects in an S3 bucket.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	store := storage.NewS3(s3.NewFromConfig(cfg), storage.S3Options{
//	    Bucket: "my-bucket",
//	    Prefix: "prefs/",
//	})
type S3 struct {
	client  S3API
	bucket  string
	prefix  string
	timeout time.Duration
}

// maxDeleteBatch is the S3 limit on keys per DeleteObjects call.
const maxDeleteBatch = 1000

// NewS3 creates an S3-backed store.
func NewS3(client S3API, opts S3Options) *S3 {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &S3{
		client:  client,
		bucket:  opts.Bucket,
		prefix:  opts.Prefix,
		timeout: timeout,
	}
}

func (s *S3) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *S3) fail(op, key string, err error) error {
	return errors.New("E202").WithDetailf("s3 %s s3://%s/%s%s", op, s.bucket, s.prefix, key).Wrap(err)
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	return stderrors.As(err, &nsk) || stderrors.As(err, &nf)
}

// GetItem implements Storage.
func (s *S3) GetItem(key string) (opt.Value[string], error) {
	ctx, cancel := s.requestContext()
	defer cancel()

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + key),
	})
	if err != nil {
		if isNotFound(err) {
			return opt.Null[string](), nil
		}
		return opt.Null[string](), s.fail("get", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return opt.Null[string](), s.fail("read", key, err)
	}
	return opt.Of(string(data)), nil
}

// SetItem implements Storage.
func (s *S3) SetItem(key, value string) error {
	ctx, cancel := s.requestContext()
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.prefix + key),
		Body:        strings.NewReader(value),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return s.fail("put", key, err)
	}
	return nil
}

// RemoveItem implements Storage. Removing a missing key is not an error.
func (s *S3) RemoveItem(key string) error {
	ctx, cancel := s.requestContext()
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + key),
	})
	if err != nil && !isNotFound(err) {
		return s.fail("delete", key, err)
	}
	return nil
}

// Keys implements Storage. Keys are returned without the prefix.
func (s *S3) Keys() ([]string, error) {
	ctx, cancel := s.requestContext()
	defer cancel()

	var keys []string
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, s.fail("list", "", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(obj.Key), s.prefix))
		}
	}
	return keys, nil
}

// Clear implements Storage by deleting every object under the prefix.
func (s *S3) Clear() error {
	keys, err := s.Keys()
	if err != nil {
		return err
	}

	ctx, cancel := s.requestContext()
	defer cancel()

	for start := 0; start < len(keys); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(keys))
		ids := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(s.prefix + k)})
		}
		_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return s.fail("clear", "", err)
		}
	}
	return nil
}
