package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/composables/internal/config"
	"github.com/vango-dev/composables/internal/errors"
	"github.com/vango-dev/composables/pkg/storage"
)

// openBackend opens the store configured for local storage. The returned
// close func releases it.
func openBackend(cfg *config.Config) (storage.Storage, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return storage.NewMemory(storage.MemoryOptions{Quota: cfg.Storage.Quota}), noop, nil

	case config.BackendBolt:
		path := cfg.BoltPath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, errors.New("E202").WithDetail(path).Wrap(err)
		}
		b, err := storage.OpenBolt(path, storage.BoltOptions{})
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil

	case config.BackendS3:
		return storage.NewS3(newS3Client(cfg.Storage), storage.S3Options{
			Bucket: cfg.Storage.Bucket,
			Prefix: cfg.Storage.Prefix,
		}), noop, nil
	}
	return nil, nil, errors.New("E203").WithDetailf("storage.backend %q", cfg.Storage.Backend)
}

// newS3Client builds a client for the configured region and endpoint.
// Credentials come from the standard AWS_* environment variables.
func newS3Client(sc config.StorageConfig) *s3.Client {
	opts := s3.Options{
		Region:      sc.Region,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(envCredentials)),
	}
	if sc.Endpoint != "" {
		opts.BaseEndpoint = aws.String(sc.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

func envCredentials(context.Context) (aws.Credentials, error) {
	creds := aws.Credentials{
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "EnvironmentVariables",
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return aws.Credentials{}, errors.New("E202").
			WithDetail("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set for the s3 backend")
	}
	return creds, nil
}
