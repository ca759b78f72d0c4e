package journal

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/autopeer-io/teleop/pkg/log"
	"github.com/autopeer-io/teleop/pkg/options"
)

type minioStore struct {
	client     *minio.Client
	bucketName string
	region     string
}

var _ ObjectStore = (*minioStore)(nil)

// NewMinIOStore creates an ObjectStore on an S3 compatible endpoint.
func NewMinIOStore(opts *options.S3Options) (*minioStore, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure:    opts.UseSSL,
		Region:    opts.Region,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &minioStore{
		client:     client,
		bucketName: opts.BucketName,
		region:     opts.Region,
	}, nil
}

// CheckBucket creates the bucket if it does not exist yet.
func (s *minioStore) CheckBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		log.Info("Bucket does not exist, creating...", "bucket", s.bucketName)
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

func (s *minioStore) Put(ctx context.Context, key string, body []byte) error {
	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", s.bucketName, key, err)
	}
	return nil
}

// New returns the journal configured by opts: a minio uploader, or Nop when no
// endpoint is set.
func New(ctx context.Context, actor string, opts *options.S3Options) (Journal, error) {
	if !opts.Enabled() {
		return Nop{}, nil
	}

	store, err := NewMinIOStore(opts)
	if err != nil {
		return nil, err
	}
	if err := store.CheckBucket(ctx); err != nil {
		return nil, err
	}

	log.Info("Command journal enabled", "endpoint", opts.Endpoint, "bucket", opts.BucketName)
	return NewUploader(actor, store, nil), nil
}
