// Package branding implements white-label customization: tenant asset
// storage, generated stylesheets, and branded email rendering.
package branding

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"google.golang.org/api/option"

	"auditdna/internal/config"
)

// AssetStore persists tenant branding assets (logos, login backgrounds) and
// hands out time-limited download URLs. Implementations: S3AssetStore,
// AzureAssetStore, GCSAssetStore.
type AssetStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// NewAssetStore builds the store named by the configuration. Returns nil when
// no provider is configured; branding then falls back to caller-hosted URLs.
func NewAssetStore(cfg config.AssetStoreConfig) (AssetStore, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "s3":
		return NewS3AssetStore(cfg), nil
	case "azure":
		return NewAzureAssetStore(cfg)
	case "gcs":
		return NewGCSAssetStore(context.Background(), cfg)
	default:
		return nil, fmt.Errorf("unsupported asset store provider %q", cfg.Provider)
	}
}

// === S3 ===

var _ AssetStore = (*S3AssetStore)(nil)

// S3AssetStore stores assets in S3 or any S3-compatible endpoint.
type S3AssetStore struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
}

// NewS3AssetStore creates an S3-backed asset store. A custom endpoint enables
// S3-compatible providers, which require path-style addressing.
func NewS3AssetStore(cfg config.AssetStoreConfig) *S3AssetStore {
	opts := s3.Options{
		Region: cfg.S3Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.S3KeyID, cfg.S3Secret, "",
		),
	}
	if cfg.S3Endpoint != "" {
		opts.BaseEndpoint = aws.String("https://" + cfg.S3Endpoint)
		opts.UsePathStyle = true
	}

	client := s3.New(opts)
	return &S3AssetStore{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.S3Bucket,
	}
}

// Put uploads one asset.
func (s *S3AssetStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put asset %q: %w", key, err)
	}
	return nil
}

// SignedURL generates a presigned GET URL for an asset.
func (s *S3AssetStore) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	result, err := s.presignClient.PresignGetObject(ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(expiry),
	)
	if err != nil {
		return "", fmt.Errorf("presign asset %q: %w", key, err)
	}
	return result.URL, nil
}

// === Azure Blob Storage ===

var _ AssetStore = (*AzureAssetStore)(nil)

// AzureAssetStore stores assets in Azure Blob Storage using shared-key
// credentials for SAS generation.
type AzureAssetStore struct {
	client    *azblob.Client
	container string
}

// NewAzureAssetStore creates an Azure-backed asset store.
func NewAzureAssetStore(cfg config.AssetStoreConfig) (*AzureAssetStore, error) {
	cred, err := azblob.NewSharedKeyCredential(cfg.AzureAccountName, cfg.AzureAccountKey)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net", cfg.AzureAccountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure blob client: %w", err)
	}

	return &AzureAssetStore{client: client, container: cfg.AzureContainer}, nil
}

// Put uploads one asset.
func (s *AzureAssetStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.client.UploadBuffer(ctx, s.container, key, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("put asset %q: %w", key, err)
	}
	return nil
}

// SignedURL generates a read-only SAS URL for an asset.
func (s *AzureAssetStore) SignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	blobClient := s.client.ServiceClient().NewContainerClient(s.container).NewBlobClient(key)
	sasURL, err := blobClient.GetSASURL(sas.BlobPermissions{Read: true}, time.Now().Add(expiry), nil)
	if err != nil {
		return "", fmt.Errorf("generate SAS URL for %q: %w", key, err)
	}
	return sasURL, nil
}

// === Google Cloud Storage ===

var _ AssetStore = (*GCSAssetStore)(nil)

// GCSAssetStore stores assets in Google Cloud Storage.
type GCSAssetStore struct {
	client *storage.Client
	bucket string
}

// NewGCSAssetStore creates a GCS-backed asset store from a service-account
// key file.
func NewGCSAssetStore(ctx context.Context, cfg config.AssetStoreConfig) (*GCSAssetStore, error) {
	client, err := storage.NewClient(ctx, option.WithCredentialsFile(cfg.GCSKeyFilePath))
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &GCSAssetStore{client: client, bucket: cfg.GCSBucket}, nil
}

// Put uploads one asset.
func (s *GCSAssetStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("put asset %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("put asset %q: %w", key, err)
	}
	return nil
}

// SignedURL generates a signed GET URL for an asset.
func (s *GCSAssetStore) SignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	signedURL, err := s.client.Bucket(s.bucket).SignedURL(key, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(expiry),
	})
	if err != nil {
		return "", fmt.Errorf("sign asset URL for %q: %w", key, err)
	}
	return signedURL, nil
}
