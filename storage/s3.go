package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"mime"
	"path"
	"strings"
	"time"

	// Register the decoders the format sniffer understands.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"gingallery/config"
)

// keyPrefix namespaces every gallery object inside the bucket, so the sync
// listing only ever sees assets this service created.
const keyPrefix = "gallery/"

// UploadResult is what the media store reports back after storing a binary.
// The record store copies these fields verbatim.
type UploadResult struct {
	AssetID  string
	URL      string
	Format   string
	Width    int
	Height   int
	ByteSize int64
}

// AssetInfo is the metadata held by the media store for one asset.
type AssetInfo struct {
	AssetID      string    `json:"assetId"`
	ContentType  string    `json:"contentType"`
	ByteSize     int64     `json:"byteSize"`
	LastModified time.Time `json:"lastModified"`
}

// MediaStore wraps the S3 API behind the handful of operations the gallery
// needs. Works against AWS proper or any S3-compatible endpoint.
type MediaStore struct {
	client    *s3.Client
	presign   *s3.PresignClient
	bucket    string
	region    string
	endpoint  string
	signedTTL time.Duration
}

func NewMediaStore(ctx context.Context, cfg config.Config) (*MediaStore, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("BUCKET_NAME is not configured")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKeyID != "" && cfg.S3SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		if cfg.S3ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	return &MediaStore{
		client:    client,
		presign:   s3.NewPresignClient(client),
		bucket:    cfg.S3Bucket,
		region:    cfg.S3Region,
		endpoint:  cfg.S3Endpoint,
		signedTTL: cfg.SignedURLTTL,
	}, nil
}

// Upload stores data under a fresh object key and reports the assigned
// asset id plus the descriptive metadata derived from the payload.
func (m *MediaStore) Upload(ctx context.Context, data []byte, contentType string) (*UploadResult, error) {
	format, width, height := sniffImage(data, contentType)
	assetID := newAssetID(format)
	return m.put(ctx, assetID, data, contentType, format, width, height)
}

// Replace overwrites the asset stored under assetID with data. The media
// store has no in-place replace, so this is a delete followed by a re-upload
// under the same key.
func (m *MediaStore) Replace(ctx context.Context, assetID string, data []byte, contentType string) (*UploadResult, error) {
	if err := m.Delete(ctx, assetID); err != nil {
		return nil, err
	}
	format, width, height := sniffImage(data, contentType)
	return m.put(ctx, assetID, data, contentType, format, width, height)
}

func (m *MediaStore) put(ctx context.Context, assetID string, data []byte, contentType, format string, width, height int) (*UploadResult, error) {
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(assetID),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", assetID, err)
	}

	return &UploadResult{
		AssetID:  assetID,
		URL:      m.objectURL(assetID),
		Format:   format,
		Width:    width,
		Height:   height,
		ByteSize: int64(len(data)),
	}, nil
}

// Delete removes the asset. Deleting a missing key is not an error at the
// S3 level and is treated as success here too.
func (m *MediaStore) Delete(ctx context.Context, assetID string) error {
	_, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(assetID),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", assetID, err)
	}
	return nil
}

// Metadata fetches the stored metadata for one asset.
func (m *MediaStore) Metadata(ctx context.Context, assetID string) (*AssetInfo, error) {
	out, err := m.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(assetID),
	})
	if err != nil {
		return nil, fmt.Errorf("head object %s: %w", assetID, err)
	}

	info := &AssetInfo{AssetID: assetID}
	if out.ContentType != nil {
		info.ContentType = *out.ContentType
	}
	if out.ContentLength != nil {
		info.ByteSize = *out.ContentLength
	}
	if out.LastModified != nil {
		info.LastModified = *out.LastModified
	}
	return info, nil
}

// List returns up to max asset ids present in the store. One bounded call,
// never paginated further; assets beyond the cap stay invisible to callers.
func (m *MediaStore) List(ctx context.Context, max int32) ([]string, error) {
	out, err := m.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(m.bucket),
		Prefix:  aws.String(keyPrefix),
		MaxKeys: aws.Int32(max),
	})
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}

	ids := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		if obj.Key != nil {
			ids = append(ids, *obj.Key)
		}
	}
	return ids, nil
}

// SignedURL builds a short-lived presigned GET URL for the asset.
func (m *MediaStore) SignedURL(ctx context.Context, assetID string) (string, error) {
	req, err := m.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(assetID),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = m.signedTTL
	})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", assetID, err)
	}
	return req.URL, nil
}

func (m *MediaStore) objectURL(assetID string) string {
	if m.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(m.endpoint, "/"), m.bucket, assetID)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", m.bucket, m.region, assetID)
}

// newAssetID mints an object key: gallery/<uuid>.<ext>.
func newAssetID(format string) string {
	if format == "" {
		return keyPrefix + uuid.NewString()
	}
	return keyPrefix + uuid.NewString() + "." + format
}

// sniffImage derives format and pixel dimensions from the payload itself.
// Falls back to the declared content type for the format when the payload
// is not a registered image format; dimensions are zero in that case.
func sniffImage(data []byte, contentType string) (format string, width, height int) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		return format, cfg.Width, cfg.Height
	}
	return formatFromContentType(contentType), 0, 0
}

func formatFromContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	ext := path.Base(mediaType)
	if ext == "." || ext == "/" || !strings.HasPrefix(mediaType, "image/") {
		return ""
	}
	return ext
}
