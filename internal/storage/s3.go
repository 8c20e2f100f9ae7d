package storage

import (
	"alcyxob/todo-app/internal/config" // Import your config package
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3API is the subset of the S3 client used for non-presigned calls.
type S3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Presigner is the subset of s3.PresignClient used for upload URLs.
type S3Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var (
	_ S3API       = (*s3.Client)(nil)
	_ S3Presigner = (*s3.PresignClient)(nil)
)

// s3Storage implements the AttachmentStorage interface using an S3-compatible backend.
type s3Storage struct {
	client        S3API       // Regular client for HeadObject / DeleteObject
	presignClient S3Presigner // Special client for generating presigned URLs
	bucketName    string
	publicBaseURL string
	expires       time.Duration
	logger        *slog.Logger
}

// NewS3Storage creates a new S3 storage service instance.
func NewS3Storage(ctx context.Context, cfg config.S3Config, logger *slog.Logger) (AttachmentStorage, error) {
	opts := []func(*awsCfg.LoadOptions) error{
		awsCfg.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsCfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config for s3: %w", err)
	}

	s3Client := s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			// S3-compatible endpoints such as MinIO need path-style addressing
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	logger.Info("S3 storage initialized", "endpoint", cfg.Endpoint, "bucket", cfg.BucketName)

	return newS3Storage(s3Client, s3.NewPresignClient(s3Client), cfg, logger), nil
}

func newS3Storage(client S3API, presigner S3Presigner, cfg config.S3Config, logger *slog.Logger) *s3Storage {
	expires := cfg.UploadURLExpiration
	if expires <= 0 {
		expires = DefaultUploadURLExpiry
	}
	return &s3Storage{
		client:        client,
		presignClient: presigner,
		bucketName:    cfg.BucketName,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		expires:       expires,
		logger:        logger,
	}
}

// UploadURL creates a presigned PUT URL for the attachment. The uploader must
// send the x-amz-meta-userid header that is part of the signature.
func (s *s3Storage) UploadURL(ctx context.Context, userID, todoID string) (string, error) {
	objectKey := AttachmentKey(userID, todoID)

	presignParams := &s3.PutObjectInput{
		Bucket:   aws.String(s.bucketName),
		Key:      aws.String(objectKey),
		Metadata: map[string]string{MetadataUserID: userID},
	}

	req, err := s.presignClient.PresignPutObject(ctx, presignParams, s3.WithPresignExpires(s.expires))
	if err != nil {
		s.logger.Error("failed to presign upload", "key", objectKey, "error", err)
		return "", fmt.Errorf("presign put %s: %w", objectKey, err)
	}

	s.logger.Info("presigned upload url", "userId", userID, "key", objectKey, "expires", s.expires)
	return req.URL, nil
}

// PublicURL builds the canonical URL of the attachment object.
func (s *s3Storage) PublicURL(userID, todoID string) string {
	objectKey := url.PathEscape(AttachmentKey(userID, todoID))
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + objectKey
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucketName, objectKey)
}

// DeleteObject removes the attachment object from the bucket.
func (s *s3Storage) DeleteObject(ctx context.Context, userID, todoID string) error {
	objectKey := AttachmentKey(userID, todoID)

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isNotFound(err) {
			s.logger.Debug("attachment already absent", "key", objectKey)
			return nil
		}
		s.logger.Error("failed to delete object", "key", objectKey, "bucket", s.bucketName, "error", err)
		return fmt.Errorf("delete object %s: %w", objectKey, err)
	}

	s.logger.Info("deleted object", "key", objectKey, "bucket", s.bucketName)
	return nil
}

// HeadObject fetches user metadata, content type and size of an object.
func (s *s3Storage) HeadObject(ctx context.Context, objectKey string) (*ObjectMetadata, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("head object %s: %w", objectKey, err)
	}

	meta := &ObjectMetadata{
		Metadata:    make(map[string]string, len(out.Metadata)),
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
	}
	for k, v := range out.Metadata {
		meta.Metadata[strings.ToLower(k)] = v
	}
	if out.LastModified != nil {
		meta.LastModified = *out.LastModified
	}

	s.logger.Debug("found object metadata", "key", objectKey, "metadata", meta.Metadata)
	return meta, nil
}

// isNotFound matches the error codes S3 uses for a missing key. HeadObject
// has no body, so it reports a bare "NotFound".
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
