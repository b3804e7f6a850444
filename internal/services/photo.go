package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const uploadExpiry = 5 * time.Minute

// PhotoService handles object storage for diary photos and
// avatars
type PhotoService struct {
	s3Client *s3.Client
	presign  *s3.PresignClient
	bucket   string
	region   string
	endpoint string
	profiles ProfileStore
}

// NewPhotoService creates a photo service bound to one S3 bucket
func NewPhotoService(profiles ProfileStore, region, bucket, accessKey, secretKey, endpoint string) (*PhotoService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &PhotoService{
		s3Client: client,
		presign:  s3.NewPresignClient(client),
		bucket:   bucket,
		region:   region,
		endpoint: endpoint,
		profiles: profiles,
	}, nil
}

// UploadRequest asks for a pre-signed upload URL
type UploadRequest struct {
	ContentType string `json:"content_type"`
}

// UploadResponse carries the pre-signed URL and the public URL
// the object will have once uploaded
type UploadResponse struct {
	UploadURL string `json:"upload_url"`
	PhotoURL  string `json:"photo_url"`
	ExpiresIn int    `json:"expires_in"`
}

// PresignUpload generates a pre-signed PUT URL for a new photo
// under the user's prefix
func (s *PhotoService) PresignUpload(ctx context.Context, userID, contentType string) (*UploadResponse, error) {
	if contentType == "" {
		contentType = "image/jpeg"
	}
	key := fmt.Sprintf("%s/%s.jpg", userID, uuid.New().String())
	return s.presignKey(ctx, key, contentType)
}

// PresignAvatarUpload generates a pre-signed PUT URL for the
// user's avatar and removes the previous avatar object first.
// Avatar keys are versioned so a cached old URL never shows the
// new image.
func (s *PhotoService) PresignAvatarUpload(ctx context.Context, userID, contentType string) (*UploadResponse, error) {
	if contentType == "" {
		contentType = "image/jpeg"
	}

	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.AvatarURL != nil {
		if oldKey := s.keyFromURL(*p.AvatarURL); oldKey != "" {
			if err := s.Remove(ctx, oldKey); err != nil {
				// Old object stays orphaned; the upload still proceeds.
				log.Warn().Err(err).Str("user_id", userID).Msg("Failed to delete old avatar")
			}
		}
	}

	key := fmt.Sprintf("avatars/%s-%s.jpg", userID, uuid.New().String())
	return s.presignKey(ctx, key, contentType)
}

func (s *PhotoService) presignKey(ctx context.Context, key, contentType string) (*UploadResponse, error) {
	request, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = uploadExpiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	return &UploadResponse{
		UploadURL: request.URL,
		PhotoURL:  s.PublicURL(key),
		ExpiresIn: int(uploadExpiry.Seconds()),
	}, nil
}

// PublicURL returns the public URL for an object key
func (s *PhotoService) PublicURL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.endpoint, "/"), s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// keyFromURL recovers the object key from a public URL produced
// by PublicURL; returns "" for foreign URLs
func (s *PhotoService) keyFromURL(u string) string {
	prefixes := []string{
		fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", s.bucket, s.region),
	}
	if s.endpoint != "" {
		prefixes = append(prefixes, fmt.Sprintf("%s/%s/", strings.TrimSuffix(s.endpoint, "/"), s.bucket))
	}
	for _, p := range prefixes {
		if strings.HasPrefix(u, p) {
			return strings.TrimPrefix(u, p)
		}
	}
	return ""
}

// Remove deletes objects by key
func (s *PhotoService) Remove(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return fmt.Errorf("failed to delete object %s: %w", key, err)
		}
	}
	return nil
}

// ListByPrefix lists object keys under a prefix
func (s *PhotoService) ListByPrefix(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}
	paginator := s3.NewListObjectsV2Paginator(s.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}
