package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/blazethunderstorm/screen-recorder/internal/config"
	"github.com/blazethunderstorm/screen-recorder/internal/models"
)

const (
	videoPrefix     = "videos"
	thumbnailPrefix = "thumbnails"
)

// S3MediaHost stores recordings in an S3-compatible bucket.
type S3MediaHost struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	baseURL  string
	newID    func() string
}

// NewS3MediaHost configures an uploader targeting the provided object store.
func NewS3MediaHost(ctx context.Context, cfg config.MediaConfig) (*S3MediaHost, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 media host: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return &S3MediaHost{
		client:   client,
		uploader: uploader,
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		newID:    uuid.NewString,
	}, nil
}

// Upload stores the recording and returns its public references.
func (h *S3MediaHost) Upload(ctx context.Context, upload models.MediaUpload) (models.MediaAsset, error) {
	if upload.Body == nil {
		return models.MediaAsset{}, fmt.Errorf("s3 media host: empty body")
	}

	key := mediaKey(h.newID(), upload.Filename)

	contentType := upload.ContentType
	if strings.TrimSpace(contentType) == "" {
		contentType = "video/mp4"
	}

	_, err := h.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(h.bucket),
		Key:         aws.String(key),
		Body:        manager.ReadSeekCloser(upload.Body),
		ContentType: aws.String(contentType),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return models.MediaAsset{}, fmt.Errorf("s3 media host upload %s: %w", key, err)
	}

	return models.MediaAsset{
		URL:          publicURL(h.baseURL, key),
		MediaID:      key,
		ThumbnailURL: publicURL(h.baseURL, thumbnailKey(key)),
		Duration:     upload.Duration,
	}, nil
}

// Delete removes a previously uploaded recording.
func (h *S3MediaHost) Delete(ctx context.Context, mediaID string) error {
	key := strings.TrimLeft(mediaID, "/")
	if key == "" {
		return fmt.Errorf("s3 media host: empty key")
	}

	if _, err := h.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("s3 media host delete %s: %w", key, err)
	}
	return nil
}

// mediaKey builds the object key of a recording, keeping the upload's extension.
func mediaKey(id, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if ext == "" || ext == "." {
		ext = ".mp4"
	}
	return path.Join(videoPrefix, id+ext)
}

// thumbnailKey is the key the host pipeline writes the poster frame of key to.
func thumbnailKey(key string) string {
	base := strings.TrimSuffix(path.Base(key), path.Ext(key))
	return path.Join(thumbnailPrefix, base+".jpg")
}

func publicURL(baseURL, key string) string {
	if baseURL == "" {
		return key
	}
	return fmt.Sprintf("%s/%s", baseURL, key)
}
