package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/johnquangdev/meeting-followup/pkg/config"
)

// CaptionArchive stores raw caption tracks in object storage so the
// original text survives re-parses and transcript row updates.
type CaptionArchive struct {
	client *minio.Client
	bucket string
}

// NewCaptionArchive creates a MinIO-backed archive and ensures its bucket exists
func NewCaptionArchive(cfg *config.StorageConfig) (*CaptionArchive, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	archive := &CaptionArchive{
		client: minioClient,
		bucket: cfg.BucketName,
	}

	if err := archive.ensureBucket(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return archive, nil
}

// ensureBucket ensures the archive bucket exists. Caption tracks may contain
// meeting content, so the bucket keeps its default private policy.
func (a *CaptionArchive) ensureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// StoreCaptionTrack uploads the raw caption bytes for a meeting and returns
// the object name the transcript row records.
func (a *CaptionArchive) StoreCaptionTrack(ctx context.Context, meetingID string, content []byte) (string, error) {
	objectName := fmt.Sprintf("transcripts/%s.vtt", meetingID)

	_, err := a.client.PutObject(ctx, a.bucket, objectName, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: "text/vtt",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload caption track: %w", err)
	}

	return objectName, nil
}

// FetchCaptionTrack downloads a previously archived caption track
func (a *CaptionArchive) FetchCaptionTrack(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get caption track: %w", err)
	}
	defer obj.Close()

	content, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read caption track: %w", err)
	}

	return content, nil
}

// BucketInfo returns connection and bucket details for health reporting
func (a *CaptionArchive) BucketInfo(ctx context.Context) (map[string]interface{}, error) {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}

	return map[string]interface{}{
		"bucket":        a.bucket,
		"bucket_exists": exists,
		"endpoint":      a.client.EndpointURL().String(),
	}, nil
}
