package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/foxxcyber/shoe-compare/internal/models"
)

const snapshotPrefix = "comparisons/"

// SnapshotStore keeps shareable comparison snapshots in S3-compatible storage
type SnapshotStore struct {
	client     *minio.Client
	bucketName string
	region     string
	expiry     time.Duration
	now        func() time.Time
}

// NewSnapshotStore creates a new S3 snapshot store
func NewSnapshotStore(endpoint, accessKey, secretKey, bucketName, region string, useSSL bool, expiry time.Duration) (*SnapshotStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	return &SnapshotStore{
		client:     client,
		bucketName: bucketName,
		region:     region,
		expiry:     expiry,
		now:        time.Now,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *SnapshotStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{
			Region: s.region,
		})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// Save stores a comparison and returns a presigned link to it
func (s *SnapshotStore) Save(ctx context.Context, productIDs []int, comparison *models.MultiComparison) (*models.ShareLink, error) {
	snapshot := models.SharedComparison{
		ID:         uuid.NewString(),
		ProductIDs: productIDs,
		CreatedAt:  s.now().UTC(),
		Comparison: comparison,
	}

	body, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	key := snapshotKey(snapshot.ID)
	_, err = s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload snapshot: %w: %w", models.ErrUpstreamUnavailable, err)
	}

	url, err := s.client.PresignedGetObject(ctx, s.bucketName, key, s.expiry, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &models.ShareLink{
		ShareID:   snapshot.ID,
		ShareURL:  url.String(),
		ExpiresAt: snapshot.CreatedAt.Add(s.expiry),
	}, nil
}

// Load reads a stored comparison by share id
func (s *SnapshotStore) Load(ctx context.Context, id string) (*models.SharedComparison, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid share id: %w", models.ErrInvalidArgument)
	}

	obj, err := s.client.GetObject(ctx, s.bucketName, snapshotKey(id), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w: %w", models.ErrUpstreamUnavailable, err)
	}
	defer obj.Close()

	var snapshot models.SharedComparison
	if err := json.NewDecoder(obj).Decode(&snapshot); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("snapshot %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	return &snapshot, nil
}

// Prune deletes snapshots older than the cutoff and returns how many were removed
func (s *SnapshotStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	objectsCh := make(chan minio.ObjectInfo)
	var listErr error
	count := 0

	go func() {
		defer close(objectsCh)
		for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{Prefix: snapshotPrefix, Recursive: true}) {
			if obj.Err != nil {
				listErr = obj.Err
				return
			}
			if obj.LastModified.Before(cutoff) {
				count++
				objectsCh <- obj
			}
		}
	}()

	var removeErr error
	for err := range s.client.RemoveObjects(ctx, s.bucketName, objectsCh, minio.RemoveObjectsOptions{}) {
		if err.Err != nil && removeErr == nil {
			removeErr = fmt.Errorf("failed to delete snapshot %s: %w", err.ObjectName, err.Err)
		}
	}
	if removeErr != nil {
		return 0, removeErr
	}
	if listErr != nil {
		return 0, fmt.Errorf("failed to list snapshots: %w", listErr)
	}

	return count, nil
}

func snapshotKey(id string) string {
	return snapshotPrefix + strings.ToLower(id) + ".json"
}
