// internal/services/storage_service.go
package services

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"github.com/assetgrid/itam-backend/internal/config"
)

// StorageService persists generated label sheets. With AWS credentials it
// writes to S3; without them it falls back to the local exports directory
// for development.
type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

type UploadResult struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	if cfg.AWS.AccessKeyID == "" {
		// Return service without S3 for local development
		return &StorageService{config: cfg}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   cfg,
	}, nil
}

// UploadLabelSheet stores one finished sheet under a date-partitioned key.
func (s *StorageService) UploadLabelSheet(data []byte) (*UploadResult, error) {
	key := fmt.Sprintf("label-sheets/%s/%s.txt",
		time.Now().Format("2006/01/02"), uuid.New().String())

	if s.s3Client != nil {
		return s.uploadToS3(data, key)
	}
	return s.uploadToLocal(data, key)
}

func (s *StorageService) uploadToS3(data []byte, key string) (*UploadResult, error) {
	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("text/plain"),
		ContentLength: aws.Int64(int64(len(data))),
	}

	if _, err := s.s3Client.PutObject(params); err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		Key:  key,
		URL:  fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.config.AWS.S3Bucket, key),
		Size: int64(len(data)),
	}, nil
}

func (s *StorageService) uploadToLocal(data []byte, key string) (*UploadResult, error) {
	path := filepath.Join("exports", key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create exports directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write label sheet: %w", err)
	}

	return &UploadResult{
		Key:  key,
		URL:  path,
		Size: int64(len(data)),
	}, nil
}
