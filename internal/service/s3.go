package service

import (
	"context"
	"fmt"
	"log"
	"path"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/omkargadekar/chats-app/internal/config"
)

// S3FileStore — хранилище вложений в S3-совместимом бакете (MinIO).
type S3FileStore struct {
	config   *config.Config
	uploader *manager.Uploader
	s3Client *s3.Client
}

func NewS3FileStore(cfg *config.Config) (*S3FileStore, error) {
	// Используем BaseEndpoint для кастомного endpoint
	s3Opts := []func(*s3.Options){}

	if cfg.S3Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true // Обязательно для MinIO
		})
	}

	credsProvider := credentials.NewStaticCredentialsProvider(
		cfg.S3AccessKeyID,
		cfg.S3SecretAccessKey,
		"",
	)

	awsCfg := aws.Config{
		Region:      cfg.S3Region,
		Credentials: credsProvider,
	}

	s3Client := s3.NewFromConfig(awsCfg, s3Opts...)

	store := &S3FileStore{
		config:   cfg,
		uploader: manager.NewUploader(s3Client),
		s3Client: s3Client,
	}

	log.Printf("🔧 S3 file store initialized with endpoint: %s", cfg.S3Endpoint)
	return store, nil
}

func (s *S3FileStore) Upload(ctx context.Context, chatID uint, file FileUpload) (string, string, error) {
	objectKey := path.Join(
		"chats",
		strconv.FormatUint(uint64(chatID), 10),
		uuid.New().String(),
		file.Filename,
	)

	result, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.S3BucketName),
		Key:         aws.String(objectKey),
		Body:        file.Reader,
		ContentType: aws.String(file.ContentType),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload file: %w", err)
	}

	url := result.Location
	if url == "" {
		url = fmt.Sprintf("%s/%s/%s", s.config.S3Endpoint, s.config.S3BucketName, objectKey)
	}

	log.Printf("📤 File uploaded: %s", objectKey)
	return url, objectKey, nil
}

func (s *S3FileStore) Delete(ctx context.Context, objectKey string) error {
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.S3BucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file %s: %w", objectKey, err)
	}
	return nil
}

func (s *S3FileStore) HealthCheck(ctx context.Context) error {
	// Простая проверка - пытаемся листовать bucket'ы
	_, err := s.s3Client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return fmt.Errorf("storage health check failed: %w", err)
	}
	return nil
}
