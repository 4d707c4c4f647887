package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ReceiptStore abstracts the object storage holding payment receipts, so
// the access-code service can be tested without a live bucket.
type ReceiptStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	// PresignGet returns a short-lived URL for viewing a stored receipt.
	PresignGet(ctx context.Context, key string) (string, error)
}

// s3ReceiptStore stores receipts in an S3-compatible bucket.
type s3ReceiptStore struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucketName    string
}

// NewS3ReceiptStore creates a ReceiptStore backed by the given bucket.
func NewS3ReceiptStore(client *s3.Client, bucketName string) ReceiptStore {
	return &s3ReceiptStore{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucketName:    bucketName,
	}
}

func (s *s3ReceiptStore) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to store receipt %s: %w", key, err)
	}
	return nil
}

// PresignGet generates a signed URL for the given storage path
func (s *s3ReceiptStore) PresignGet(ctx context.Context, key string) (string, error) {
	resp, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", fmt.Errorf("failed to presign receipt %s: %w", key, err)
	}
	return resp.URL, nil
}
