package service

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// SecretSource loads deploy-time secrets (currently the JWT signing
// secret) from GCP Secret Manager when they are not provided through the
// environment.
type SecretSource interface {
	JWTSecret(ctx context.Context, secretName string) (string, error)
}

type secretManagerSource struct {
	client    *secretmanager.Client
	projectID string
}

// NewSecretManagerSource creates a SecretSource for the given project.
func NewSecretManagerSource(ctx context.Context, projectID string, opts ...option.ClientOption) (SecretSource, error) {
	if projectID == "" {
		return nil, fmt.Errorf("GCP Project ID is not set for the current environment")
	}
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}
	return &secretManagerSource{client: client, projectID: projectID}, nil
}

func (s *secretManagerSource) JWTSecret(ctx context.Context, secretName string) (string, error) {
	resourceName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.projectID, secretName)

	result, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resourceName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret version: %w", err)
	}
	return string(result.Payload.Data), nil
}
