package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               string `envconfig:"PORT" default:"8080"`
	Environment        string `envconfig:"ENV" default:"development"`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`

	// JWT validation. When JWT_SECRET is empty and JWT_SECRET_NAME is set,
	// the secret is fetched from GCP Secret Manager at startup.
	JWTSecret     string `envconfig:"JWT_SECRET"`
	JWTSecretName string `envconfig:"JWT_SECRET_NAME"`

	// Receipt storage (S3-compatible)
	S3URL       string `envconfig:"S3_URL" required:"true"`
	S3Bucket    string `envconfig:"S3_BUCKET" required:"true"`
	S3Region    string `envconfig:"S3_REGION" required:"true"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" required:"true"`

	// Access-code lifecycle events
	GCPProjectID          string `envconfig:"GCP_PROJECT_ID"`
	AccessCodeEventsTopic string `envconfig:"ACCESS_CODE_EVENTS_TOPIC" default:"access-code-events"`

	// Draft session housekeeping
	SessionIdleTTLMin int `envconfig:"SESSION_IDLE_TTL_MIN" default:"30"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
