package router

import (
	"app/internal/api/v1/handler"
	"app/internal/cascade"
	"app/internal/config"
	"app/internal/middleware"
	"app/internal/pubsub"
	"app/internal/repository"
	"app/internal/service"
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/go-playground/validator/v10"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (http.Handler, *sql.DB, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("App environment loaded")

	// 1. Open DB connection (connection pooling)
	dsn := cfg.DBConnectionString
	// In a development environment, we want to ensure that SSL is disabled for
	// local testing. In production, the connection string should be provided
	// with the correct SSL settings.
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := " "
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			if strings.Contains(dsn, "?") {
				separator = "&"
			} else {
				separator = "?"
			}
		}
		dsn += separator + "sslmode=disable"
	}
	// For non-development environments that use a transaction pooler like pgbouncer,
	// we must use the simple query protocol to avoid issues with server-side prepared statements.
	if cfg.Environment != "development" && !strings.Contains(dsn, "prefer_simple_protocol") {
		separator := "&"
		if !strings.Contains(dsn, "?") {
			separator = "?"
		}
		dsn += separator + "prefer_simple_protocol=true"
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		logger.Error().Msgf("Failed to open DB connection: %v", err)
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		logger.Error().Msgf("Failed to ping DB: %v", err)
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	// 2. Initialize S3 client for receipt storage
	s3Config, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		logger.Error().Msgf("Failed to load S3 config: %v", err)
		return nil, nil, err
	}
	s3Client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	})

	// 3. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 4. Initialize Pub/Sub publisher
	var publisher pubsub.Publisher
	if cfg.GCPProjectID != "" {
		p, err := pubsub.NewPublisher(ctx, cfg)
		if err != nil {
			logger.Error().Msgf("Failed to create Pub/Sub publisher: %v", err)
			return nil, nil, err
		}
		publisher = p
	} else {
		logger.Warn().Msg("GCP_PROJECT_ID unset, access-code events disabled")
	}

	// 5. Resolve the JWT secret
	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" && cfg.JWTSecretName != "" {
		secrets, err := service.NewSecretManagerSource(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, nil, err
		}
		jwtSecret, err = secrets.JWTSecret(ctx, cfg.JWTSecretName)
		if err != nil {
			return nil, nil, err
		}
	}

	// 6. Initialize repositories & services & handlers
	catalogRepo := repository.NewCatalogRepo(db)
	couponRepo := repository.NewCouponRepo(db)
	accessCodeRepo := repository.NewAccessCodeRepo(db)

	gateway := service.NewCatalogGateway(catalogRepo, couponRepo)
	receiptStore := service.NewS3ReceiptStore(s3Client, cfg.S3Bucket)
	accessCodeSvc := service.NewAccessCodeService(accessCodeRepo, receiptStore, publisher, cfg.AccessCodeEventsTopic, logger)

	sessions := cascade.NewManager(gateway, logger, time.Duration(cfg.SessionIdleTTLMin)*time.Minute)
	go sessions.Sweep(ctx)

	sessionHandler := handler.NewCodeSessionHandler(sessions, accessCodeSvc, validate, logger)
	accessCodeHandler := handler.NewAccessCodeHandler(accessCodeSvc, logger)
	catalogHandler := handler.NewCatalogHandler(catalogRepo, logger)

	// 7. Initialize middleware
	authMiddleware := middleware.AuthMiddleware(jwtSecret)

	// 8. Create ServeMux router
	mux := http.NewServeMux()

	apiV1Mux := http.NewServeMux()
	sessionHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	accessCodeHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	catalogHandler.RegisterRoutes(apiV1Mux, authMiddleware)

	// Mount the API v1 routes under /v1
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	// Redirect /api/* to /v1/* for backward compatibility
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/")
		http.Redirect(w, r, "/v1/"+rest, http.StatusMovedPermanently)
	})

	// 9. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Allow all origins for development
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(c.Handler(mux)), db, nil
}

// removeDisableGzip is a workaround for S3 signature errors with some S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		// Only remove the middleware if it exists.
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
