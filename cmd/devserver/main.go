package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/skillswap/client/internal/api"
	"github.com/skillswap/client/internal/auth"
	"github.com/skillswap/client/internal/config"
	"github.com/skillswap/client/internal/domain"
	"github.com/skillswap/client/internal/mailer"
	"github.com/skillswap/client/internal/repository"
	"github.com/skillswap/client/internal/storage"
)

const version = "1.0.0"

// repo is what the services need from persistence
type repo interface {
	domain.AccountRepository
	domain.ConnectionRepository
}

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	logger, err := initLogger(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Starting SkillSwap devserver",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)
	if cfg.IsProduction() && cfg.JWT.Secret == "change-me-in-production" {
		logger.Fatal("JWT_SECRET must be set in production")
	}

	ctx := context.Background()
	deps := map[string]api.Pinger{}

	var store repo
	if cfg.Database.URL == "" {
		logger.Warn("DATABASE_URL not set - using in-memory repository, data is lost on restart")
		store = repository.NewMemoryRepository()
	} else {
		db, err := initDatabase(ctx, cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		pg := repository.NewPostgresRepository(db)
		if err := pg.Migrate(ctx); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Info("Connected to database")
		store = pg
		deps["database"] = db
	}

	photos, uploads, err := initStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize photo storage", zap.Error(err))
	}

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessExpiry)
	sender := mailer.NewLogSender(cfg.Server.BaseURL, logger)
	if !cfg.Server.RequireVerification {
		logger.Warn("Email verification disabled - new accounts can log in immediately")
	}

	// Services
	authService := domain.NewAuthService(store, jwtManager, sender, cfg.Server.RequireVerification)
	profileService := domain.NewProfileService(store, store, photos, logger)
	connectionService := domain.NewConnectionService(store, store)

	// Handlers
	router := api.NewRouter(api.RouterConfig{
		AuthHandler:       api.NewAuthHandler(authService, cfg.Server.RequireVerification, logger),
		ProfileHandler:    api.NewProfileHandler(profileService, logger),
		ConnectionHandler: api.NewConnectionHandler(connectionService, logger),
		HealthHandler:     api.NewHealthHandler(version, deps),
		JWTManager:        jwtManager,
		CORSOrigins:       cfg.CORS.AllowedOrigins,
		Uploads:           uploads,
		Logger:            logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func initLogger(env, level string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if env == "production" {
		cfg = zap.NewProductionConfig()
	}
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = lvl
	}
	return cfg.Build()
}

func initDatabase(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// initStorage returns the photo store and, for local storage, the handler
// serving the stored files
func initStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.PhotoStorage, http.Handler, error) {
	switch cfg.Storage.Type {
	case "s3":
		s3Store, err := storage.NewS3PhotoStorage(ctx, cfg.Storage)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using S3 photo storage", zap.String("bucket", cfg.Storage.Bucket))
		return s3Store, nil, nil
	case "local", "":
		local, err := storage.NewLocalPhotoStorage(cfg.Storage.UploadDir, cfg.Server.BaseURL+"/uploads")
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using local photo storage", zap.String("dir", local.Dir()))
		return local, http.FileServer(http.Dir(local.Dir())), nil
	default:
		return nil, nil, fmt.Errorf("unknown STORAGE_TYPE %q", cfg.Storage.Type)
	}
}
