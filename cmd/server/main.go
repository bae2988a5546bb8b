package main

import (
	"context"
	"time"

	"anoa.com/studentms/internal/bootstrap"
	"anoa.com/studentms/internal/config"
	"anoa.com/studentms/internal/server"
	"anoa.com/studentms/pkg/database"
	"anoa.com/studentms/pkg/logger"
	"anoa.com/studentms/pkg/storage"
	"anoa.com/studentms/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Configure(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	if err := bootstrap.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}

	ctx := context.Background()
	defaults := bootstrap.Defaults{
		CourseID:        cfg.DefaultCourseID,
		SessionPeriodID: cfg.DefaultSessionPeriodID,
	}
	if cfg.IsDevelopment() {
		if err := bootstrap.SeedDefaults(ctx, db, defaults, time.Now()); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed default course and session")
		}
	}
	if err := bootstrap.ResolveDefaults(ctx, db, defaults); err != nil {
		logger.Fatal().Err(err).Msg("default course or session is missing")
	}

	redisClient := connectRedis(ctx, cfg.RedisURL)
	if redisClient != nil {
		defer redisClient.Close()
	}

	if err := validator.RegisterGin(); err != nil {
		logger.Fatal().Err(err).Msg("failed to register validation rules")
	}

	photos, err := storage.NewCloudinaryStorage(cfg.CloudinaryUploadFolder)
	if err != nil {
		logger.Warn().Err(err).Msg("photo uploads disabled")
	}

	srv := server.NewServer(cfg, db, redisClient, photos)

	if cfg.IsDevelopment() {
		if err := bootstrap.SeedAdminAccount(ctx, db, srv.Accounts(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed admin account")
		}
	}

	logger.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("server starting")
	if err := srv.Run(":" + cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}

// connectRedis returns nil when url is empty or the server is unreachable.
func connectRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		logger.Info().Msg("REDIS_URL not set, rate limiting and live notifications disabled")
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Warn().Err(err).Msg("invalid REDIS_URL, continuing without redis")
		return nil
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis unreachable, continuing without redis")
		_ = client.Close()
		return nil
	}
	return client
}
