package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"arcade-auth/internal/config"
	"arcade-auth/internal/db"
	"arcade-auth/internal/github"
	apihttp "arcade-auth/internal/http"
	"arcade-auth/internal/repository"
	"arcade-auth/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)

	ghClient := github.NewHTTPClient(
		cfg.GithubTokenURL,
		cfg.GithubEmailsURL,
		cfg.GithubClientID,
		cfg.GithubClientSecret,
		time.Duration(cfg.GithubTimeoutSecs)*time.Second,
		logger,
	)

	hashTTL := time.Duration(cfg.HashIndexTTLMins) * time.Minute
	var hashIndex service.HashIndex
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			hashIndex = service.NewRedisHashIndex(redisClient, hashTTL)
		}
		cancel()
	}
	if hashIndex == nil {
		hashIndex = service.NewMemoryHashIndex(hashTTL)
	}

	authSvc := service.NewAuthService(logger, ghClient, userRepo, hashIndex, cfg.EmailPolicy)
	authHandler := apihttp.NewAuthHandler(logger, authSvc)
	userHandler := apihttp.NewUserHandler(logger, authSvc)
	router := apihttp.NewRouter(logger, authHandler, userHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
