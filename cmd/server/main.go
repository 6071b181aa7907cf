package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"schoolhub/internal/auth"
	"schoolhub/internal/cache"
	"schoolhub/internal/config"
	"schoolhub/internal/db"
	internalhttp "schoolhub/internal/http"
	"schoolhub/internal/repository"
	"schoolhub/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connection failed", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("redis connection failed", zap.Error(err))
	}
	defer redisClient.Close()

	store := cache.NewRedisStore(redisClient)
	c := cache.New(store, logger)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	users := repository.NewPostgresUsers(pool)
	schools := repository.NewPostgresSchools(pool)
	classrooms := repository.NewPostgresClassrooms(pool)
	students := repository.NewPostgresStudents(pool)

	authSvc := service.NewAuth(users, tokens, c, logger)
	schoolSvc := service.NewSchools(schools, classrooms, students, c, cfg.ListCacheTTL, cfg.DetailCacheTTL)
	classroomSvc := service.NewClassrooms(classrooms, schools, students, c, cfg.ListCacheTTL, cfg.DetailCacheTTL)
	studentSvc := service.NewStudents(students, schools, classrooms, c, cfg.ListCacheTTL, cfg.DetailCacheTTL)

	if cfg.BootstrapAdminPassword != "" {
		if err := authSvc.BootstrapSuperAdmin(ctx, "admin", cfg.BootstrapAdminPassword); err != nil {
			logger.Fatal("bootstrap superadmin failed", zap.Error(err))
		}
	}

	server := internalhttp.NewServer(cfg, tokens, authSvc, schoolSvc, classroomSvc, studentSvc, store, logger)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
