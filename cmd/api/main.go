package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/Rayus223/backend/internal/app"
	"github.com/Rayus223/backend/internal/config"
	"github.com/Rayus223/backend/internal/database"
	apphttp "github.com/Rayus223/backend/internal/http"
	"github.com/Rayus223/backend/internal/http/handlers"
	"github.com/Rayus223/backend/internal/http/metrics"
	httpmw "github.com/Rayus223/backend/internal/http/middleware"
	"github.com/Rayus223/backend/internal/http/response"
	"github.com/Rayus223/backend/internal/observability"
	"github.com/Rayus223/backend/internal/realtime"
	"github.com/Rayus223/backend/internal/repository/postgres"
	"github.com/Rayus223/backend/internal/security"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger()
	db := database.NewPostgres(database.PostgresConfig{
		DSN:             cfg.PostgresDSN,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxIdle:     cfg.DBConnMaxIdle,
		ConnMaxLifetime: cfg.DBConnMaxLife,
	})
	defer db.Close()

	vacancyRepo := postgres.NewVacancyRepository(db)
	applicationRepo := postgres.NewApplicationRepository(db)
	teacherRepo := postgres.NewTeacherRepository(db)

	hub := realtime.NewHub(logger)
	vacancyService := app.NewVacancyService(vacancyRepo, hub, logger)
	applicationService := app.NewApplicationService(applicationRepo, vacancyRepo, teacherRepo, hub, logger)

	jwtProvider := security.NewJWTProvider(cfg.JWTSecret)
	authMiddleware := httpmw.NewAuthMiddleware(jwtProvider)

	var limiter httpmw.Limiter = httpmw.NewRateLimiter()
	if redisClient := database.NewRedis(cfg.RedisURL); redisClient != nil {
		limiter = httpmw.NewRedisLimiter(redisClient)
		defer redisClient.Close()
	}

	collector := metrics.NewCollector()
	response.SetErrorCollector(collector)

	router := apphttp.NewRouter(apphttp.RouterDependencies{
		VacancyHandler:     handlers.NewVacancyHandler(vacancyService),
		ApplicationHandler: handlers.NewApplicationHandler(applicationService, limiter),
		TeacherHandler:     handlers.NewTeacherHandler(teacherRepo),
		AuthMiddleware:     authMiddleware,
		MetricsHandler:     collector.Handler(),
		Metrics:            collector,
		WebSocketHandler:   hub.ServeWS,
		Logger:             logger,
		RequestTimeout:     cfg.RequestTimeout,
		Throttle:           rate.NewLimiter(rate.Limit(cfg.ThrottleRPS), cfg.ThrottleBurst),
		RateLimiter:        limiter,
	})
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("API started on :" + cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
