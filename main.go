package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/exception-notifier/backend/internal/client"
	"github.com/exception-notifier/backend/internal/config"
	"github.com/exception-notifier/backend/internal/db"
	"github.com/exception-notifier/backend/internal/handler"
	"github.com/exception-notifier/backend/internal/metrics"
	"github.com/exception-notifier/backend/internal/secret"
	"github.com/exception-notifier/backend/internal/service"
	tmpl "github.com/exception-notifier/backend/internal/template"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// 라우터 구성에 필요한 핸들러 묶음
type routes struct {
	exceptions    *handler.ExceptionsHandler
	notifications *handler.NotificationHandler
	verifier      service.TokenVerifier
	metrics       *metrics.Metrics
}

func main() {
	// 로컬 개발용 .env (없으면 무시)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}
	setupLogger(cfg.Log)
	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 시크릿 로드 실패는 치명적
	provider, err := secret.NewProvider(ctx, cfg.SecretStore)
	if err != nil {
		log.Fatal("failed to create secret provider", "provider", cfg.SecretStore.Provider, "error", err)
	}
	secrets, err := secret.LoadSecrets(ctx, provider)
	if err != nil {
		log.Fatal("failed to load secrets", "provider", cfg.SecretStore.Provider, "error", err)
	}

	m := metrics.NewMetrics()
	slackClient := client.NewSlackWebhookClient(secrets.SlackWebhookURL)
	appInsights := client.NewAppInsightsClient(cfg.AppInsights.BaseURL, secrets.AppID, secrets.APIKey)
	links := service.NewLinkBuilder(service.LinkIdentity{
		TenantID:       secrets.TenantID,
		SubscriptionID: secrets.SubscriptionID,
		ResourceGroup:  secrets.ResourceGroup,
		ComponentName:  secrets.ResourceName,
	}, cfg.Schedule.LinkLookback, nil)

	// 전송 기록 저장소 (선택)
	var pg *db.Postgres
	if cfg.Postgres.IsConfigured() {
		pool, err := db.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			log.Fatal("failed to connect postgres", "error", err)
		}
		defer pool.Close()
		pg = &db.Postgres{Pool: pool}
		if err := pg.EnsureNotificationSchema(ctx); err != nil {
			log.Fatal("failed to ensure notification schema", "error", err)
		}
		log.Info("notification history enabled")
	}

	opts := service.ExceptionServiceOptions{
		Querier:        appInsights,
		Sender:         slackClient,
		Links:          links,
		Recent:         service.NewRecentOperations(cfg.Schedule.RepeatSuppression, 0),
		Metrics:        m,
		App:            tmpl.AppData{Name: secrets.ResourceName, ResourceGroup: secrets.ResourceGroup},
		HeaderTemplate: cfg.Slack.HeaderTemplate,
		Window:         cfg.Schedule.QueryWindow,
	}
	notifications := handler.NewNotificationHandler(nil)
	if pg != nil {
		opts.Recorder = pg
		notifications = handler.NewNotificationHandler(pg)
	}
	exceptionService := service.NewExceptionService(opts)

	verifier, err := service.NewTokenVerifier(ctx, cfg.Auth)
	if err != nil {
		log.Fatal("failed to configure inbound auth", "error", err)
	}

	router := newRouter(routes{
		exceptions:    handler.NewExceptionsHandler(service.NewForwardService(slackClient, m)),
		notifications: notifications,
		verifier:      verifier,
		metrics:       m,
	})

	scheduler := service.NewScheduler(exceptionService, cfg.Schedule.Interval)
	scheduler.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", "error", err)
	}
	scheduler.Stop()
}

func newRouter(r routes) *gin.Engine {
	router := gin.Default()

	// 헬스체크
	router.GET("/", handler.Root)
	router.GET("/ping", handler.Ping)
	router.GET("/hello", handler.Hello)
	router.GET("/metrics", gin.WrapH(r.metrics.Handler()))

	auth := handler.AuthMiddleware(r.verifier)
	router.POST("/exceptions", auth, r.exceptions.Forward)

	api := router.Group("/api/v1", auth)
	api.GET("/notifications", r.notifications.ListNotifications)

	return router
}

func setupLogger(cfg config.LogConfig) {
	level, err := log.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetReportTimestamp(true)
	if strings.EqualFold(cfg.Format, "json") {
		log.SetFormatter(log.JSONFormatter)
	}
}
