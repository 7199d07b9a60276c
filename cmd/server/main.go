package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	gosmtp "github.com/emersion/go-smtp"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dropmail/backend/internal/config"
	"dropmail/backend/internal/health"
	"dropmail/backend/internal/ingest"
	"dropmail/backend/internal/logger"
	"dropmail/backend/internal/mailparser"
	"dropmail/backend/internal/monitoring"
	"dropmail/backend/internal/service"
	"dropmail/backend/internal/smtp"
	"dropmail/backend/internal/storage"
	"dropmail/backend/internal/storage/memory"
	sqlstore "dropmail/backend/internal/storage/sql"
	httptransport "dropmail/backend/internal/transport/http"
)

// main 启动同时包含查询 API 与收信 SMTP 的综合服务。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if cfg.Log.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	log, err := logger.New(logger.Options{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		File:        cfg.Log.File,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	log.Info("starting dropmail server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
		zap.String("mail_domain", cfg.Mail.Domain),
	)

	// 存储层：配置了数据库驱动用 SQL 存储，否则用内存存储
	var store storage.Store
	if cfg.Database.Driver != "" {
		store, err = sqlstore.NewStore(
			cfg.Database.Driver,
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
			cfg.Database.ConnMaxLifetime,
			log,
		)
		if err != nil {
			panic(fmt.Sprintf("failed to initialize database storage: %v", err))
		}
		log.Info("using database storage", zap.String("driver", cfg.Database.Driver))
	} else {
		store = memory.NewStore()
		log.Info("using memory storage (development mode)")
	}
	defer store.Close()

	// 启动时先尝试建表；失败只告警，API 与投递管道会按需重试
	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.EnsureReady(startupCtx); err != nil {
		log.Warn("schema initialization failed at startup, will retry lazily", zap.Error(err))
	}
	cancel()

	metrics := monitoring.NewMetrics()

	healthChecker := health.NewChecker(store)
	healthChecker.AddReadinessCheck("schema", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return store.EnsureReady(ctx)
	})

	mailboxService := service.NewMailboxService(store)
	messageService := service.NewMessageService(store, store)

	pipeline := ingest.NewPipeline(
		mailboxService,
		messageService,
		store,
		ingest.DecoderFunc(mailparser.Parse),
		metrics,
		log,
	)

	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:         cfg,
		MailboxService: mailboxService,
		MessageService: messageService,
		Schema:         store,
		Metrics:        metrics,
		Health:         healthChecker,
		Logger:         log,
	})

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	connLimiter := smtp.NewConnectionLimiter(cfg.SMTP.MaxConnections, cfg.SMTP.MaxConnRate)
	smtpBackend := smtp.NewBackend(pipeline, cfg.Mail.AllowedDomains, cfg.SMTP.MaxMessageBytes, connLimiter, log)
	smtpServer := gosmtp.NewServer(smtpBackend)
	smtpServer.Addr = cfg.SMTP.BindAddr
	smtpServer.Domain = cfg.SMTP.Domain
	smtpServer.ReadTimeout = 10 * time.Second
	smtpServer.WriteTimeout = 10 * time.Second
	smtpServer.MaxMessageBytes = cfg.SMTP.MaxMessageBytes
	smtpServer.MaxRecipients = 50

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	group.Go(func() error {
		log.Info("starting SMTP server",
			zap.String("address", cfg.SMTP.BindAddr),
			zap.String("domain", cfg.SMTP.Domain),
		)
		if err := smtpServer.ListenAndServe(); err != nil {
			log.Error("SMTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}
		if err := smtpServer.Close(); err != nil {
			log.Warn("SMTP server close warning", zap.Error(err))
		}

		log.Info("servers stopped")
		return nil
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server exited cleanly")
}
