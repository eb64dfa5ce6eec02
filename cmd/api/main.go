package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LJTian/ReliefHub/internal/api"
	"github.com/LJTian/ReliefHub/internal/app"
	"github.com/LJTian/ReliefHub/internal/config"
	"github.com/LJTian/ReliefHub/internal/logging"
	"github.com/LJTian/ReliefHub/internal/metrics"
	"github.com/LJTian/ReliefHub/internal/scheduler"
	"github.com/LJTian/ReliefHub/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := storage.NewStore(cfg.Credentials.PostgresDSN, cfg.Credentials.RedisAddr, logger)
	if err != nil {
		logger.Fatal("init store failed", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewPipeline(reg)

	runner := app.NewRunner(cfg, store, m, logger, "")
	logger.Info("sources registered", zap.Strings("sources", runner.Sources()))

	// 按数据源更新频率配置独立的采集周期
	jobs := []scheduler.Job{
		{Source: "gov", CronSpec: cfg.GovCron},
		{Source: "rthk", CronSpec: cfg.RTHKCron},
	}
	s, err := scheduler.New(jobs, runner, app.Location(cfg.CronZone, logger), logger)
	if err != nil {
		logger.Fatal("init scheduler failed", zap.Error(err))
	}
	s.StartupDelay = 15 * time.Second
	s.Start()
	logger.Info("scheduler started", zap.Int("jobs", s.Entries()))

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	apiServer := api.NewServer(store, runner, reg, logger)
	apiServer.RegisterRoutes(r)

	srv := &http.Server{Addr: ":" + cfg.AppPort, Handler: r}
	go func() {
		logger.Info("starting api server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server exit", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	<-s.Stop().Done()
}
