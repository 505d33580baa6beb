package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"visaflow/internal/commons"
	"visaflow/internal/config"
	"visaflow/internal/infrastructure/logger"
	"visaflow/internal/infrastructure/metrics"
	"visaflow/internal/infrastructure/mysql"
	"visaflow/internal/infrastructure/redis"
	"visaflow/internal/matching"
	"visaflow/internal/order"
	"visaflow/internal/representative"
	reprepo "visaflow/internal/representative/repository"
	"visaflow/internal/server"
)

type directory interface {
	matching.Directory
	representative.Repository
}

func loadConfig() (*config.Config, error) {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return commons.LoadConfig(path)
	}
	return config.Load()
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	checks := map[string]server.HealthCheck{}

	var (
		db   *sql.DB
		reps directory
	)
	if cfg.Database.Driver == "mysql" {
		db, err = mysql.NewConnection(cfg.Database)
		if err != nil {
			zapLogger.Fatal("connecting to database", zap.Error(err))
		}
		defer db.Close()
		zapLogger.Info("database connected")
		checks["mysql"] = db.PingContext
		reps = reprepo.NewMySQLRepository(db)
	} else {
		zapLogger.Info("using in-memory order store")
		reps = matching.NewStaticDirectory(matching.DefaultRoster())
	}

	var rdb goredis.Cmdable
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("connecting to redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
		zapLogger.Info("redis connected", zap.String("channel", cfg.Redis.Channel))
		checks["redis"] = redisClient.Health
		rdb = redisClient
	}

	orderModule, err := order.NewModule(db, rdb, reps, cfg, m, zapLogger)
	if err != nil {
		zapLogger.Fatal("building order module", zap.Error(err))
	}
	representativeCtrl := representative.NewModule(reps, zapLogger)

	router := server.NewRouter(reg, checks, zapLogger,
		orderModule.Workflow,
		orderModule.Registry,
		representativeCtrl,
	)

	srv := server.New(cfg.Server, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	if err := srv.Shutdown(context.Background()); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}
