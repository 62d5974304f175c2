package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nrad-K/car-catalog/internal/config"
	"github.com/nrad-K/car-catalog/internal/domain/repository"
	"github.com/nrad-K/car-catalog/internal/infra"
	"github.com/nrad-K/car-catalog/internal/logger"
	"github.com/redis/go-redis/v9"
)

// loadEnvは、.envがあれば環境変数に読み込みます。ビルド済みバイナリでは.envが無いのが普通なので失敗は無視します。
func loadEnv() {
	_ = godotenv.Load()
}

func newLogger(cfg config.LogConfig) logger.AppLogger {
	handler := logger.NewHandler(logger.Options{
		Level:      cfg.Level,
		File:       cfg.File,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
	})
	return logger.NewAppLogger(slog.New(handler))
}

// signalContextは、SIGINT・SIGTERMでキャンセルされるコンテキストを返します。
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newRedisClientは、REDIS_ADDRESSが設定されている場合だけRedisに接続します。
func newRedisClient(ctx context.Context, appLogger logger.AppLogger) *redis.Client {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		appLogger.Info("REDIS_ADDRESSが未設定のためRedisを使わずに実行します")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
	// Redisへの接続を確認 (ping)
	if err := rdb.Ping(ctx).Err(); err != nil {
		appLogger.Error("Redisへの接続に失敗しました", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Redisへの接続を確認しました", "address", addr)
	return rdb
}

// newOutcomeRepositoryは、Redisが無い場合にreportDirの直近のscrapeレポートを前回の結果として使います。
func newOutcomeRepository(rdb *redis.Client, reportDir string) repository.VehicleOutcomeRepository {
	if rdb == nil {
		return infra.NewReportOutcomeStore(reportDir)
	}
	return infra.NewVehicleOutcomeClient(rdb)
}

func newDiscoveredModelRepository(rdb *redis.Client) repository.DiscoveredModelRepository {
	if rdb == nil {
		return infra.NewMemoryDiscoveredModelStore()
	}
	return infra.NewDiscoveredModelClient(rdb)
}
