package main

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"icx-wallet/internal/server"
	"icx-wallet/internal/service"
	"icx-wallet/pkg/config"
	"icx-wallet/pkg/database"
	"icx-wallet/pkg/logger"
	"icx-wallet/pkg/validator"
)

func main() {
	// 0. 初始化 Config
	config.Init()
	cfg := config.Global

	// 1. 初始化 Logger
	logger.Init(cfg.App.Env)
	defer logger.Sync()

	if err := validator.Init(); err != nil {
		logger.Fatal("注册校验规则失败", zap.Error(err))
	}

	// 2. 连接 Redis. relay 走 redis 或启用二级缓存时必须可用, 否则只用于分布式锁
	var rdb *redis.Client
	redisRequired := cfg.Relay.Transport == "redis" || cfg.Session.UseRedisCache
	if cfg.Redis.Addr != "" {
		c, err := database.ConnectRedis(cfg.Redis)
		switch {
		case err == nil:
			rdb = c
		case redisRequired:
			logger.Fatal("Redis 连接失败", zap.Error(err))
		default:
			logger.Warn("Redis 不可用, 使用进程内锁", zap.Error(err))
		}
	}

	// 3. 交易日志 (可选)
	var db *gorm.DB
	if cfg.DB.Enabled {
		var err error
		db, err = database.ConnectPostgres(database.DSN(cfg.DB), cfg.App.Env == "development")
		if err != nil {
			logger.Fatal("数据库连接失败", zap.Error(err))
		}
	}

	// 4. 初始化钱包
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w, err := service.NewWallet(ctx, cfg, service.Deps{Redis: rdb, DB: db})
	if err != nil {
		logger.Fatal("初始化钱包失败", zap.Error(err))
	}

	// 5. 定时刷新账户指标
	scheduler := w.NewRefreshScheduler()
	if err := scheduler.Start(); err != nil {
		logger.Fatal("启动刷新任务失败", zap.Error(err))
	}

	// 6. HTTP
	r := server.NewHTTPRouter(w, cfg.Relay.RequestTopic, cfg.Relay.ResponseTopic)
	app := server.New(server.Config{HttpPort: cfg.App.HttpPort}, r)
	if err := app.Run(ctx); err != nil {
		logger.Error("HTTP Server failure", zap.Error(err))
	}

	// 7. 退出后资源清理
	scheduler.Stop()
	if err := w.Close(); err != nil {
		logger.Warn("关闭钱包失败", zap.Error(err))
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	logger.Info("系统已退出")
}
