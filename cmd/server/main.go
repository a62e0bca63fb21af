package main

import (
	"github.com/dailymetrics/internal/config"
	"github.com/dailymetrics/internal/db"
	"github.com/dailymetrics/internal/logger"
	"github.com/dailymetrics/internal/router"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 本地开发时从 .env 读取配置，文件不存在直接忽略
	_ = godotenv.Load()

	cfg := config.Load()

	if err := logger.Init(cfg.LogPath, cfg.LogLevel); err != nil {
		panic(err)
	}
	defer logger.Sync()

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		logger.L.Fatal("failed to initialize database", zap.Error(err))
	}

	// 确保初始管理员存在，登录码由环境变量下发
	if err := db.EnsureAdminUser(cfg.AdminUsername, cfg.AdminLoginCode); err != nil {
		logger.L.Fatal("failed to ensure admin user", zap.Error(err))
	}

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(db.DB, cfg)
	logger.L.Info("server starting", zap.String("addr", cfg.ListenAddr))
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.L.Fatal("failed to run server", zap.Error(err))
	}
}
