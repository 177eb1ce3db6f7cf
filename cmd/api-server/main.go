// Package main API Server 入口
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tss-admin/internal/apiserver/server"
	"tss-admin/internal/config"
	"tss-admin/internal/shared/storage/dbutil"
	"tss-admin/internal/shared/storage/driver/postgres"
	"tss-admin/internal/shared/storage/driver/sqlite"
	"tss-admin/internal/shared/storage/repository"
	"tss-admin/pkg/logging"
)

func main() {
	logger := logging.Default("api-server")

	// 加载配置（自动加载 .env，根据 APP_ENV 切换配置文件）
	cfg := config.Load()

	logger.Info("Starting API Server", "env", cfg.Env, "config", cfg.String())

	// 按驱动打开数据库并执行自动迁移
	db, dialect, err := openDatabase(cfg)
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	if err := dialect.AutoMigrate(db); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	store := repository.NewStore(db, dialect)
	defer store.Close()
	logger.Info("Connected to database", "driver", cfg.DatabaseDriver)

	// 初始化 Handler
	h := server.NewHandler(store, cfg.Auth)

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("API Server listening", "port", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}

	fmt.Println("Server stopped")
}

// openDatabase 按配置的驱动打开数据库连接
func openDatabase(cfg *config.Config) (*sql.DB, dbutil.Dialect, error) {
	switch cfg.DatabaseDriver {
	case "postgres":
		db, err := postgres.Open(cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		return db, postgres.NewDialect(), nil
	case "sqlite", "":
		db, err := sqlite.Open(cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		return db, sqlite.NewDialect(), nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %q", cfg.DatabaseDriver)
	}
}
