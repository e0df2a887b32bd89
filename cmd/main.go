package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clay-wangzhi/CephPolaris/internal/config"
	"github.com/clay-wangzhi/CephPolaris/internal/database"
	"github.com/clay-wangzhi/CephPolaris/internal/router"
	"github.com/clay-wangzhi/CephPolaris/internal/services"
	"github.com/clay-wangzhi/CephPolaris/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// 初始化配置
	cfg := config.Load()

	// 初始化日志
	logger.Init(cfg.Log.Level)

	// 初始化数据库连接
	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("数据库初始化失败: %v", err)
	}

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化刷新服务与路由
	refreshService := services.NewRefreshService(db, cfg.Refresh.HTTPTimeout)
	r := router.Setup(db, refreshService)

	// 创建 HTTP 服务器
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	// 启动后台刷新循环
	refreshCtx, cancelRefresh := context.WithCancel(context.Background())
	defer cancelRefresh()
	if cfg.Refresh.Enabled {
		go runRefreshLoop(refreshCtx, refreshService, cfg.Refresh.Interval)
	} else {
		logger.Info("后台刷新已禁用，仅响应手动触发")
	}

	// 启动服务器
	go func() {
		logger.Info("服务器启动在端口: %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("正在关闭服务器...")
	cancelRefresh()

	// 设置 5 秒的超时时间来关闭服务器
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("服务器强制关闭:", err)
	}

	logger.Info("服务器已退出")
}

// runRefreshLoop 先立即执行一次刷新周期，之后按固定间隔执行。
// 正在执行的周期不会被中途取消，总是跑完所有集群。
func runRefreshLoop(ctx context.Context, refreshService *services.RefreshService, interval time.Duration) {
	logger.Info("后台刷新循环启动，间隔: %s", interval)

	if _, err := refreshService.RunCycle(context.Background()); err != nil {
		logger.Error("刷新周期执行失败: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("后台刷新循环已停止")
			return
		case <-ticker.C:
			if _, err := refreshService.RunCycle(context.Background()); err != nil {
				logger.Error("刷新周期执行失败: %v", err)
			}
		}
	}
}
