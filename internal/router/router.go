package router

import (
	"github.com/clay-wangzhi/CephPolaris/internal/handlers"
	"github.com/clay-wangzhi/CephPolaris/internal/middleware"
	"github.com/clay-wangzhi/CephPolaris/internal/services"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Setup 设置路由
func Setup(db *gorm.DB, refreshService *services.RefreshService) *gin.Engine {
	r := gin.New()

	// 全局中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "CephPolaris is running",
		})
	})

	// Prometheus 指标
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API 路由组
	api := r.Group("/api")
	{
		clusterHandler := handlers.NewClusterHandler(db, refreshService)

		// 集群管理路由
		clusters := api.Group("/clusters")
		{
			clusters.GET("", clusterHandler.GetClusters)
			clusters.POST("", clusterHandler.RegisterCluster)
			clusters.GET("/:clusterId", clusterHandler.GetCluster)
			clusters.GET("/:clusterId/snapshot", clusterHandler.GetClusterSnapshot)
			clusters.GET("/:clusterId/statuses", clusterHandler.GetClusterStatuses)
		}

		// 手动触发刷新
		api.POST("/refresh", clusterHandler.TriggerRefresh)
	}

	return r
}
