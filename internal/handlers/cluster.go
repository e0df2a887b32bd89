package handlers

import (
	"net/http"
	"strconv"

	"github.com/clay-wangzhi/CephPolaris/internal/models"
	"github.com/clay-wangzhi/CephPolaris/internal/services"
	"github.com/clay-wangzhi/CephPolaris/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ClusterHandler 集群处理器
type ClusterHandler struct {
	clusterService *services.ClusterService
	refreshService *services.RefreshService
}

// NewClusterHandler 创建集群处理器
func NewClusterHandler(db *gorm.DB, refreshService *services.RefreshService) *ClusterHandler {
	return &ClusterHandler{
		clusterService: services.NewClusterService(db),
		refreshService: refreshService,
	}
}

// GetClusters 获取集群列表
func (h *ClusterHandler) GetClusters(c *gin.Context) {
	clusters, err := h.clusterService.GetAllClusters()
	if err != nil {
		logger.Error("获取集群列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "获取集群列表失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	// 转换为响应格式
	clusterList := make([]gin.H, 0, len(clusters))
	for _, cluster := range clusters {
		clusterData := gin.H{
			"id":         cluster.ID,
			"name":       cluster.Name,
			"apiBaseUrl": cluster.APIBaseURL,
			"createdAt":  cluster.CreatedAt.Format("2006-01-02T15:04:05Z"),
			"updatedAt":  cluster.UpdatedAt.Format("2006-01-02T15:04:05Z"),
		}
		if cluster.LastRefreshAt != nil {
			clusterData["lastRefreshAt"] = cluster.LastRefreshAt.Format("2006-01-02T15:04:05Z")
		}
		clusterList = append(clusterList, clusterData)
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "获取成功",
		"data": gin.H{
			"items": clusterList,
			"total": len(clusterList),
		},
	})
}

// RegisterCluster 注册集群
func (h *ClusterHandler) RegisterCluster(c *gin.Context) {
	var req struct {
		Name       string `json:"name" binding:"required"`
		APIBaseURL string `json:"api_base_url" binding:"required,url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "请求参数错误: " + err.Error(),
			"data":    nil,
		})
		return
	}

	cluster := &models.Cluster{
		Name:       req.Name,
		APIBaseURL: req.APIBaseURL,
	}
	if err := h.clusterService.RegisterCluster(cluster); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "注册集群失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "注册成功",
		"data": gin.H{
			"id":   cluster.ID,
			"name": cluster.Name,
		},
	})
}

// GetCluster 获取单个集群
func (h *ClusterHandler) GetCluster(c *gin.Context) {
	id, ok := h.clusterID(c)
	if !ok {
		return
	}

	cluster, err := h.clusterService.GetCluster(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    404,
			"message": err.Error(),
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "获取成功",
		"data":    cluster,
	})
}

// GetClusterSnapshot 获取集群最新快照
func (h *ClusterHandler) GetClusterSnapshot(c *gin.Context) {
	id, ok := h.clusterID(c)
	if !ok {
		return
	}

	cluster, err := h.clusterService.GetCluster(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    404,
			"message": err.Error(),
			"data":    nil,
		})
		return
	}

	if cluster.LastRefreshAt == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    404,
			"message": "集群尚未刷新",
			"data":    nil,
		})
		return
	}

	snapshot, err := models.UnmarshalSnapshot(cluster.Snapshot)
	if err != nil {
		logger.Error("解析集群 %s 快照失败: %v", cluster.Name, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "解析快照失败",
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "获取成功",
		"data": gin.H{
			"cluster":       cluster.Name,
			"lastRefreshAt": cluster.LastRefreshAt.Format("2006-01-02T15:04:05Z"),
			"snapshot":      snapshot,
		},
	})
}

// GetClusterStatuses 获取集群状态历史
func (h *ClusterHandler) GetClusterStatuses(c *gin.Context) {
	id, ok := h.clusterID(c)
	if !ok {
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := h.clusterService.ListStatuses(id, limit)
	if err != nil {
		logger.Error("查询状态历史失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "查询状态历史失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "获取成功",
		"data": gin.H{
			"items": records,
			"total": len(records),
		},
	})
}

// TriggerRefresh 立即执行一个刷新周期
func (h *ClusterHandler) TriggerRefresh(c *gin.Context) {
	report, err := h.refreshService.RunCycle(c.Request.Context())
	if err != nil {
		logger.Error("刷新周期执行失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "刷新周期执行失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	results := make([]gin.H, 0, len(report.Results))
	for _, result := range report.Results {
		item := gin.H{
			"cluster": result.ClusterName,
			"state":   result.State,
		}
		if result.Err != nil {
			item["error"] = result.Err.Error()
		}
		results = append(results, item)
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "刷新完成",
		"data": gin.H{
			"cycleId": report.CycleID,
			"total":   len(report.Results),
			"failed":  report.Failed(),
			"results": results,
		},
	})
}

// clusterID 解析路径中的集群 ID
func (h *ClusterHandler) clusterID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("clusterId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "无效的集群ID",
			"data":    nil,
		})
		return 0, false
	}
	return uint(id), true
}
