package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/clay-wangzhi/CephPolaris/internal/models"
	"github.com/clay-wangzhi/CephPolaris/pkg/logger"

	"gorm.io/gorm"
)

// ClusterService 集群持久化服务
type ClusterService struct {
	db *gorm.DB
}

// NewClusterService 创建集群服务
func NewClusterService(db *gorm.DB) *ClusterService {
	return &ClusterService{db: db}
}

// RegisterCluster 注册集群
func (s *ClusterService) RegisterCluster(cluster *models.Cluster) error {
	cluster.CreatedAt = time.Now()
	cluster.UpdatedAt = time.Now()

	// 确保 Snapshot 是有效的 JSON，避免 MySQL JSON 字段报错
	if cluster.Snapshot == "" {
		cluster.Snapshot = "{}"
	}

	if err := s.db.Create(cluster).Error; err != nil {
		logger.Error("注册集群失败: %v", err)
		return &PersistenceError{Op: "注册集群", Err: err}
	}

	logger.Info("集群注册成功: %s (%s)", cluster.Name, cluster.APIBaseURL)
	return nil
}

// GetCluster 获取单个集群
func (s *ClusterService) GetCluster(id uint) (*models.Cluster, error) {
	var cluster models.Cluster
	if err := s.db.First(&cluster, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("集群不存在: %d", id)
		}
		return nil, fmt.Errorf("获取集群失败: %w", err)
	}
	return &cluster, nil
}

// GetAllClusters 获取所有集群
func (s *ClusterService) GetAllClusters() ([]*models.Cluster, error) {
	var clusters []*models.Cluster
	if err := s.db.Find(&clusters).Error; err != nil {
		logger.Error("获取集群列表失败: %v", err)
		return nil, fmt.Errorf("获取集群列表失败: %w", err)
	}
	return clusters, nil
}

// SaveSnapshot 持久化集群快照。四个字段序列化为一列 JSON 整体写入，
// 不存在逐字段落库的中间状态。
func (s *ClusterService) SaveSnapshot(clusterID uint, snapshot *models.Snapshot) error {
	raw, err := models.MarshalSnapshot(snapshot)
	if err != nil {
		return &PersistenceError{Op: "序列化快照", Err: err}
	}

	now := time.Now()
	result := s.db.Model(&models.Cluster{}).Where("id = ?", clusterID).Updates(map[string]interface{}{
		"snapshot":        raw,
		"last_refresh_at": &now,
		"updated_at":      now,
	})

	if result.Error != nil {
		return &PersistenceError{Op: "保存快照", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return &PersistenceError{Op: "保存快照", Err: fmt.Errorf("集群不存在: %d", clusterID)}
	}
	return nil
}

// AppendStatus 追加一条集群状态历史记录，历史记录只增不改
func (s *ClusterService) AppendStatus(clusterID uint, report json.RawMessage) error {
	record := &models.ClusterStatus{
		ClusterID: clusterID,
		Report:    report,
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(record).Error; err != nil {
		logger.Error("追加状态记录失败: %v", err)
		return &PersistenceError{Op: "追加状态记录", Err: err}
	}
	return nil
}

// ListStatuses 查询集群状态历史，按时间倒序
func (s *ClusterService) ListStatuses(clusterID uint, limit int) ([]*models.ClusterStatus, error) {
	var records []*models.ClusterStatus
	if err := s.db.Where("cluster_id = ?", clusterID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("查询状态历史失败: %w", err)
	}
	return records, nil
}
