package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Cluster Ceph 集群模型
type Cluster struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Name          string         `json:"name" gorm:"uniqueIndex;not null;size:100"`
	APIBaseURL    string         `json:"api_base_url" gorm:"not null;size:255"`
	Snapshot      string         `json:"-" gorm:"type:json"` // JSON 格式存储的快照，整列一次性写入
	LastRefreshAt *time.Time     `json:"last_refresh_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

// ClusterStatus 集群状态历史记录，每次刷新成功追加一行，只增不改
type ClusterStatus struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	ClusterID uint            `json:"cluster_id" gorm:"not null;index"`
	Report    json.RawMessage `json:"report" gorm:"type:json"` // status 接口返回的原始 output
	CreatedAt time.Time       `json:"created_at"`

	// 关联关系
	Cluster Cluster `json:"-" gorm:"foreignKey:ClusterID"`
}

// TableName 指定集群状态表名
func (ClusterStatus) TableName() string {
	return "cluster_statuses"
}

// Snapshot 单个集群的当前状态汇总，四个字段在一次刷新内整体填充
type Snapshot struct {
	Space    SpaceStats      `json:"space"`
	Health   HealthStatus    `json:"health"`
	OSDs     json.RawMessage `json:"osds"` // osd/dump 返回的 osds 列表，原样透传
	Counters Counters        `json:"counters"`
}

// SpaceStats 集群空间统计，单位为字节（上游以 KB 上报）
type SpaceStats struct {
	UsedBytes     int64 `json:"used_bytes"`
	CapacityBytes int64 `json:"capacity_bytes"`
	FreeBytes     int64 `json:"free_bytes"`
}

// HealthStatus 集群健康状态，detail 和 summary 原样透传
type HealthStatus struct {
	OverallStatus string          `json:"overall_status"`
	Detail        json.RawMessage `json:"detail"`
	Summary       json.RawMessage `json:"summary"`
}

// Counters 派生计数器
type Counters struct {
	Pool PoolCounters `json:"pool"`
}

// PoolCounters 存储池健康计数器。
// 六个字段统计的是"存在该异常的池个数"而不是对象总数，
// Total 为观测到的池总数。
type PoolCounters struct {
	NumObjectsUnfound          int64 `json:"num_objects_unfound"`
	NumObjectsMissingOnPrimary int64 `json:"num_objects_missing_on_primary"`
	NumDeepScrubErrors         int64 `json:"num_deep_scrub_errors"`
	NumShallowScrubErrors      int64 `json:"num_shallow_scrub_errors"`
	NumScrubErrors             int64 `json:"num_scrub_errors"`
	NumObjectsDegraded         int64 `json:"num_objects_degraded"`
	Total                      int64 `json:"total"`
}

// MarshalSnapshot 将快照序列化为数据库列的 JSON 字符串
func MarshalSnapshot(s *Snapshot) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UnmarshalSnapshot 从数据库列解析快照，空列返回 nil
func UnmarshalSnapshot(raw string) (*Snapshot, error) {
	if raw == "" {
		return nil, nil
	}
	var s Snapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, err
	}
	return &s, nil
}
