package services

import (
	"context"
	"time"

	"github.com/clay-wangzhi/CephPolaris/internal/models"
	"github.com/clay-wangzhi/CephPolaris/pkg/logger"
	"github.com/clay-wangzhi/CephPolaris/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 刷新周期内单个集群的处理状态
const (
	StatePending   = "PENDING"
	StateQuerying  = "QUERYING"
	StatePersisted = "PERSISTED"
	StateFailed    = "FAILED"
)

// RefreshResult 单个集群的刷新结果
type RefreshResult struct {
	ClusterID   uint   `json:"cluster_id"`
	ClusterName string `json:"cluster_name"`
	State       string `json:"state"`
	Err         error  `json:"-"`
	// Diagnostic 失败时集群处理期间最近一次 HTTP 响应
	Diagnostic *ResponseInfo `json:"-"`
}

// CycleReport 一个刷新周期的汇总报告
type CycleReport struct {
	CycleID    string          `json:"cycle_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Results    []RefreshResult `json:"results"`
}

// Failed 返回本周期失败的集群数
func (r *CycleReport) Failed() int {
	n := 0
	for _, result := range r.Results {
		if result.State == StateFailed {
			n++
		}
	}
	return n
}

// RefreshService 集群统计刷新编排器
type RefreshService struct {
	clusterService  *ClusterService
	snapshotService *SnapshotService
	httpTimeout     time.Duration
}

// NewRefreshService 创建刷新服务
func NewRefreshService(db *gorm.DB, httpTimeout time.Duration) *RefreshService {
	return &RefreshService{
		clusterService:  NewClusterService(db),
		snapshotService: NewSnapshotService(),
		httpTimeout:     httpTimeout,
	}
}

// RunCycle 刷新所有已注册集群。集群按注册顺序逐个处理，
// 单个集群失败只记录诊断并继续，整个周期总是执行完所有集群。
func (s *RefreshService) RunCycle(ctx context.Context) (*CycleReport, error) {
	clusters, err := s.clusterService.GetAllClusters()
	if err != nil {
		return nil, err
	}

	report := &CycleReport{
		CycleID:   uuid.NewString(),
		StartedAt: time.Now(),
		Results:   make([]RefreshResult, 0, len(clusters)),
	}
	logger.Info("开始刷新 %d 个集群, cycle=%s", len(clusters), report.CycleID)

	for _, cluster := range clusters {
		result := s.refreshCluster(ctx, cluster)
		if result.State == StateFailed {
			s.logFailure(cluster, result)
			metrics.ClusterRefreshFailures.Inc()
		} else {
			metrics.ClustersRefreshed.Inc()
		}
		report.Results = append(report.Results, result)
	}

	report.FinishedAt = time.Now()
	metrics.RefreshCycles.Inc()
	metrics.LastCycleDuration.Set(report.FinishedAt.Sub(report.StartedAt).Seconds())
	logger.Info("刷新完成: 共 %d 个集群, 失败 %d 个, cycle=%s",
		len(report.Results), report.Failed(), report.CycleID)
	return report, nil
}

// refreshCluster 刷新单个集群：构建并保存快照，然后追加状态记录。
// 每个集群使用独立的客户端，诊断信息不跨集群共享。
func (s *RefreshService) refreshCluster(ctx context.Context, cluster *models.Cluster) RefreshResult {
	result := RefreshResult{
		ClusterID:   cluster.ID,
		ClusterName: cluster.Name,
		State:       StatePending,
	}

	client := NewCephRestClient(cluster.APIBaseURL, s.httpTimeout)
	result.State = StateQuerying
	logger.Info("刷新集群数据: %s (%s)", cluster.Name, cluster.APIBaseURL)

	if err := s.refreshOnce(ctx, client, cluster); err != nil {
		result.State = StateFailed
		result.Err = err
		result.Diagnostic = client.LastResponse()
		return result
	}

	result.State = StatePersisted
	return result
}

// refreshOnce 单个集群的完整刷新流程
func (s *RefreshService) refreshOnce(ctx context.Context, client *CephRestClient, cluster *models.Cluster) error {
	// 构建快照，任一步失败都不会落库
	snapshot, err := s.snapshotService.Build(ctx, client)
	if err != nil {
		return err
	}
	if err := s.clusterService.SaveSnapshot(cluster.ID, snapshot); err != nil {
		return err
	}

	// 刷新状态记录
	statusReport, err := client.GetStatus(ctx)
	if err != nil {
		return err
	}
	if err := s.clusterService.AppendStatus(cluster.ID, statusReport); err != nil {
		return err
	}

	logger.Info("(%s): 集群状态已更新", cluster.Name)
	return nil
}

// logFailure 输出失败诊断：最近一次响应的上下文加完整错误链
func (s *RefreshService) logFailure(cluster *models.Cluster, result RefreshResult) {
	if r := result.Diagnostic; r != nil {
		logger.Error("集群 %s 最近一次响应: 状态码: %d", cluster.Name, r.StatusCode)
		logger.Error("集群 %s 最近一次响应: 头部: %v", cluster.Name, r.Headers)
		logger.Error("集群 %s 最近一次响应: 内容: %s", cluster.Name, r.Body)
	} else {
		logger.Error("集群 %s 最近一次响应: <未记录>", cluster.Name)
	}
	logger.Error("刷新集群 %s 失败: %+v", cluster.Name, result.Err)
}
