package services

import (
	"context"
	"fmt"

	"github.com/clay-wangzhi/CephPolaris/internal/models"
)

// SnapshotService 负责从 REST 接口填充集群快照
type SnapshotService struct{}

// NewSnapshotService 创建快照服务
func NewSnapshotService() *SnapshotService {
	return &SnapshotService{}
}

// populateStep 一个填充步骤，只写快照的一个字段
type populateStep struct {
	name string
	fn   func(ctx context.Context, client *CephRestClient, snapshot *models.Snapshot) error
}

// populateSteps 按固定顺序执行：space → health → osds → counters
var populateSteps = []populateStep{
	{"space", populateSpace},
	{"health", populateHealth},
	{"osds", populateOSDs},
	{"counters", populateCounters},
}

// Build 构建集群快照。任一步失败立即中止，不返回半成品快照，
// 调用方因此不会持久化只填充了一部分的快照。
func (s *SnapshotService) Build(ctx context.Context, client *CephRestClient) (*models.Snapshot, error) {
	snapshot := &models.Snapshot{}
	for _, step := range populateSteps {
		if err := step.fn(ctx, client, snapshot); err != nil {
			return nil, fmt.Errorf("填充 %s 失败: %w", step.name, err)
		}
	}
	return snapshot, nil
}

// populateSpace 填充集群空间统计，上游以 KB 上报，这里换算为字节
func populateSpace(ctx context.Context, client *CephRestClient, snapshot *models.Snapshot) error {
	data, err := client.GetSpaceStats(ctx)
	if err != nil {
		return err
	}
	snapshot.Space = models.SpaceStats{
		UsedBytes:     data.TotalUsed * 1024,
		CapacityBytes: data.TotalSpace * 1024,
		FreeBytes:     data.TotalAvail * 1024,
	}
	return nil
}

// populateHealth 填充集群健康状态，三个字段原样复制
func populateHealth(ctx context.Context, client *CephRestClient, snapshot *models.Snapshot) error {
	data, err := client.GetHealth(ctx)
	if err != nil {
		return err
	}
	snapshot.Health = models.HealthStatus{
		OverallStatus: *data.OverallStatus,
		Detail:        data.Detail,
		Summary:       data.Summary,
	}
	return nil
}

// populateOSDs 填充 OSD 列表，原样透传，不做逐项校验
func populateOSDs(ctx context.Context, client *CephRestClient, snapshot *models.Snapshot) error {
	data, err := client.GetOSDs(ctx)
	if err != nil {
		return err
	}
	snapshot.OSDs = data
	return nil
}

// populateCounters 填充派生的存储池计数器
func populateCounters(ctx context.Context, client *CephRestClient, snapshot *models.Snapshot) error {
	pools, err := client.GetPGPools(ctx)
	if err != nil {
		return err
	}
	snapshot.Counters = models.Counters{
		Pool: AggregatePoolCounters(pools),
	}
	return nil
}

// poolCounterFields 识别的六个池计数字段，其余字段一律丢弃
var poolCounterFields = []string{
	"num_objects_unfound",
	"num_objects_missing_on_primary",
	"num_deep_scrub_errors",
	"num_shallow_scrub_errors",
	"num_scrub_errors",
	"num_objects_degraded",
}

// AggregatePoolCounters 聚合各存储池的统计，纯函数，无 I/O。
// 每个池对每个字段的贡献按 min(value, 1) 截断，因此结果是
// "存在该异常的池个数"而不是异常对象总数；Total 为池总数。
func AggregatePoolCounters(pools []PGPoolStat) models.PoolCounters {
	counts := make(map[string]int64, len(poolCounterFields))
	for _, pool := range pools {
		for _, field := range poolCounterFields {
			if value, ok := pool.StatSum[field]; ok {
				counts[field] += min(value, 1)
			}
		}
	}
	return models.PoolCounters{
		NumObjectsUnfound:          counts["num_objects_unfound"],
		NumObjectsMissingOnPrimary: counts["num_objects_missing_on_primary"],
		NumDeepScrubErrors:         counts["num_deep_scrub_errors"],
		NumShallowScrubErrors:      counts["num_shallow_scrub_errors"],
		NumScrubErrors:             counts["num_scrub_errors"],
		NumObjectsDegraded:         counts["num_objects_degraded"],
		Total:                      int64(len(pools)),
	}
}
