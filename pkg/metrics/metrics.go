package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 刷新流水线指标，注册到默认 Registry，经 /metrics 暴露
var (
	// RefreshCycles 已完成的刷新周期总数
	RefreshCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cephpolaris_refresh_cycles_total",
		Help: "Total number of completed refresh cycles.",
	})

	// ClustersRefreshed 刷新成功的集群次数
	ClustersRefreshed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cephpolaris_cluster_refresh_success_total",
		Help: "Total number of successful per-cluster refreshes.",
	})

	// ClusterRefreshFailures 刷新失败的集群次数
	ClusterRefreshFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cephpolaris_cluster_refresh_failures_total",
		Help: "Total number of failed per-cluster refreshes.",
	})

	// LastCycleDuration 最近一个刷新周期的耗时（秒）
	LastCycleDuration = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cephpolaris_last_cycle_duration_seconds",
		Help: "Duration of the most recent refresh cycle in seconds.",
	})
)
