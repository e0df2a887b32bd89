package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Ceph RESTful API 接口路径
const (
	endpointDF         = "df"
	endpointHealth     = "health?detail"
	endpointOSDDump    = "osd/dump"
	endpointPGPoolDump = "pg/dump?dumpcontents=pools"
	endpointStatus     = "status"
)

// CephRestClient Ceph RESTful API 客户端。
// 本层不做重试，重试策略由刷新编排器在下个周期完成。
type CephRestClient struct {
	baseURL      string
	httpClient   *http.Client
	lastResponse *ResponseInfo
}

// ResponseInfo 最近一次 HTTP 响应的诊断信息，失败时随日志输出
type ResponseInfo struct {
	StatusCode int
	Headers    http.Header
	Body       string
}

// NewCephRestClient 创建 Ceph REST 客户端，base URL 统一补齐末尾分隔符
func NewCephRestClient(baseURL string, timeout time.Duration) *CephRestClient {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &CephRestClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// LastResponse 返回最近一次观测到的 HTTP 响应，尚未发出请求时为 nil
func (c *CephRestClient) LastResponse() *ResponseInfo {
	return c.lastResponse
}

// query 请求单个接口并解析 JSON 响应体
func (c *CephRestClient) query(ctx context.Context, endpoint string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, &QueryError{Endpoint: endpoint, Err: fmt.Errorf("创建请求失败: %w", err)}
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &QueryError{Endpoint: endpoint, Err: fmt.Errorf("执行请求失败: %w", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &QueryError{Endpoint: endpoint, Err: fmt.Errorf("读取响应失败: %w", err)}
	}

	c.lastResponse = &ResponseInfo{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       string(body),
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &QueryError{Endpoint: endpoint, Err: fmt.Errorf("状态码: %d", resp.StatusCode)}
	}

	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &QueryError{Endpoint: endpoint, Err: fmt.Errorf("解析响应失败: %w", err)}
	}
	return raw, nil
}

// output 提取响应体中的 output 字段
func (c *CephRestClient) output(ctx context.Context, endpoint string) (json.RawMessage, error) {
	body, err := c.query(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Output json.RawMessage `json:"output"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &MalformedResponseError{Endpoint: endpoint, Key: "output"}
	}
	if envelope.Output == nil {
		return nil, &MalformedResponseError{Endpoint: endpoint, Key: "output"}
	}
	return envelope.Output, nil
}

// RawSpaceStats ceph df 返回的原始空间统计，单位为 KB
type RawSpaceStats struct {
	TotalUsed  int64 `json:"total_used"`
	TotalSpace int64 `json:"total_space"`
	TotalAvail int64 `json:"total_avail"`
}

// GetSpaceStats 获取 ceph df 的 stats 统计
func (c *CephRestClient) GetSpaceStats(ctx context.Context) (*RawSpaceStats, error) {
	out, err := c.output(ctx, endpointDF)
	if err != nil {
		return nil, err
	}

	var data struct {
		Stats *RawSpaceStats `json:"stats"`
	}
	if err := json.Unmarshal(out, &data); err != nil || data.Stats == nil {
		return nil, &MalformedResponseError{Endpoint: endpointDF, Key: "stats"}
	}
	return data.Stats, nil
}

// RawHealth ceph health detail 返回的原始健康状态
type RawHealth struct {
	OverallStatus *string         `json:"overall_status"`
	Detail        json.RawMessage `json:"detail"`
	Summary       json.RawMessage `json:"summary"`
}

// GetHealth 获取 ceph health detail 输出
func (c *CephRestClient) GetHealth(ctx context.Context) (*RawHealth, error) {
	out, err := c.output(ctx, endpointHealth)
	if err != nil {
		return nil, err
	}

	var data RawHealth
	if err := json.Unmarshal(out, &data); err != nil {
		return nil, &MalformedResponseError{Endpoint: endpointHealth, Key: "overall_status"}
	}
	if data.OverallStatus == nil {
		return nil, &MalformedResponseError{Endpoint: endpointHealth, Key: "overall_status"}
	}
	return &data, nil
}

// GetOSDs 获取 ceph osd dump 中的 osds 列表，内容对本服务不透明
func (c *CephRestClient) GetOSDs(ctx context.Context) (json.RawMessage, error) {
	out, err := c.output(ctx, endpointOSDDump)
	if err != nil {
		return nil, err
	}

	var data struct {
		OSDs json.RawMessage `json:"osds"`
	}
	if err := json.Unmarshal(out, &data); err != nil || data.OSDs == nil {
		return nil, &MalformedResponseError{Endpoint: endpointOSDDump, Key: "osds"}
	}
	return data.OSDs, nil
}

// PGPoolStat pg dump 中单个存储池的统计
type PGPoolStat struct {
	StatSum map[string]int64 `json:"stat_sum"`
}

// GetPGPools 获取 pg/dump?dumpcontents=pools 的池统计列表
func (c *CephRestClient) GetPGPools(ctx context.Context) ([]PGPoolStat, error) {
	out, err := c.output(ctx, endpointPGPoolDump)
	if err != nil {
		return nil, err
	}

	var pools []PGPoolStat
	if err := json.Unmarshal(out, &pools); err != nil {
		return nil, &MalformedResponseError{Endpoint: endpointPGPoolDump, Key: "stat_sum"}
	}
	return pools, nil
}

// GetStatus 获取集群状态报告，原样返回 output 内容
func (c *CephRestClient) GetStatus(ctx context.Context) (json.RawMessage, error) {
	return c.output(ctx, endpointStatus)
}
