package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestQueryEndpointJoin 测试基础 URL 与接口路径的拼接
func TestQueryEndpointJoin(t *testing.T) {
	var gotPath, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("accept")
		_, _ = w.Write([]byte(`{"output": {"stats": {"total_used": 1, "total_space": 2, "total_avail": 3}}}`))
	}))
	defer server.Close()

	// 基础 URL 不带末尾斜杠，客户端负责补齐
	client := NewCephRestClient(server.URL, 5*time.Second)
	_, err := client.GetSpaceStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/df", gotPath)
	assert.Equal(t, "application/json", gotAccept)
}

// TestGetSpaceStats 测试 df 接口解析
func TestGetSpaceStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output": {"stats": {"total_used": 100, "total_space": 300, "total_avail": 200}}}`))
	}))
	defer server.Close()

	client := NewCephRestClient(server.URL, 5*time.Second)
	stats, err := client.GetSpaceStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(100), stats.TotalUsed)
	assert.Equal(t, int64(300), stats.TotalSpace)
	assert.Equal(t, int64(200), stats.TotalAvail)
}

// TestQueryHTTPError 测试非 2xx 状态码返回 QueryError 并记录诊断信息
func TestQueryHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	client := NewCephRestClient(server.URL, 5*time.Second)
	_, err := client.GetHealth(context.Background())
	require.Error(t, err)

	var queryErr *QueryError
	require.True(t, errors.As(err, &queryErr))
	assert.Equal(t, "health?detail", queryErr.Endpoint)

	// 诊断信息保留了最近一次响应
	last := client.LastResponse()
	require.NotNil(t, last)
	assert.Equal(t, http.StatusInternalServerError, last.StatusCode)
	assert.Equal(t, "boom", last.Body)
}

// TestQueryNonJSONBody 测试响应体不是 JSON 时返回 QueryError
func TestQueryNonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client := NewCephRestClient(server.URL, 5*time.Second)
	_, err := client.GetStatus(context.Background())

	var queryErr *QueryError
	require.True(t, errors.As(err, &queryErr))
}

// TestQueryMissingOutput 测试缺少 output 字段返回 MalformedResponseError
func TestQueryMissingOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	}))
	defer server.Close()

	client := NewCephRestClient(server.URL, 5*time.Second)
	_, err := client.GetStatus(context.Background())

	var malformedErr *MalformedResponseError
	require.True(t, errors.As(err, &malformedErr))
	assert.Equal(t, "output", malformedErr.Key)
}

// TestGetHealthMissingOverallStatus 测试健康接口缺少 overall_status 字段
func TestGetHealthMissingOverallStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output": {"detail": [], "summary": []}}`))
	}))
	defer server.Close()

	client := NewCephRestClient(server.URL, 5*time.Second)
	_, err := client.GetHealth(context.Background())

	var malformedErr *MalformedResponseError
	require.True(t, errors.As(err, &malformedErr))
	assert.Equal(t, "overall_status", malformedErr.Key)
}

// TestGetPGPools 测试池统计列表解析
func TestGetPGPools(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pg/dump", r.URL.Path)
		assert.Equal(t, "dumpcontents=pools", r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"output": [{"stat_sum": {"num_objects_degraded": 3}}, {"stat_sum": {}}]}`))
	}))
	defer server.Close()

	client := NewCephRestClient(server.URL+"/", 5*time.Second)
	pools, err := client.GetPGPools(context.Background())
	require.NoError(t, err)
	require.Len(t, pools, 2)
	assert.Equal(t, int64(3), pools[0].StatSum["num_objects_degraded"])
}

// TestQueryTransportError 测试传输错误返回 QueryError
func TestQueryTransportError(t *testing.T) {
	// 端口未监听
	client := NewCephRestClient("http://127.0.0.1:1", 500*time.Millisecond)
	_, err := client.GetStatus(context.Background())

	var queryErr *QueryError
	require.True(t, errors.As(err, &queryErr))
	// 请求未到达服务端，没有可用的诊断信息
	assert.Nil(t, client.LastResponse())
}
