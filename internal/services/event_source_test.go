package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{}

// newEventTestServer 构造一个 websocket 事件服务端，
// onConn 处理每条升级成功的连接，upgrades 记录累计连接次数
func newEventTestServer(t *testing.T, upgrades *int32, onConn func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		atomic.AddInt32(upgrades, 1)
		onConn(conn)
	}))
}

// wsURL 将 httptest 服务器地址转换为 ws 协议
func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// holdOpen 保持连接直到对端关闭
func holdOpen(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			_ = conn.Close()
			return
		}
	}
}

// TestEventSourceReceive 测试正常接收事件并复位静默计数
func TestEventSourceReceive(t *testing.T) {
	var upgrades int32
	server := newEventTestServer(t, &upgrades, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte("osd.0 up"))
		holdOpen(conn)
	})
	defer server.Close()

	es, err := NewEventSource(wsURL(server))
	require.NoError(t, err)
	defer func() {
		_ = es.Close()
	}()
	assert.Equal(t, EventSourceConnected, es.State())

	// 预置一段静默，收到消息后应复位
	es.silence = 15 * time.Second

	message, err := es.GetEvent()
	require.NoError(t, err)
	assert.Equal(t, "osd.0 up", string(message))
	assert.Equal(t, time.Duration(0), es.silence)
}

// TestEventSourcePollTimeout 测试静默未超阈值时只累计不重连
func TestEventSourcePollTimeout(t *testing.T) {
	var upgrades int32
	server := newEventTestServer(t, &upgrades, holdOpen)
	defer server.Close()

	es, err := NewEventSource(wsURL(server))
	require.NoError(t, err)
	defer func() {
		_ = es.Close()
	}()
	es.pollTimeout = 10 * time.Millisecond
	es.silenceTimeout = 25 * time.Millisecond

	// 两次轮询共 20ms，未超过阈值
	for i := 0; i < 2; i++ {
		message, err := es.GetEvent()
		require.NoError(t, err)
		assert.Nil(t, message)
	}
	assert.Equal(t, EventSourceConnected, es.State())
	assert.Equal(t, int32(1), atomic.LoadInt32(&upgrades))
}

// TestEventSourceSilenceReconnect 测试静默超阈值后关闭重连
func TestEventSourceSilenceReconnect(t *testing.T) {
	var upgrades int32
	server := newEventTestServer(t, &upgrades, holdOpen)
	defer server.Close()

	es, err := NewEventSource(wsURL(server))
	require.NoError(t, err)
	defer func() {
		_ = es.Close()
	}()
	es.pollTimeout = 10 * time.Millisecond
	es.silenceTimeout = 25 * time.Millisecond

	// 第三次轮询累计 30ms，超过阈值触发重连
	for i := 0; i < 3; i++ {
		_, err := es.GetEvent()
		require.NoError(t, err)
	}

	assert.Equal(t, int32(2), atomic.LoadInt32(&upgrades))
	// 重连成功后回到 CONNECTED，静默计数清零
	assert.Equal(t, EventSourceConnected, es.State())
	assert.Equal(t, time.Duration(0), es.silence)
}

// TestEventSourceBrokenConnection 测试连接中断后立即重连
func TestEventSourceBrokenConnection(t *testing.T) {
	var upgrades int32
	server := newEventTestServer(t, &upgrades, func(conn *websocket.Conn) {
		if atomic.LoadInt32(&upgrades) == 1 {
			// 第一条连接直接断开
			_ = conn.Close()
			return
		}
		holdOpen(conn)
	})
	defer server.Close()

	es, err := NewEventSource(wsURL(server))
	require.NoError(t, err)
	defer func() {
		_ = es.Close()
	}()
	es.pollTimeout = 50 * time.Millisecond
	es.silenceTimeout = 200 * time.Millisecond

	// 读取协程退出后 GetEvent 触发重连
	require.Eventually(t, func() bool {
		_, err := es.GetEvent()
		require.NoError(t, err)
		return atomic.LoadInt32(&upgrades) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, EventSourceConnected, es.State())
}

// TestEventSourceDialFailure 测试初次连接失败
func TestEventSourceDialFailure(t *testing.T) {
	_, err := NewEventSource("ws://127.0.0.1:1/events")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "连接事件通道失败")
}
