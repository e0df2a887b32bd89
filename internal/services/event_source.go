package services

import (
	"fmt"
	"time"

	"github.com/clay-wangzhi/CephPolaris/pkg/logger"

	"github.com/gorilla/websocket"
)

// 事件源状态
const (
	EventSourceConnected    = "CONNECTED"
	EventSourceReconnecting = "RECONNECTING"
)

const (
	// 单次 GetEvent 内部等待的时长，不是逻辑超时
	defaultPollTimeout = 5 * time.Second
	// 超过这个时长没有任何消息就关闭重连。重连切换期间可能丢消息，
	// 功能上可以接受，所以不轻易触发。
	defaultSilenceTimeout = 20 * time.Second
)

// EventSource 包装一条长连接事件通道，通道静默过久时关闭并重建连接
type EventSource struct {
	url            string
	dialer         *websocket.Dialer
	conn           *websocket.Conn
	messages       chan []byte
	state          string
	silence        time.Duration
	pollTimeout    time.Duration
	silenceTimeout time.Duration
}

// NewEventSource 创建事件源并建立首次连接
func NewEventSource(url string) (*EventSource, error) {
	es := &EventSource{
		url:            url,
		dialer:         websocket.DefaultDialer,
		state:          EventSourceReconnecting,
		pollTimeout:    defaultPollTimeout,
		silenceTimeout: defaultSilenceTimeout,
	}
	if err := es.connect(); err != nil {
		return nil, err
	}
	return es, nil
}

// State 返回当前连接状态
func (es *EventSource) State() string {
	return es.state
}

// connect 建立连接、启动读取协程并复位静默计数
func (es *EventSource) connect() error {
	conn, resp, err := es.dialer.Dial(es.url, nil)
	if err != nil {
		return fmt.Errorf("连接事件通道失败: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	messages := make(chan []byte, 16)
	go readLoop(conn, messages)

	es.conn = conn
	es.messages = messages
	es.state = EventSourceConnected
	es.silence = 0
	return nil
}

// readLoop 持续读取一条连接上的消息，连接失效时关闭通道退出
func readLoop(conn *websocket.Conn, messages chan<- []byte) {
	defer close(messages)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		messages <- message
	}
}

// GetEvent 读取下一条事件，单次最多等待 pollTimeout。
// 返回 nil 消息表示本次轮询没有消息。收到任何消息都会复位静默计数。
func (es *EventSource) GetEvent() ([]byte, error) {
	if es.conn == nil {
		// 上次重连失败，先重试建连
		if err := es.connect(); err != nil {
			return nil, err
		}
	}

	timer := time.NewTimer(es.pollTimeout)
	defer timer.Stop()

	select {
	case message, ok := <-es.messages:
		if !ok {
			// 读取协程已退出，连接失效
			logger.Warn("事件通道读取中断，正在重连: %s", es.url)
			es.reconnect()
			return nil, nil
		}
		es.silence = 0
		return message, nil
	case <-timer.C:
		es.silence += es.pollTimeout
		if es.silence <= es.silenceTimeout {
			return nil, nil
		}
		logger.Warn("事件通道静默超过 %s，正在重连: %s", es.silenceTimeout, es.url)
		es.reconnect()
		return nil, nil
	}
}

// reconnect 异步释放旧连接并重建，避免关闭动作阻塞轮询
func (es *EventSource) reconnect() {
	es.state = EventSourceReconnecting
	if old := es.conn; old != nil {
		es.conn = nil
		go func() {
			_ = old.Close()
		}()
	}
	if err := es.connect(); err != nil {
		// 保持 RECONNECTING，下次 GetEvent 再试
		logger.Error("事件通道重连失败: %v", err)
	}
}

// Close 关闭事件源
func (es *EventSource) Close() error {
	if es.conn == nil {
		return nil
	}
	return es.conn.Close()
}
