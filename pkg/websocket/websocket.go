package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Message 定义WebSocket消息结构
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
	SignalID  uint        `json:"signalId,omitempty"`
}

// Connection 表示一个WebSocket连接
type Connection struct {
	ID     string
	UserID uint
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub

	mu      sync.RWMutex
	signals map[uint]bool // 已订阅的信号
}

// Subscribe 订阅某个信号的事件
func (c *Connection) Subscribe(signalID uint) {
	c.mu.Lock()
	c.signals[signalID] = true
	c.mu.Unlock()
	c.Hub.subscribe(c, signalID)
}

// Unsubscribe 退订
func (c *Connection) Unsubscribe(signalID uint) {
	c.mu.Lock()
	delete(c.signals, signalID)
	c.mu.Unlock()
	c.Hub.unsubscribe(c, signalID)
}

// Hub 管理所有连接并按信号ID做事件扇出
type Hub struct {
	mu sync.RWMutex
	// 连接ID -> 连接
	connections map[string]*Connection
	// 信号ID -> 关注它的连接ID集合
	signalSubs map[uint]map[string]bool
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		signalSubs:  make(map[uint]map[string]bool),
	}
}

func (h *Hub) register(c *Connection) {
	h.mu.Lock()
	h.connections[c.ID] = c
	h.mu.Unlock()
}

func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	if _, ok := h.connections[c.ID]; ok {
		delete(h.connections, c.ID)
		for sid := range c.signals {
			delete(h.signalSubs[sid], c.ID)
		}
		close(c.Send)
	}
	h.mu.Unlock()
}

func (h *Hub) subscribe(c *Connection, signalID uint) {
	h.mu.Lock()
	if h.signalSubs[signalID] == nil {
		h.signalSubs[signalID] = make(map[string]bool)
	}
	h.signalSubs[signalID][c.ID] = true
	h.mu.Unlock()
}

func (h *Hub) unsubscribe(c *Connection, signalID uint) {
	h.mu.Lock()
	delete(h.signalSubs[signalID], c.ID)
	h.mu.Unlock()
}

// BroadcastSignalEvent 把事件推给订阅该信号的所有连接。
// 发送缓冲满的慢消费者直接丢消息，客户端靠重新拉取状态补齐。
func (h *Hub) BroadcastSignalEvent(signalID uint, msgType string, data interface{}) {
	msg := &Message{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().Unix(),
		SignalID:  signalID,
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		logrus.WithError(err).Warn("failed to marshal websocket message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID := range h.signalSubs[signalID] {
		conn, ok := h.connections[connID]
		if !ok {
			continue
		}
		select {
		case conn.Send <- raw:
		default:
			logrus.WithField("conn", connID).Debug("dropping message for slow consumer")
		}
	}
}

// ConnectionCount 当前连接数
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// SubscriberCount 某个信号的订阅连接数
func (h *Hub) SubscriberCount(signalID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.signalSubs[signalID])
}
