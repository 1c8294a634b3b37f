package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Serve 升级连接并启动读写泵，由路由层在解析出用户后调用
func Serve(hub *Hub, userID uint, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}

	conn := &Connection{
		ID:      uuid.NewString(),
		UserID:  userID,
		Conn:    ws,
		Send:    make(chan []byte, DefaultSendBufferSize),
		Hub:     hub,
		signals: make(map[uint]bool),
	}
	hub.register(conn)

	go conn.writePump()
	go conn.readPump()
}

func (c *Connection) readPump() {
	defer func() {
		c.Hub.unregister(c)
		_ = c.Conn.Close()
	}()
	c.Conn.SetReadLimit(DefaultMaxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(DefaultPongWait * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(DefaultPongWait * time.Second))
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.reply(MessageTypeError, "malformed message")
			continue
		}
		switch msg.Type {
		case MessageTypePing:
			c.reply(MessageTypePong, nil)
		case MessageTypeSubscribe:
			if msg.SignalID != 0 {
				c.Subscribe(msg.SignalID)
				c.reply(MessageTypeSubscribed, msg.SignalID)
			}
		case MessageTypeUnsubscribe:
			if msg.SignalID != 0 {
				c.Unsubscribe(msg.SignalID)
				c.reply(MessageTypeUnsubscribed, msg.SignalID)
			}
		default:
			c.reply(MessageTypeError, "unknown message type")
		}
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker((DefaultPongWait * time.Second * 9) / 10)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()
	for {
		select {
		case raw, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(DefaultWriteWait * time.Second))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(DefaultWriteWait * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Connection) reply(msgType string, data interface{}) {
	raw, err := json.Marshal(&Message{Type: msgType, Data: data, Timestamp: time.Now().Unix()})
	if err != nil {
		return
	}
	select {
	case c.Send <- raw:
	default:
	}
}
