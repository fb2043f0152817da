// Package websocket 提供支持面板的 WebSocket 通信功能
// 在线客服通过这里实时接收人工接管事件
package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// 连接配置常量
const (
	// 写超时时间
	writeWait = 10 * time.Second

	// 等待 Pong 响应的超时时间
	pongWait = 60 * time.Second

	// 发送 Ping 的间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小（64KB，客服端只发心跳和确认）
	maxMessageSize = 64 * 1024
)

// Client 表示一个客服的 WebSocket 连接
type Client struct {
	hub      *Hub            // 所属的 Hub
	conn     *websocket.Conn // WebSocket 连接
	send     chan []byte     // 发送消息的通道
	agentID  int64           // 客服 ID
	username string          // 登录名
	mu       sync.Mutex      // 保护 Close 的互斥锁
	closed   bool
}

// NewClient 创建新的客服连接
func NewClient(hub *Hub, conn *websocket.Conn, agentID int64, username string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 64),
		agentID:  agentID,
		username: username,
	}
}

// ReadPump 读取 WebSocket 消息的 goroutine
// 客服端基本只发 Pong 心跳，这里主要负责感知连接断开
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: agent=%d err=%v", c.agentID, err)
			}
			break
		}
	}
}

// WritePump 写入 WebSocket 消息的 goroutine
// 从 send 通道读取消息写入连接，并定时发送 Ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// send 通道已关闭
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Send 向客服发送消息
// 非阻塞发送，通道满时丢弃并写日志
func (c *Client) Send(data []byte) {
	select {
	case c.send <- data:
	default:
		log.Printf("Client send buffer full, dropping message: agent=%d", c.agentID)
	}
}

// Close 关闭客户端连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
