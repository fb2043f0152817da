// Package websocket 提供支持面板的 WebSocket 通信功能
package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"product-chatbot-server/internal/cache"
	"product-chatbot-server/internal/service"
)

// Hub 是客服 WebSocket 连接的中心管理器
// 负责：
// 1. 管理所有在线客服连接
// 2. 把人工接管事件广播给全部在线客服
// 3. 同步 Redis 里的客服在线状态
type Hub struct {
	// 客服连接映射：agentID -> []*Client
	// 一个客服可能开多个浏览器标签页
	clients map[int64][]*Client

	// 注册通道
	register chan *Client

	// 注销通道
	unregister chan *Client

	// 广播通道
	broadcast chan []byte

	// 互斥锁，保护并发访问
	mu sync.RWMutex

	// Redis 缓存（可选，nil 时跳过在线状态同步）
	cache *cache.RedisCache
}

// NewHub 创建 Hub 实例
func NewHub(redisCache *cache.RedisCache) *Hub {
	return &Hub{
		clients:    make(map[int64][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		cache:      redisCache,
	}
}

// Run 启动 Hub 的主循环
// 应该在单独的 goroutine 中运行
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToAll(message)
		}
	}
}

// registerClient 注册客服连接
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.agentID] = append(h.clients[client.agentID], client)
	h.mu.Unlock()

	if h.cache != nil {
		go func() {
			if err := h.cache.SetAgentOnline(context.Background(), client.agentID); err != nil {
				log.Printf("Failed to set agent online: %v", err)
			}
		}()
	}

	log.Printf("Agent connected: agentID=%d username=%s", client.agentID, client.username)
}

// unregisterClient 注销客服连接
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	clients := h.clients[client.agentID]
	for i, c := range clients {
		if c == client {
			h.clients[client.agentID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	lastConnection := len(h.clients[client.agentID]) == 0
	if lastConnection {
		delete(h.clients, client.agentID)
	}
	h.mu.Unlock()

	// 只有最后一个连接断开时才标记离线
	if lastConnection && h.cache != nil {
		go func() {
			if err := h.cache.SetAgentOffline(context.Background(), client.agentID); err != nil {
				log.Printf("Failed to set agent offline: %v", err)
			}
		}()
	}

	client.Close()
	log.Printf("Agent disconnected: agentID=%d", client.agentID)
}

// broadcastToAll 把消息发给所有在线客服
func (h *Hub) broadcastToAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.clients {
		for _, client := range clients {
			client.Send(message)
		}
	}
}

// Register 注册客服连接（供外部调用）
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister 注销客服连接（供外部调用）
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastEscalation 把接管事件广播给所有在线客服
// 实现 service.EscalationBroadcaster 接口
func (h *Hub) BroadcastEscalation(event service.EscalationEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal escalation event: %v", err)
		return
	}

	// 非阻塞投递，通道满时丢弃（客服仍能从队列接口拉到）
	select {
	case h.broadcast <- data:
	default:
		log.Printf("Broadcast buffer full, dropping escalation event: session=%s", event.SessionID)
	}
}

// OnlineCount 统计当前在线的客服人数
func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
