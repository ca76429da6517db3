package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"enquetes-backend/models"

	"github.com/gorilla/websocket"
)

// MessageResults 推送给客户端的计票消息类型
const MessageResults = "resultados"

// Message 推送给管理后台的消息
type Message struct {
	Type    string              `json:"tipo"`
	PollID  uint                `json:"enquete_id"`
	Results *models.PollResults `json:"dados"`
}

// Client 代表一个WebSocket连接客户端
type Client struct {
	// 订阅的投票ID
	PollID uint

	// WebSocket连接
	conn *websocket.Conn

	// 消息发送通道
	send chan []byte
}

// Hub 维护按投票分组的客户端，投票写入后向订阅者广播最新计票
type Hub struct {
	clients map[uint]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex
}

// NewHub 创建一个新的Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run 处理注册和注销，ctx 取消时关闭所有客户端
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.clients[client.PollID]; !ok {
				h.clients[client.PollID] = make(map[*Client]bool)
			}
			h.clients[client.PollID][client] = true
			total := len(h.clients[client.PollID])
			h.mu.Unlock()
			log.Printf("结果订阅者加入: 投票ID=%d, 当前订阅数=%d", client.PollID, total)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for _, clients := range h.clients {
				for client := range clients {
					h.remove(client)
				}
			}
			h.mu.Unlock()
			close(h.done)
			return
		}
	}
}

// remove 调用方必须持有写锁
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.PollID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.PollID)
	}
}

// Publish 向订阅该投票的客户端广播计票结果
func (h *Hub) Publish(pollID uint, results *models.PollResults) {
	payload, err := json.Marshal(Message{Type: MessageResults, PollID: pollID, Results: results})
	if err != nil {
		log.Printf("序列化计票消息失败: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[pollID]
	for client := range clients {
		select {
		case client.send <- payload:
		default:
			// 发送缓冲区已满，断开慢客户端
			h.remove(client)
		}
	}
}

// Subscribers 当前订阅某个投票的客户端数量
func (h *Hub) Subscribers(pollID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[pollID])
}

// RegisterClient 注册客户端到Hub，Hub 已停止时返回 false
func (h *Hub) RegisterClient(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// UnregisterClient 从Hub中注销客户端
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
