package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"enquetes-backend/models"
	"enquetes-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时
	pongWait = 60 * time.Second

	// 发送ping间隔时间，必须小于pongWait
	pingPeriod = (pongWait * 9) / 10

	// 最大消息大小
	maxMessageSize = 512
)

// Snapshot 读取投票当前的计票结果
type Snapshot func(ctx context.Context, pollID uint) (*models.PollResults, error)

// Handler 结果页的 WebSocket 处理器
type Handler struct {
	hub      *Hub
	snapshot Snapshot
	upgrader websocket.Upgrader
}

// NewHandler 创建WebSocket处理器。allowedOrigins 为空或包含 "*" 时不校验 Origin。
func NewHandler(hub *Hub, snapshot Snapshot, allowedOrigins []string) *Handler {
	h := &Handler{hub: hub, snapshot: snapshot}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin(allowedOrigins),
	}
	return h
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(set) == 0 {
			return true
		}
		return set[origin] || origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}

// Serve 升级连接并订阅 :id 对应投票的计票推送，连接建立后先发送一次当前结果
func (h *Handler) Serve(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"erro": "ID de enquete inválido"})
		return
	}
	pollID := uint(id)

	initial, err := h.snapshot(c.Request.Context(), pollID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"erro": "Enquete não encontrada"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Falha ao carregar resultados"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket升级失败: %v", err)
		return
	}

	client := &Client{
		PollID: pollID,
		conn:   conn,
		send:   make(chan []byte, 16),
	}

	payload, err := json.Marshal(Message{Type: MessageResults, PollID: pollID, Results: initial})
	if err == nil {
		client.send <- payload
	}

	if !h.hub.RegisterClient(client) {
		conn.Close()
		return
	}

	go h.writePump(client)
	go h.readPump(client)
}

// readPump 只处理控制帧，客户端发来的消息被丢弃
func (h *Handler) readPump(client *Client) {
	defer func() {
		h.hub.UnregisterClient(client)
		client.conn.Close()
	}()

	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("读取WebSocket消息失败: %v", err)
			}
			return
		}
	}
}

// writePump 每条消息单独一帧发送，并定时 ping
func (h *Handler) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
