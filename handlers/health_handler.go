package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"enquetes-backend/session"

	"github.com/gin-gonic/gin"
)

// SystemInfo contains basic system metrics and information
type SystemInfo struct {
	Status       string    `json:"status"`
	Version      string    `json:"version"`
	Uptime       string    `json:"uptime"`
	StartTime    time.Time `json:"start_time"`
	CurrentTime  time.Time `json:"current_time"`
	GoVersion    string    `json:"go_version"`
	NumGoroutine int       `json:"num_goroutine"`
	DBStatus     string    `json:"db_status"`
	SessionStore string    `json:"session_store"`
	StoreStatus  string    `json:"session_store_status"`
}

// Pinger 可以探活的依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	startTime = time.Now()
	version   = "1.0.0" // 应用版本，可通过构建参数注入
)

// HealthHandler 健康检查
type HealthHandler struct {
	db    Pinger
	store session.Store
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(db Pinger, store session.Store) *HealthHandler {
	return &HealthHandler{db: db, store: store}
}

// HealthCheck 提供基本健康检查端点
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// SystemStatus 数据库或会话存储不可用时返回 503
func (h *HealthHandler) SystemStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	info := SystemInfo{
		Status:       "ok",
		Version:      version,
		Uptime:       time.Since(startTime).String(),
		StartTime:    startTime,
		CurrentTime:  time.Now(),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		DBStatus:     "ok",
		SessionStore: h.store.Name(),
		StoreStatus:  "ok",
	}

	if err := h.db.Ping(ctx); err != nil {
		info.DBStatus = "error"
		info.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	if err := h.store.Ping(ctx); err != nil {
		info.StoreStatus = "error"
		info.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, info)
}
