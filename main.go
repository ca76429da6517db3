package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"enquetes-backend/cache"
	"enquetes-backend/config"
	"enquetes-backend/database"
	"enquetes-backend/migrations"
	"enquetes-backend/repository"
	"enquetes-backend/routes"
	"enquetes-backend/session"
	"enquetes-backend/websocket"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// newSessionStore 优先使用 Redis，不可用时退回进程内存储
func newSessionStore(ctx context.Context, cfg config.Config) (session.Store, *redis.Client) {
	client, err := cache.Connect(ctx, cfg)
	if err != nil {
		log.Printf("警告: 会话将保存在内存中: %v", err)
		return session.NewMemoryStore(10 * time.Minute), nil
	}
	return session.NewRedisStore(client), client
}

func main() {
	cfg := config.Load()
	if !cfg.AppDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化数据库连接，失败直接退出
	provider := database.NewProvider(cfg)
	db := provider.MustConnect()
	log.Println("数据库连接初始化成功")

	if err := migrations.Run(db); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, redisClient := newSessionStore(ctx, cfg)
	sessions := session.NewManager(store, cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure)
	log.Printf("会话存储: %s", store.Name())

	// 结果页实时推送
	hub := websocket.NewHub()
	go hub.Run(ctx)

	router := routes.SetupRouter(routes.Dependencies{
		Config:   cfg,
		DB:       provider,
		Polls:    repository.NewPollRepository(provider),
		Users:    repository.NewUserRepository(provider),
		Sessions: sessions,
		Hub:      hub,
	})
	log.Println("路由设置完成")

	srv := routes.StartServer(router, cfg.ServerPort)

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("关闭服务器...")

	// 先断开 WebSocket 客户端，否则 Shutdown 会等待这些连接
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("服务器强制关闭: %v", err)
	}

	provider.Close()
	cache.Close(redisClient)

	log.Println("服务器优雅关闭")
}
