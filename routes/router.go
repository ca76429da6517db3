package routes

import (
	"log"
	"net/http"
	"time"

	"enquetes-backend/config"
	"enquetes-backend/database"
	"enquetes-backend/handlers"
	"enquetes-backend/repository"
	"enquetes-backend/router"
	"enquetes-backend/session"
	"enquetes-backend/web"
	"enquetes-backend/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Server 是HTTP服务器的封装
type Server struct {
	*http.Server
}

// Dependencies 路由需要的服务，由 main 组装后注入
type Dependencies struct {
	Config   config.Config
	DB       *database.Provider
	Polls    repository.PollRepository
	Users    repository.UserRepository
	Sessions *session.Manager
	Hub      *websocket.Hub
}

// SetupRouter 设置和配置Gin路由。页面请求全部交给路由表分发，/api 下是 JSON 和 WebSocket 端点。
func SetupRouter(deps Dependencies) *gin.Engine {
	engine := gin.Default()

	if err := engine.SetTrustedProxies(deps.Config.TrustedProxies); err != nil {
		log.Printf("代理配置无效，忽略: %v", err)
		_ = engine.SetTrustedProxies(nil)
	}

	engine.SetHTMLTemplate(web.MustTemplates())
	engine.StaticFS("/css", http.FS(web.Static()))
	// 配置CORS中间件，预检请求不会匹配到分组路由，所以挂在全局
	engine.Use(cors.New(corsConfig(deps.Config.CORSOrigins)))
	engine.Use(deps.Sessions.Middleware())

	// 定义API路由
	api := engine.Group("/api")
	{
		// 健康检查端点
		health := handlers.NewHealthHandler(deps.DB, deps.Sessions.Store())
		api.GET("/health", health.HealthCheck)
		api.GET("/status", health.SystemStatus)

		// 结果页实时推送，仅管理员
		ws := websocket.NewHandler(deps.Hub, deps.Polls.TallyResults, deps.Config.CORSOrigins)
		api.GET("/resultados/:id/ws", requireAdmin, ws.Serve)
	}

	// 页面路由表
	table := router.NewTable(handlers.PollPrefix)
	handlers.NewPollController(deps.Polls, deps.Sessions, deps.Hub).Register(table)
	handlers.NewAdminController(deps.Polls, deps.Users, deps.Sessions).Register(table)

	dispatcher := router.NewDispatcher(table)
	dispatcher.Authenticated = handlers.Authenticated
	dispatcher.NotFound = handlers.RouteNotFound
	engine.NoRoute(dispatcher.Handle)

	return engine
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func requireAdmin(c *gin.Context) {
	if !handlers.Authenticated(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"erro": "Autenticação necessária"})
		return
	}
	c.Next()
}

// StartServer 启动HTTP服务器
func StartServer(router *gin.Engine, port string) *Server {
	if port == "" {
		port = "8090" // 默认端口
	}
	addr := ":" + port

	srv := &Server{
		&http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	// 在单独的goroutine中启动服务器
	go func() {
		log.Printf("服务器启动在 %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	return srv
}
