package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"enquetes-backend/database"
	"enquetes-backend/models"
	"enquetes-backend/repository"
	"enquetes-backend/router"
	"enquetes-backend/session"
	"enquetes-backend/testutil"
	"enquetes-backend/web"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// testEnv 测试用的完整应用
type testEnv struct {
	router   *gin.Engine
	provider *database.Provider
	polls    *repository.GormPollRepository
	sessions *session.Manager
	pub      *recordingPublisher
}

// recordingPublisher 记录推送的计票结果
type recordingPublisher struct {
	subscribers int
	published   []*models.PollResults
}

func (p *recordingPublisher) Subscribers(uint) int { return p.subscribers }

func (p *recordingPublisher) Publish(_ uint, results *models.PollResults) {
	p.published = append(p.published, results)
}

// SetupTestEnvironment sets up the Gin router and in-memory SQLite database for testing.
func SetupTestEnvironment(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider := testutil.NewProvider(t)
	polls := repository.NewPollRepository(provider)
	users := repository.NewUserRepository(provider)
	sessions := session.NewManager(session.NewMemoryStore(time.Minute), "segredo-de-teste", time.Hour, false)
	pub := &recordingPublisher{}

	table := router.NewTable(PollPrefix)
	NewPollController(polls, sessions, pub).Register(table)
	NewAdminController(polls, users, sessions).Register(table)
	dispatcher := router.NewDispatcher(table)
	dispatcher.Authenticated = Authenticated
	dispatcher.NotFound = RouteNotFound

	r := gin.New()
	r.Use(gin.Recovery())
	r.SetHTMLTemplate(web.MustTemplates())
	r.Use(sessions.Middleware())

	health := NewHealthHandler(provider, sessions.Store())
	api := r.Group("/api")
	{
		api.GET("/health", health.HealthCheck)
		api.GET("/status", health.SystemStatus)
	}
	r.NoRoute(dispatcher.Handle)

	return &testEnv{router: r, provider: provider, polls: polls, sessions: sessions, pub: pub}
}

// client 保存 cookie 的测试客户端，模拟同一个浏览器
type client struct {
	env     *testEnv
	cookies map[string]*http.Cookie
}

func (e *testEnv) newClient() *client {
	return &client{env: e, cookies: make(map[string]*http.Cookie)}
}

func (cl *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range cl.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	cl.env.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(cl.cookies, c.Name)
			continue
		}
		cl.cookies[c.Name] = c
	}
	return w
}

func (cl *client) get(path string) *httptest.ResponseRecorder {
	return cl.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (cl *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return cl.do(req)
}

// login 以管理员身份登录
func (cl *client) login(t *testing.T) {
	t.Helper()
	testutil.SeedUser(t, cl.env.provider, "admin", "admin@example.com", "segredo123")
	w := cl.post("/admin/autenticar", url.Values{"nome_usuario": {"admin"}, "senha": {"segredo123"}})
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/admin/dashboard", w.Header().Get("Location"))
}
