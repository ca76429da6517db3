package session

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// CookieName 会话 cookie 名
	CookieName = "enquetes_sessao"

	contextKey = "sessao"
)

// claims cookie 中只保存会话ID
type claims struct {
	jwt.RegisteredClaims
}

// Manager 负责会话 cookie 的签发、校验和会话的读写
type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	secure bool
}

// NewManager 创建会话管理器
func NewManager(store Store, secret string, ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{store: store, secret: []byte(secret), ttl: ttl, secure: secure}
}

// Store 返回底层存储
func (m *Manager) Store() Store { return m.store }

// Middleware 为每个请求加载会话，cookie 无效时新建会话ID并下发 cookie
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := m.cookieID(c)
		if !ok {
			id = uuid.NewString()
			if err := m.setCookie(c, id); err != nil {
				log.Printf("签发会话cookie失败: %v", err)
			}
		}

		data, err := m.store.Load(c.Request.Context(), id)
		if err != nil {
			if !errors.Is(err, ErrNoSession) {
				log.Printf("读取会话失败: %v", err)
			}
			data = &Data{ID: id}
		}
		c.Set(contextKey, data)
		c.Next()
	}
}

func (m *Manager) cookieID(c *gin.Context) (string, bool) {
	raw, err := c.Cookie(CookieName)
	if err != nil || raw == "" {
		return "", false
	}
	id, err := m.parse(raw)
	if err != nil {
		return "", false
	}
	return id, true
}

// FromContext 取出中间件放入的会话
func FromContext(c *gin.Context) *Data {
	if v, ok := c.Get(contextKey); ok {
		if data, ok := v.(*Data); ok {
			return data
		}
	}
	return &Data{}
}

// Save 持久化当前会话
func (m *Manager) Save(c *gin.Context, data *Data) error {
	if data.ID == "" {
		return ErrNoSession
	}
	return m.store.Save(c.Request.Context(), data, m.ttl)
}

// Destroy 删除会话并清除 cookie
func (m *Manager) Destroy(c *gin.Context) error {
	data := FromContext(c)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", m.secure, true)
	c.Set(contextKey, &Data{})
	if data.ID == "" {
		return nil
	}
	return m.store.Destroy(c.Request.Context(), data.ID)
}

// MarkVoted 原子地检查并记录本会话对该投票已投票
func (m *Manager) MarkVoted(c *gin.Context, pollID uint) (bool, error) {
	data := FromContext(c)
	if data.ID == "" {
		return false, ErrNoSession
	}
	added, err := m.store.MarkVoted(c.Request.Context(), data.ID, pollID, m.ttl)
	if err != nil {
		return false, err
	}
	if added {
		// 确保会话本身也落库，否则下次请求读不到会话
		if err := m.store.Save(c.Request.Context(), data, m.ttl); err != nil {
			log.Printf("保存会话失败: %v", err)
		}
	}
	return added, nil
}

// HasVoted 本会话是否已对该投票投过票，没有会话时视为未投
func (m *Manager) HasVoted(c *gin.Context, pollID uint) (bool, error) {
	data := FromContext(c)
	if data.ID == "" {
		return false, nil
	}
	return m.store.HasVoted(c.Request.Context(), data.ID, pollID)
}

// UnmarkVoted 撤销已投票标记
func (m *Manager) UnmarkVoted(c *gin.Context, pollID uint) error {
	data := FromContext(c)
	if data.ID == "" {
		return nil
	}
	return m.store.UnmarkVoted(c.Request.Context(), data.ID, pollID)
}

func (m *Manager) setCookie(c *gin.Context, id string) error {
	token, err := m.sign(id)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, int(m.ttl.Seconds()), "/", "", m.secure, true)
	return nil
}

func (m *Manager) sign(id string) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	return tok.SignedString(m.secret)
}

func (m *Manager) parse(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.ID == "" {
		return "", fmt.Errorf("cookie de sessão inválido")
	}
	return c.ID, nil
}
