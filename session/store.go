// Package session 管理访客和管理员的服务端会话。
// 会话数据保存在 Store 中，浏览器只持有签名后的会话ID。
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNoSession 会话不存在或已过期
var ErrNoSession = errors.New("sessão inexistente ou expirada")

// Data 一个会话中保存的数据
type Data struct {
	ID       string `json:"id"`
	UserID   uint   `json:"usuario_id,omitempty"`
	Username string `json:"usuario_nome,omitempty"`
}

// Authenticated 是否已登录管理后台
func (d *Data) Authenticated() bool {
	return d != nil && d.UserID != 0
}

// Login 记录登录的管理员
func (d *Data) Login(userID uint, username string) {
	d.UserID = userID
	d.Username = username
}

// Store 会话存储。
// 已投票集合与会话数据分开保存，MarkVoted 必须是原子的“检查并加入”。
type Store interface {
	Load(ctx context.Context, id string) (*Data, error)
	Save(ctx context.Context, data *Data, ttl time.Duration) error
	Destroy(ctx context.Context, id string) error

	// MarkVoted 把投票加入已投集合，返回本次是否新加入
	MarkVoted(ctx context.Context, id string, pollID uint, ttl time.Duration) (bool, error)
	UnmarkVoted(ctx context.Context, id string, pollID uint) error
	HasVoted(ctx context.Context, id string, pollID uint) (bool, error)

	Ping(ctx context.Context) error
	Name() string
}
