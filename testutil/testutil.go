// Package testutil 提供测试用的内存数据库和数据构造工具
package testutil

import (
	"context"
	"testing"

	"enquetes-backend/config"
	"enquetes-backend/database"
	"enquetes-backend/migrations"
	"enquetes-backend/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// NewProvider 创建一个独立的内存 sqlite 数据库并完成迁移
func NewProvider(t *testing.T) *database.Provider {
	t.Helper()

	cfg := config.Config{
		DBDriver: "sqlite",
		// 每个测试一个命名内存库，互不干扰
		DBName: uuid.NewString() + "?mode=memory&cache=shared",
	}
	provider := database.NewProvider(cfg)

	db, err := provider.Conn(context.Background())
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	if err := migrations.Run(db); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	t.Cleanup(provider.Close)
	return provider
}

// SeedPoll 直接写入一个投票及其选项
func SeedPoll(t *testing.T, provider *database.Provider, title, slug string, status models.PollStatus, options ...string) models.Poll {
	t.Helper()

	db, err := provider.Conn(context.Background())
	if err != nil {
		t.Fatalf("Failed to get connection: %v", err)
	}

	poll := models.Poll{Title: title, Slug: slug, Status: status}
	for i, text := range options {
		poll.Options = append(poll.Options, models.Option{Text: text, Order: i})
	}
	if err := db.Create(&poll).Error; err != nil {
		t.Fatalf("Failed to seed poll: %v", err)
	}
	return poll
}

// SeedVotes 为选项写入 n 张票
func SeedVotes(t *testing.T, provider *database.Provider, optionID uint, n int) {
	t.Helper()

	db, err := provider.Conn(context.Background())
	if err != nil {
		t.Fatalf("Failed to get connection: %v", err)
	}
	for i := 0; i < n; i++ {
		vote := models.Vote{OptionID: optionID, VoterID: "127.0.0.1"}
		if err := db.Create(&vote).Error; err != nil {
			t.Fatalf("Failed to seed vote: %v", err)
		}
	}
}

// SeedUser 写入一个管理员，密码以 bcrypt 保存
func SeedUser(t *testing.T, provider *database.Provider, username, email, password string) models.User {
	t.Helper()

	db, err := provider.Conn(context.Background())
	if err != nil {
		t.Fatalf("Failed to get connection: %v", err)
	}
	// 测试中使用最低成本加快速度
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := models.User{Username: username, Email: email, PasswordHash: string(hash)}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return user
}

// CountRows 统计表中满足条件的行数
func CountRows(t *testing.T, provider *database.Provider, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	db, err := provider.Conn(context.Background())
	if err != nil {
		t.Fatalf("Failed to get connection: %v", err)
	}
	var count int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&count).Error; err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return count
}
