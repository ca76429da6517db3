package repository

import (
	"context"
	"log"
	"strings"

	"enquetes-backend/database"
	"enquetes-backend/models"
)

// UserRepository 管理员账号数据访问接口
type UserRepository interface {
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// GormUserRepository 基于 gorm 的实现
type GormUserRepository struct {
	db *database.Provider
}

// NewUserRepository 创建管理员数据仓库
func NewUserRepository(db *database.Provider) *GormUserRepository {
	return &GormUserRepository{db: db}
}

var _ UserRepository = (*GormUserRepository)(nil)

// FindByUsernameOrEmail 登录时用户名和邮箱都可以作为标识
func (r *GormUserRepository) FindByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, invalid("identificador vazio")
	}

	db, err := r.db.Conn(ctx)
	if err != nil {
		return nil, wrapError("查询管理员", err)
	}

	var user models.User
	err = db.Where("nome_usuario = ? OR email = ?", identifier, identifier).First(&user).Error
	if err != nil {
		return nil, wrapError("查询管理员", err)
	}
	return &user, nil
}

// Create 写入管理员账号，仅供命令行工具使用
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	user.Username = strings.TrimSpace(user.Username)
	user.Email = strings.TrimSpace(user.Email)
	if err := user.Validate(); err != nil {
		return invalid("%v", err)
	}

	db, err := r.db.Conn(ctx)
	if err != nil {
		return wrapError("创建管理员", err)
	}
	if err := db.Create(user).Error; err != nil {
		return wrapError("创建管理员", err)
	}

	log.Printf("管理员创建成功: ID=%d, 用户名=%s", user.ID, user.Username)
	return nil
}
