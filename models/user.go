package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// User 管理员用户（usuario），由命令行工具预先创建
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"column:nome_usuario;size:100;not null;uniqueIndex" json:"nome_usuario" validate:"required,min=3,max=100"`
	Email        string    `gorm:"column:email;size:255;not null;uniqueIndex" json:"email" validate:"required,email,max=255"`
	PasswordHash string    `gorm:"column:senha;size:255;not null" json:"-" validate:"required"`
	CreatedAt    time.Time `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
	UpdatedAt    time.Time `gorm:"column:atualizado_em;autoUpdateTime" json:"atualizado_em"`
}

func (User) TableName() string { return "usuarios" }

var validate = validator.New()

// Validate 校验用户名长度、邮箱格式和密码哈希
func (u User) Validate() error {
	return validate.Struct(u)
}
