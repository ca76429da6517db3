package repository

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("registro não encontrado")

	// ErrInvalidInput 输入数据不满足约束
	ErrInvalidInput = errors.New("dados inválidos")

	// ErrDuplicate 违反唯一约束
	ErrDuplicate = errors.New("registro duplicado")

	// ErrStorage 数据访问失败，细节只写日志
	ErrStorage = errors.New("falha de acesso a dados")
)

// wrapError 记录数据访问错误并转换为仓库层的错误类型
func wrapError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrDuplicate), errors.Is(err, ErrStorage):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		log.Printf("%s失败: 唯一约束冲突: %v", op, err)
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	default:
		log.Printf("%s失败: %v", op, err)
		return fmt.Errorf("%s: %w", op, ErrStorage)
	}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
