package migrations

import (
	"fmt"
	"log"

	"enquetes-backend/models"

	"gorm.io/gorm"
)

// Run 执行全部迁移：先补齐旧表缺失的列，再自动迁移模型
func Run(db *gorm.DB) error {
	steps := []struct {
		name string
		fn   func(*gorm.DB) error
	}{
		{"opcoes.ordem", AddOptionOrder},
		{"votos.user_agent", AddVoteUserAgent},
	}
	for _, step := range steps {
		if err := step.fn(db); err != nil {
			return fmt.Errorf("迁移 %s 失败: %w", step.name, err)
		}
	}

	if err := db.AutoMigrate(&models.Poll{}, &models.Option{}, &models.Vote{}, &models.User{}); err != nil {
		return fmt.Errorf("迁移模型失败: %w", err)
	}

	log.Println("数据库迁移完成")
	return nil
}

// AddOptionOrder 为旧版 opcoes 表添加 ordem 字段
func AddOptionOrder(db *gorm.DB) error {
	return addColumn(db, &models.Option{}, "ordem", "ALTER TABLE opcoes ADD COLUMN ordem INT NOT NULL DEFAULT 0")
}

// AddVoteUserAgent 为旧版 votos 表添加 user_agent 字段
func AddVoteUserAgent(db *gorm.DB) error {
	return addColumn(db, &models.Vote{}, "user_agent", "ALTER TABLE votos ADD COLUMN user_agent VARCHAR(255)")
}

func addColumn(db *gorm.DB, model interface{}, column, ddl string) error {
	migrator := db.Migrator()

	// 新库由 AutoMigrate 建表
	if !migrator.HasTable(model) {
		return nil
	}

	// 检查字段是否已存在
	if migrator.HasColumn(model, column) {
		log.Printf("迁移跳过: %s 字段已存在", column)
		return nil
	}

	log.Printf("执行迁移: 添加 %s 字段", column)
	if err := db.Exec(ddl).Error; err != nil {
		log.Printf("迁移失败: %v", err)
		return err
	}
	log.Printf("迁移成功: 已添加 %s 字段", column)
	return nil
}
