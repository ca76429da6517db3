package repository

import (
	"context"
	"log"
	"math"
	"strings"

	"enquetes-backend/database"
	"enquetes-backend/models"
	"enquetes-backend/slug"

	"gorm.io/gorm"
)

// PollRepository 定义投票数据访问接口
type PollRepository interface {
	// 投票相关方法
	ListActive(ctx context.Context) ([]models.Poll, error)
	ListAll(ctx context.Context) ([]models.Poll, error)
	FindBySlugWithOptions(ctx context.Context, slug string) (*models.Poll, error)
	FindByIDWithOptions(ctx context.Context, id uint) (*models.Poll, error)
	CreatePoll(ctx context.Context, input models.PollInput) (*models.Poll, error)
	UpdatePoll(ctx context.Context, id uint, input models.PollInput) (*models.Poll, error)
	DeletePoll(ctx context.Context, id uint) error

	// 投票记录相关方法
	OptionInActivePoll(ctx context.Context, pollID, optionID uint) (bool, error)
	RecordVote(ctx context.Context, vote *models.Vote) error

	// 统计相关方法
	TallyResults(ctx context.Context, pollID uint) (*models.PollResults, error)
}

// GormPollRepository 基于 gorm 的实现
type GormPollRepository struct {
	db *database.Provider
}

// NewPollRepository 创建投票数据仓库
func NewPollRepository(db *database.Provider) *GormPollRepository {
	return &GormPollRepository{db: db}
}

var _ PollRepository = (*GormPollRepository)(nil)

// 选项按录入顺序返回
func orderedOptions(db *gorm.DB) *gorm.DB {
	return db.Order("ordem ASC").Order("id ASC")
}

// ListActive 公开列表，只返回进行中的投票，最新的在前
func (r *GormPollRepository) ListActive(ctx context.Context) ([]models.Poll, error) {
	db, err := r.db.Conn(ctx)
	if err != nil {
		return nil, wrapError("查询进行中的投票", err)
	}

	var polls []models.Poll
	err = db.Where("status = ?", models.PollStatusActive).
		Order("criado_em DESC").Order("id DESC").
		Find(&polls).Error
	if err != nil {
		return nil, wrapError("查询进行中的投票", err)
	}
	return polls, nil
}

// ListAll 管理后台列表，包含所有状态
func (r *GormPollRepository) ListAll(ctx context.Context) ([]models.Poll, error) {
	db, err := r.db.Conn(ctx)
	if err != nil {
		return nil, wrapError("查询全部投票", err)
	}

	var polls []models.Poll
	if err := db.Order("criado_em DESC").Order("id DESC").Find(&polls).Error; err != nil {
		return nil, wrapError("查询全部投票", err)
	}
	return polls, nil
}

// FindBySlugWithOptions 按 slug 查找进行中的投票及其选项
func (r *GormPollRepository) FindBySlugWithOptions(ctx context.Context, slug string) (*models.Poll, error) {
	db, err := r.db.Conn(ctx)
	if err != nil {
		return nil, wrapError("按slug查询投票", err)
	}

	var poll models.Poll
	err = db.Preload("Options", orderedOptions).
		Where("slug = ? AND status = ?", slug, models.PollStatusActive).
		First(&poll).Error
	if err != nil {
		return nil, wrapError("按slug查询投票", err)
	}
	return &poll, nil
}

// FindByIDWithOptions 按ID查找投票及其选项，不限状态
func (r *GormPollRepository) FindByIDWithOptions(ctx context.Context, id uint) (*models.Poll, error) {
	db, err := r.db.Conn(ctx)
	if err != nil {
		return nil, wrapError("按ID查询投票", err)
	}

	var poll models.Poll
	if err := db.Preload("Options", orderedOptions).First(&poll, id).Error; err != nil {
		return nil, wrapError("按ID查询投票", err)
	}
	return &poll, nil
}

// CreatePoll 在一个事务中创建投票和全部选项，任何一步失败都整体回滚
func (r *GormPollRepository) CreatePoll(ctx context.Context, input models.PollInput) (*models.Poll, error) {
	input, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}

	base := input.Slug
	if base == "" {
		base = slug.Make(input.Title)
	}

	poll := models.Poll{
		Title:       input.Title,
		Description: input.Description,
		Slug:        slug.Unique(base),
		Status:      input.Status,
	}

	err = r.db.Transaction(ctx, func(tx *gorm.DB) error {
		// 1. 写入投票
		if err := tx.Create(&poll).Error; err != nil {
			return err
		}

		// 2. 写入选项
		options := buildOptions(poll.ID, input.Options)
		if err := tx.Create(&options).Error; err != nil {
			return err
		}
		poll.Options = options
		return nil
	})
	if err != nil {
		return nil, wrapError("创建投票", err)
	}

	log.Printf("投票创建成功: ID=%d, Slug=%s, 选项数量=%d", poll.ID, poll.Slug, len(poll.Options))
	return &poll, nil
}

// UpdatePoll 在一个事务中更新投票字段，并用提交的选项整体替换旧选项
func (r *GormPollRepository) UpdatePoll(ctx context.Context, id uint, input models.PollInput) (*models.Poll, error) {
	input, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}

	base := input.Slug
	if base == "" {
		base = slug.Make(input.Title)
	}

	var poll models.Poll
	err = r.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&poll, id).Error; err != nil {
			return err
		}

		// 标题未变时保留原 slug，已分享的链接继续有效
		newSlug := poll.Slug
		if !slug.HasBase(poll.Slug, base) {
			newSlug = slug.Unique(base)
		}

		// 1. 更新投票
		err := tx.Model(&poll).Updates(map[string]interface{}{
			"titulo":    input.Title,
			"descricao": input.Description,
			"slug":      newSlug,
			"status":    input.Status,
		}).Error
		if err != nil {
			return err
		}

		// 2. 删除旧选项，不做差异比较
		if err := tx.Where("enquete_id = ?", poll.ID).Delete(&models.Option{}).Error; err != nil {
			return err
		}

		// 3. 写入新选项
		options := buildOptions(poll.ID, input.Options)
		if err := tx.Create(&options).Error; err != nil {
			return err
		}
		poll.Options = options
		return nil
	})
	if err != nil {
		return nil, wrapError("更新投票", err)
	}

	log.Printf("投票更新成功: ID=%d, 选项数量=%d", poll.ID, len(poll.Options))
	return &poll, nil
}

// DeletePoll 删除投票，选项和票由外键级联删除
func (r *GormPollRepository) DeletePoll(ctx context.Context, id uint) error {
	affected, err := r.db.Exec(ctx, "DELETE FROM enquetes WHERE id = ?", id)
	if err != nil {
		return wrapError("删除投票", err)
	}
	if affected == 0 {
		return wrapError("删除投票", gorm.ErrRecordNotFound)
	}

	log.Printf("投票已删除: ID=%d", id)
	return nil
}

// OptionInActivePoll 检查选项属于该投票且投票进行中
func (r *GormPollRepository) OptionInActivePoll(ctx context.Context, pollID, optionID uint) (bool, error) {
	db, err := r.db.Conn(ctx)
	if err != nil {
		return false, wrapError("校验投票选项", err)
	}

	var count int64
	err = db.Model(&models.Option{}).
		Joins("JOIN enquetes ON enquetes.id = opcoes.enquete_id").
		Where("opcoes.id = ? AND opcoes.enquete_id = ? AND enquetes.status = ?", optionID, pollID, models.PollStatusActive).
		Count(&count).Error
	if err != nil {
		return false, wrapError("校验投票选项", err)
	}
	return count > 0, nil
}

// RecordVote 写入一条投票记录，这一层不检查重复投票
func (r *GormPollRepository) RecordVote(ctx context.Context, vote *models.Vote) error {
	if vote.OptionID == 0 || strings.TrimSpace(vote.VoterID) == "" {
		return invalid("voto sem opção ou identificador")
	}

	db, err := r.db.Conn(ctx)
	if err != nil {
		return wrapError("保存投票", err)
	}
	if err := db.Create(vote).Error; err != nil {
		return wrapError("保存投票", err)
	}
	return nil
}

const tallyQuery = `
SELECT o.id AS id, o.texto AS texto, o.ordem AS ordem, COUNT(v.id) AS total_votos
FROM opcoes o
LEFT JOIN votos v ON v.opcao_id = o.id
WHERE o.enquete_id = ?
GROUP BY o.id, o.texto, o.ordem
ORDER BY total_votos DESC, o.ordem ASC, o.id ASC`

// TallyResults 统计每个选项的票数和百分比，没有票的选项也会返回
func (r *GormPollRepository) TallyResults(ctx context.Context, pollID uint) (*models.PollResults, error) {
	db, err := r.db.Conn(ctx)
	if err != nil {
		return nil, wrapError("统计投票结果", err)
	}

	var poll models.Poll
	if err := db.First(&poll, pollID).Error; err != nil {
		return nil, wrapError("统计投票结果", err)
	}

	var options []models.OptionResult
	if err := r.db.Raw(ctx, &options, tallyQuery, pollID); err != nil {
		return nil, wrapError("统计投票结果", err)
	}

	results := &models.PollResults{Poll: poll, Options: options}
	for _, opt := range options {
		results.TotalVotes += opt.VoteCount
	}
	applyPercentages(results)
	return results, nil
}

// applyPercentages 百分比保留两位小数，总票数为0时全部为0
func applyPercentages(results *models.PollResults) {
	for i := range results.Options {
		if results.TotalVotes == 0 {
			results.Options[i].Percentage = 0
			continue
		}
		pct := float64(results.Options[i].VoteCount) / float64(results.TotalVotes) * 100
		results.Options[i].Percentage = math.Round(pct*100) / 100
	}
}

func buildOptions(pollID uint, texts []string) []models.Option {
	options := make([]models.Option, len(texts))
	for i, text := range texts {
		options[i] = models.Option{PollID: pollID, Text: text, Order: i}
	}
	return options
}

// normalizeInput 去除首尾空白，过滤空选项并校验
func normalizeInput(input models.PollInput) (models.PollInput, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Slug = strings.TrimSpace(input.Slug)
	if input.Status == "" {
		input.Status = models.PollStatusInactive
	}

	options := make([]string, 0, len(input.Options))
	for _, text := range input.Options {
		if text = strings.TrimSpace(text); text != "" {
			options = append(options, text)
		}
	}
	input.Options = options

	if input.Title == "" {
		return input, invalid("título obrigatório")
	}
	if len(input.Options) < models.MinOptions {
		return input, invalid("são necessárias pelo menos %d opções", models.MinOptions)
	}
	if !input.Status.Valid() {
		return input, invalid("status desconhecido: %s", input.Status)
	}
	return input, nil
}
