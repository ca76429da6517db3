package models

import (
	"time"
)

// PollStatus 投票状态，数据库中存储葡萄牙语取值
type PollStatus string

const (
	PollStatusActive   PollStatus = "ativa"   // 公开可投票
	PollStatusInactive PollStatus = "inativa" // 仅管理后台可见
)

// Valid 判断状态取值是否合法
func (s PollStatus) Valid() bool {
	return s == PollStatusActive || s == PollStatusInactive
}

// MinOptions 一个完整的投票至少需要的选项数量
const MinOptions = 2

// Poll 投票（enquete）
type Poll struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"column:titulo;size:255;not null" json:"titulo"`
	Description string     `gorm:"column:descricao;type:text" json:"descricao"`
	Slug        string     `gorm:"column:slug;size:255;not null;uniqueIndex" json:"slug"`
	Status      PollStatus `gorm:"column:status;size:16;not null;default:inativa;index" json:"status"`
	CreatedAt   time.Time  `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
	UpdatedAt   time.Time  `gorm:"column:atualizado_em;autoUpdateTime" json:"atualizado_em"`
	Options     []Option   `gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE" json:"opcoes,omitempty"`
}

func (Poll) TableName() string { return "enquetes" }

// IsActive 是否对公众开放
func (p Poll) IsActive() bool {
	return p.Status == PollStatusActive
}

// Complete 至少有两个选项
func (p Poll) Complete() bool {
	return len(p.Options) >= MinOptions
}

// Option 投票选项（opcao）
type Option struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	PollID uint   `gorm:"column:enquete_id;not null;index" json:"enquete_id"`
	Text   string `gorm:"column:texto;size:255;not null" json:"texto"`
	Order  int    `gorm:"column:ordem;not null;default:0" json:"ordem"`
	Votes  []Vote `gorm:"foreignKey:OptionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Option) TableName() string { return "opcoes" }

// Vote 投票记录（voto），写入后不可修改
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OptionID  uint      `gorm:"column:opcao_id;not null;index" json:"opcao_id"`
	VoterID   string    `gorm:"column:endereco_ip;size:64;not null" json:"endereco_ip"` // IP或会话标识
	UserAgent string    `gorm:"column:user_agent;size:255" json:"user_agent,omitempty"`
	VotedAt   time.Time `gorm:"column:votado_em;autoCreateTime" json:"votado_em"`
}

func (Vote) TableName() string { return "votos" }

// OptionResult 选项统计结果，仅在查询时计算，不落库
type OptionResult struct {
	ID         uint    `gorm:"column:id" json:"id"`
	Text       string  `gorm:"column:texto" json:"texto"`
	Order      int     `gorm:"column:ordem" json:"ordem"`
	VoteCount  int64   `gorm:"column:total_votos" json:"total_votos"`
	Percentage float64 `gorm:"-" json:"percentual"`
}

// PollResults 投票统计
type PollResults struct {
	Poll       Poll           `json:"enquete"`
	TotalVotes int64          `json:"total_geral_votos"`
	Options    []OptionResult `json:"resultados"`
}

// PollInput 创建或更新投票时提交的数据
type PollInput struct {
	Title       string
	Description string
	Slug        string
	Status      PollStatus
	Options     []string
}
