package model

import (
	"time"
)

// MilestoneModel 项目里程碑模型
type MilestoneModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId   int64  `json:"project_id" gorm:"not null;index"`
	Title       string `json:"title"`
	Description string `json:"description" gorm:"type:text"`

	Type   string `json:"type" gorm:"not null"`           // fixed, open
	Status string `json:"status" gorm:"default:'active'"` // active, claimed, submitted, approved, rejected, paid, cancelled

	AssignedTo string `json:"assigned_to"` // Fixed 类型的负责人
	ClaimedBy  string `json:"claimed_by"`  // Open 类型的认领人

	FundingToken  string `json:"funding_token" gorm:"not null"`
	FundingAmount string `json:"funding_amount" gorm:"type:numeric(78,0);default:0"` // 累计注资
	RewardAmount  string `json:"reward_amount" gorm:"type:numeric(78,0);default:0"`  // 固定奖励，0表示发放累计注资

	EvidenceRef string `json:"evidence_ref"` // 完成证明指针（内容哈希）
}

// TableName 自定义表名
func (MilestoneModel) TableName() string {
	return "milestone"
}

// MilestoneFundingModel 里程碑单笔注资记录
type MilestoneFundingModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	MilestoneId int64  `json:"milestone_id" gorm:"not null;index"`
	Funder      string `json:"funder" gorm:"not null"`
	Token       string `json:"token" gorm:"not null"`
	Amount      string `json:"amount" gorm:"type:numeric(78,0);not null"`
}

// TableName 自定义表名
func (MilestoneFundingModel) TableName() string {
	return "milestone_funding"
}
