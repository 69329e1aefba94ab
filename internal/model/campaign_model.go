package model

import (
	"time"
)

// CampaignModel 众筹活动模型
type CampaignModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
	Admin       string `json:"admin" gorm:"not null;index"`

	// 时间窗口
	StartTime time.Time `json:"start_time" gorm:"not null"`
	EndTime   time.Time `json:"end_time" gorm:"not null"`

	// 分配配置
	AdminFeeBps  int64  `json:"admin_fee_bps" gorm:"default:0"` // 手续费基点 0-10000
	MaxWinners   int    `json:"max_winners" gorm:"default:0"`   // 0 表示不限制
	Policy       string `json:"policy" gorm:"not null"`         // linear, quadratic, custom
	PayoutToken  string `json:"payout_token" gorm:"not null"`
	AutoFinalize bool   `json:"auto_finalize" gorm:"default:false"`

	// 状态
	Status     CampaignStatus `json:"status" gorm:"default:'pending'"`
	TotalFunds string         `json:"total_funds" gorm:"type:numeric(78,0);default:0"` // 标准单位资金池
}

// CampaignStatus 活动状态
type CampaignStatus string

const (
	CampaignStatusPending   CampaignStatus = "pending"   // 未到开始时间
	CampaignStatusActive    CampaignStatus = "active"    // 投票窗口内
	CampaignStatusEnded     CampaignStatus = "ended"     // 已结束待结算
	CampaignStatusFinalized CampaignStatus = "finalized" // 已结算
)

// TableName 自定义表名
func (CampaignModel) TableName() string {
	return "campaign"
}
