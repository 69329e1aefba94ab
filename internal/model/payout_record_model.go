package model

import (
	"time"
)

// PayoutRecordModel 活动结算的发放记录
type PayoutRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId int64  `json:"campaign_id" gorm:"not null;index"`
	ProjectId  int64  `json:"project_id" gorm:"not null"`
	Recipient  string `json:"recipient" gorm:"not null"`
	Token      string `json:"token" gorm:"not null"`
	Amount     string `json:"amount" gorm:"type:numeric(78,0);not null"`

	// kind 区分项目发放和手续费归集
	Kind   PayoutKind `json:"kind" gorm:"not null"`
	TxHash string     `json:"tx_hash"`
}

// PayoutKind 发放类型
type PayoutKind string

const (
	PayoutKindProject PayoutKind = "project" // 获胜项目发放
	PayoutKindFee     PayoutKind = "fee"     // 手续费及取整余数
)

// TableName 自定义表名
func (PayoutRecordModel) TableName() string {
	return "payout_record"
}
