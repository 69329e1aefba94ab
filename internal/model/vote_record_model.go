package model

import (
	"time"
)

// VoteRecordModel 投票记录，只增不减
type VoteRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId int64  `json:"campaign_id" gorm:"not null;index"`
	ProjectId  int64  `json:"project_id" gorm:"not null;index"`
	Voter      string `json:"voter" gorm:"not null;index"`
	Token      string `json:"token" gorm:"not null"`

	RawAmount       string `json:"raw_amount" gorm:"type:numeric(78,0);not null"`       // 代币原生单位
	CanonicalAmount string `json:"canonical_amount" gorm:"type:numeric(78,0);not null"` // 投票时刻换算，不再重算

	// 链上来源的投票带交易信息，接口来源的为空
	TxHash   string `json:"tx_hash"`
	BlockNum int64  `json:"block_num"`
}

// TableName 自定义表名
func (VoteRecordModel) TableName() string {
	return "vote_record"
}
