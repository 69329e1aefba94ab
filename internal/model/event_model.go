package model

import (
	"time"
)

// EventModel 引擎状态迁移事件，供链下索引和审计
type EventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Kind        string    `json:"kind" gorm:"not null;index"`
	CampaignId  int64     `json:"campaign_id" gorm:"index"`
	ProjectId   int64     `json:"project_id" gorm:"index"`
	MilestoneId int64     `json:"milestone_id" gorm:"index"`
	Actor       string    `json:"actor"`
	Token       string    `json:"token"`
	Amount      string    `json:"amount" gorm:"type:numeric(78,0);default:0"`
	OldState    string    `json:"old_state"`
	NewState    string    `json:"new_state"`
	EmittedAt   time.Time `json:"emitted_at"`
}

// TableName 自定义表名
func (EventModel) TableName() string {
	return "event"
}

// ChainEventModel 链上事件游标记录，投票监控按此断点续传
type ChainEventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ContractAddress string `json:"contract_address" gorm:"not null"`
	EventName       string `json:"event_name" gorm:"not null"`
	TxHash          string `json:"tx_hash" gorm:"not null;uniqueIndex:idx_chain_event_tx_log"`
	LogIndex        int64  `json:"log_index" gorm:"uniqueIndex:idx_chain_event_tx_log"`
	BlockNum        int64  `json:"block_num" gorm:"not null;index"`
	Data            string `json:"data" gorm:"type:text"`
	Processed       bool   `json:"processed" gorm:"default:false"`
}

// TableName 自定义表名
func (ChainEventModel) TableName() string {
	return "chain_event"
}
