package model

import (
	"time"
)

// RefundRecordModel 里程碑取消时的退款记录
type RefundRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	MilestoneId int64  `json:"milestone_id" gorm:"not null;index"`
	ProjectId   int64  `json:"project_id" gorm:"not null"`
	Funder      string `json:"funder" gorm:"not null"`
	Token       string `json:"token" gorm:"not null"`
	Amount      string `json:"amount" gorm:"type:numeric(78,0);not null"`

	RefundReason string `json:"refund_reason" gorm:"type:text"`
}

// TableName 自定义表名
func (RefundRecordModel) TableName() string {
	return "refund_record"
}
