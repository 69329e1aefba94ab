package model

import (
	"time"
)

// ParticipationModel 项目在活动中的参与记录
type ParticipationModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId int64 `json:"campaign_id" gorm:"not null;uniqueIndex:idx_participation_campaign_project"`
	ProjectId  int64 `json:"project_id" gorm:"not null;uniqueIndex:idx_participation_campaign_project"`

	Approved      bool   `json:"approved" gorm:"default:false"`
	VoteCount     string `json:"vote_count" gorm:"type:numeric(78,0);default:0"`     // 标准单位累计票数
	FundsReceived string `json:"funds_received" gorm:"type:numeric(78,0);default:0"` // 结算后获得的资金
}

// TableName 自定义表名
func (ParticipationModel) TableName() string {
	return "participation"
}
