package logic

import (
	"errors"
	"fmt"

	"github.com/sovseas/sse/internal/model"
	"gorm.io/gorm"
)

// ParticipationLogic 参与记录业务逻辑
type ParticipationLogic struct {
	db *gorm.DB
}

// NewParticipationLogic 创建参与记录业务逻辑
func NewParticipationLogic(db *gorm.DB) *ParticipationLogic {
	return &ParticipationLogic{db: db}
}

// CreateParticipation 创建参与记录
func (p *ParticipationLogic) CreateParticipation(participation *model.ParticipationModel) error {
	if err := p.db.Create(participation).Error; err != nil {
		return fmt.Errorf("创建参与记录失败: %w", err)
	}
	return nil
}

// GetParticipation 获取单个参与记录
func (p *ParticipationLogic) GetParticipation(campaignId, projectId int64) (*model.ParticipationModel, error) {
	var participation model.ParticipationModel
	if err := p.db.Where("campaign_id = ? AND project_id = ?", campaignId, projectId).
		First(&participation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("参与记录不存在")
		}
		return nil, fmt.Errorf("获取参与记录失败: %w", err)
	}
	return &participation, nil
}

// GetParticipations 获取活动的全部参与记录
func (p *ParticipationLogic) GetParticipations(campaignId int64) ([]model.ParticipationModel, error) {
	var participations []model.ParticipationModel
	if err := p.db.Where("campaign_id = ?", campaignId).
		Order("project_id asc").
		Find(&participations).Error; err != nil {
		return nil, fmt.Errorf("获取参与记录列表失败: %w", err)
	}
	return participations, nil
}

// Approve 审批参与记录
func (p *ParticipationLogic) Approve(campaignId, projectId int64) error {
	result := p.db.Model(&model.ParticipationModel{}).
		Where("campaign_id = ? AND project_id = ?", campaignId, projectId).
		Update("approved", true)
	if result.Error != nil {
		return fmt.Errorf("审批参与记录失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("参与记录不存在")
	}
	return nil
}

// UpdateVoteCount 更新累计票数
func (p *ParticipationLogic) UpdateVoteCount(campaignId, projectId int64, voteCount string) error {
	if err := p.db.Model(&model.ParticipationModel{}).
		Where("campaign_id = ? AND project_id = ?", campaignId, projectId).
		Update("vote_count", voteCount).Error; err != nil {
		return fmt.Errorf("更新累计票数失败: %w", err)
	}
	return nil
}

// UpdateFundsReceived 更新结算所得资金
func (p *ParticipationLogic) UpdateFundsReceived(campaignId, projectId int64, fundsReceived string) error {
	if err := p.db.Model(&model.ParticipationModel{}).
		Where("campaign_id = ? AND project_id = ?", campaignId, projectId).
		Update("funds_received", fundsReceived).Error; err != nil {
		return fmt.Errorf("更新结算资金失败: %w", err)
	}
	return nil
}
