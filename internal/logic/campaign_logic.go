package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/sovseas/sse/internal/model"
	"gorm.io/gorm"
)

// CampaignLogic 活动业务逻辑
type CampaignLogic struct {
	db *gorm.DB
}

// NewCampaignLogic 创建活动业务逻辑
func NewCampaignLogic(db *gorm.DB) *CampaignLogic {
	return &CampaignLogic{db: db}
}

// CreateCampaign 创建活动记录
func (c *CampaignLogic) CreateCampaign(campaign *model.CampaignModel) error {
	if campaign.Title == "" {
		return errors.New("活动标题不能为空")
	}
	if !campaign.StartTime.Before(campaign.EndTime) {
		return errors.New("开始时间必须早于结束时间")
	}

	campaign.Status = model.CampaignStatusPending
	if !time.Now().Before(campaign.StartTime) {
		campaign.Status = model.CampaignStatusActive
	}

	if err := c.db.Create(campaign).Error; err != nil {
		return fmt.Errorf("创建活动记录失败: %w", err)
	}
	return nil
}

// GetCampaigns 获取活动列表
func (c *CampaignLogic) GetCampaigns() ([]model.CampaignModel, error) {
	var campaigns []model.CampaignModel
	if err := c.db.Order("id desc").Find(&campaigns).Error; err != nil {
		return nil, fmt.Errorf("获取活动列表失败: %w", err)
	}
	return campaigns, nil
}

// GetCampaign 获取活动详情
func (c *CampaignLogic) GetCampaign(id int64) (*model.CampaignModel, error) {
	var campaign model.CampaignModel
	if err := c.db.First(&campaign, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("活动不存在")
		}
		return nil, fmt.Errorf("获取活动详情失败: %w", err)
	}
	return &campaign, nil
}

// GetCampaignsByStatus 按状态获取活动
func (c *CampaignLogic) GetCampaignsByStatus(status model.CampaignStatus) ([]model.CampaignModel, error) {
	var campaigns []model.CampaignModel
	if err := c.db.Where("status = ?", status).Find(&campaigns).Error; err != nil {
		return nil, fmt.Errorf("按状态获取活动失败: %w", err)
	}
	return campaigns, nil
}

// UpdateStatus 更新活动状态
func (c *CampaignLogic) UpdateStatus(id int64, status model.CampaignStatus) error {
	result := c.db.Model(&model.CampaignModel{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("更新活动状态失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("活动不存在")
	}
	return nil
}

// UpdateTotalFunds 更新活动资金池
func (c *CampaignLogic) UpdateTotalFunds(id int64, totalFunds string) error {
	if err := c.db.Model(&model.CampaignModel{}).
		Where("id = ?", id).
		Update("total_funds", totalFunds).Error; err != nil {
		return fmt.Errorf("更新活动资金池失败: %w", err)
	}
	return nil
}

// MarkFinalized 标记活动已结算
func (c *CampaignLogic) MarkFinalized(id int64) error {
	if err := c.db.Model(&model.CampaignModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      model.CampaignStatusFinalized,
			"total_funds": "0",
		}).Error; err != nil {
		return fmt.Errorf("标记活动结算失败: %w", err)
	}
	return nil
}

// GetCampaignStats 获取活动统计信息
func (c *CampaignLogic) GetCampaignStats(id int64) (map[string]interface{}, error) {
	campaign, err := c.GetCampaign(id)
	if err != nil {
		return nil, err
	}

	var participantCount int64
	c.db.Model(&model.ParticipationModel{}).
		Where("campaign_id = ?", id).
		Count(&participantCount)

	var approvedCount int64
	c.db.Model(&model.ParticipationModel{}).
		Where("campaign_id = ? AND approved = ?", id, true).
		Count(&approvedCount)

	var voteCount int64
	c.db.Model(&model.VoteRecordModel{}).
		Where("campaign_id = ?", id).
		Count(&voteCount)

	var voterCount int64
	c.db.Model(&model.VoteRecordModel{}).
		Where("campaign_id = ?", id).
		Distinct("voter").
		Count(&voterCount)

	remainingTime := time.Duration(0)
	if campaign.Status == model.CampaignStatusActive && time.Now().Before(campaign.EndTime) {
		remainingTime = time.Until(campaign.EndTime)
	}

	return map[string]interface{}{
		"campaign_id":       campaign.Id,
		"status":            campaign.Status,
		"total_funds":       campaign.TotalFunds,
		"participant_count": participantCount,
		"approved_count":    approvedCount,
		"vote_count":        voteCount,
		"voter_count":       voterCount,
		"remaining_time":    remainingTime.String(),
	}, nil
}
