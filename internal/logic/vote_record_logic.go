package logic

import (
	"fmt"

	"github.com/sovseas/sse/internal/model"
	"gorm.io/gorm"
)

// VoteRecordLogic 投票记录业务逻辑
type VoteRecordLogic struct {
	db *gorm.DB
}

// NewVoteRecordLogic 创建投票记录业务逻辑
func NewVoteRecordLogic(db *gorm.DB) *VoteRecordLogic {
	return &VoteRecordLogic{db: db}
}

// CreateVoteRecord 创建投票记录
func (v *VoteRecordLogic) CreateVoteRecord(record *model.VoteRecordModel) error {
	if err := v.db.Create(record).Error; err != nil {
		return fmt.Errorf("创建投票记录失败: %w", err)
	}
	return nil
}

// GetVoteRecords 获取活动的投票记录
func (v *VoteRecordLogic) GetVoteRecords(campaignId int64) ([]model.VoteRecordModel, error) {
	var records []model.VoteRecordModel
	if err := v.db.Where("campaign_id = ?", campaignId).
		Order("id desc").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("获取投票记录失败: %w", err)
	}
	return records, nil
}

// GetVoteRecordsByProject 获取项目在活动中的投票记录
func (v *VoteRecordLogic) GetVoteRecordsByProject(campaignId, projectId int64) ([]model.VoteRecordModel, error) {
	var records []model.VoteRecordModel
	if err := v.db.Where("campaign_id = ? AND project_id = ?", campaignId, projectId).
		Order("id desc").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("获取项目投票记录失败: %w", err)
	}
	return records, nil
}

// GetVoteRecordsByVoter 获取投票人的投票记录
func (v *VoteRecordLogic) GetVoteRecordsByVoter(voter string) ([]model.VoteRecordModel, error) {
	var records []model.VoteRecordModel
	if err := v.db.Where("voter = ?", voter).
		Order("id desc").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("获取投票人记录失败: %w", err)
	}
	return records, nil
}
