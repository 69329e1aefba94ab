package logic

import (
	"errors"
	"fmt"

	"github.com/sovseas/sse/internal/model"
	"gorm.io/gorm"
)

// MilestoneLogic 里程碑业务逻辑
type MilestoneLogic struct {
	db *gorm.DB
}

// NewMilestoneLogic 创建里程碑业务逻辑
func NewMilestoneLogic(db *gorm.DB) *MilestoneLogic {
	return &MilestoneLogic{db: db}
}

// CreateMilestone 创建里程碑
func (m *MilestoneLogic) CreateMilestone(milestone *model.MilestoneModel) error {
	if err := m.db.Create(milestone).Error; err != nil {
		return fmt.Errorf("创建里程碑失败: %w", err)
	}
	return nil
}

// GetMilestone 获取里程碑详情
func (m *MilestoneLogic) GetMilestone(id int64) (*model.MilestoneModel, error) {
	var milestone model.MilestoneModel
	if err := m.db.First(&milestone, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("里程碑不存在")
		}
		return nil, fmt.Errorf("获取里程碑详情失败: %w", err)
	}
	return &milestone, nil
}

// GetMilestonesByProject 获取项目的里程碑列表
func (m *MilestoneLogic) GetMilestonesByProject(projectId int64) ([]model.MilestoneModel, error) {
	var milestones []model.MilestoneModel
	if err := m.db.Where("project_id = ?", projectId).
		Order("id asc").
		Find(&milestones).Error; err != nil {
		return nil, fmt.Errorf("获取项目里程碑失败: %w", err)
	}
	return milestones, nil
}

// UpdateStatus 更新里程碑状态
func (m *MilestoneLogic) UpdateStatus(id int64, status string, fields map[string]interface{}) error {
	updates := map[string]interface{}{"status": status}
	for k, v := range fields {
		updates[k] = v
	}
	result := m.db.Model(&model.MilestoneModel{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("更新里程碑状态失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("里程碑不存在")
	}
	return nil
}

// AddFunding 记录单笔注资并累加注资总额
func (m *MilestoneLogic) AddFunding(funding *model.MilestoneFundingModel, fundingAmount string) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(funding).Error; err != nil {
			return fmt.Errorf("创建注资记录失败: %w", err)
		}
		if err := tx.Model(&model.MilestoneModel{}).
			Where("id = ?", funding.MilestoneId).
			Update("funding_amount", fundingAmount).Error; err != nil {
			return fmt.Errorf("更新注资总额失败: %w", err)
		}
		return nil
	})
}

// GetFundings 获取里程碑的注资记录
func (m *MilestoneLogic) GetFundings(milestoneId int64) ([]model.MilestoneFundingModel, error) {
	var fundings []model.MilestoneFundingModel
	if err := m.db.Where("milestone_id = ?", milestoneId).
		Order("id asc").
		Find(&fundings).Error; err != nil {
		return nil, fmt.Errorf("获取注资记录失败: %w", err)
	}
	return fundings, nil
}
