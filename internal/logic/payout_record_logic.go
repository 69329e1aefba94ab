package logic

import (
	"fmt"

	"github.com/sovseas/sse/internal/model"
	"gorm.io/gorm"
)

// PayoutRecordLogic 发放记录业务逻辑
type PayoutRecordLogic struct {
	db *gorm.DB
}

// NewPayoutRecordLogic 创建发放记录业务逻辑
func NewPayoutRecordLogic(db *gorm.DB) *PayoutRecordLogic {
	return &PayoutRecordLogic{db: db}
}

// CreatePayoutRecord 创建发放记录
func (p *PayoutRecordLogic) CreatePayoutRecord(record *model.PayoutRecordModel) error {
	if err := p.db.Create(record).Error; err != nil {
		return fmt.Errorf("创建发放记录失败: %w", err)
	}
	return nil
}

// GetPayoutRecords 获取活动的发放记录
func (p *PayoutRecordLogic) GetPayoutRecords(campaignId int64) ([]model.PayoutRecordModel, error) {
	var records []model.PayoutRecordModel
	if err := p.db.Where("campaign_id = ?", campaignId).
		Order("id asc").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("获取发放记录失败: %w", err)
	}
	return records, nil
}

// GetPayoutRecordsByRecipient 获取收款方的发放记录
func (p *PayoutRecordLogic) GetPayoutRecordsByRecipient(recipient string) ([]model.PayoutRecordModel, error) {
	var records []model.PayoutRecordModel
	if err := p.db.Where("recipient = ?", recipient).
		Order("id desc").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("获取收款方发放记录失败: %w", err)
	}
	return records, nil
}
