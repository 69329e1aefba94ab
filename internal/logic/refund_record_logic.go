package logic

import (
	"fmt"

	"github.com/sovseas/sse/internal/model"
	"gorm.io/gorm"
)

// RefundRecordLogic 退款记录业务逻辑
type RefundRecordLogic struct {
	db *gorm.DB
}

// NewRefundRecordLogic 创建退款记录业务逻辑
func NewRefundRecordLogic(db *gorm.DB) *RefundRecordLogic {
	return &RefundRecordLogic{db: db}
}

// CreateRefundRecord 创建退款记录
func (r *RefundRecordLogic) CreateRefundRecord(record *model.RefundRecordModel) error {
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("创建退款记录失败: %w", err)
	}
	return nil
}

// GetRefundRecords 获取里程碑的退款记录
func (r *RefundRecordLogic) GetRefundRecords(milestoneId int64) ([]model.RefundRecordModel, error) {
	var records []model.RefundRecordModel
	if err := r.db.Where("milestone_id = ?", milestoneId).
		Order("id asc").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("获取退款记录失败: %w", err)
	}
	return records, nil
}

// GetRefundRecordsByFunder 获取注资人的退款记录
func (r *RefundRecordLogic) GetRefundRecordsByFunder(funder string) ([]model.RefundRecordModel, error) {
	var records []model.RefundRecordModel
	if err := r.db.Where("funder = ?", funder).
		Order("id desc").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("获取注资人退款记录失败: %w", err)
	}
	return records, nil
}
