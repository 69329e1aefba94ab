package logic

import (
	"fmt"

	"github.com/sovseas/sse/internal/model"
	"gorm.io/gorm"
)

// EventLogic 事件业务逻辑
type EventLogic struct {
	db *gorm.DB
}

// NewEventLogic 创建事件业务逻辑
func NewEventLogic(db *gorm.DB) *EventLogic {
	return &EventLogic{db: db}
}

// CreateEvent 创建引擎事件记录
func (e *EventLogic) CreateEvent(event *model.EventModel) error {
	if err := e.db.Create(event).Error; err != nil {
		return fmt.Errorf("创建事件记录失败: %w", err)
	}
	return nil
}

// GetEventsByCampaign 获取活动相关事件
func (e *EventLogic) GetEventsByCampaign(campaignId int64) ([]model.EventModel, error) {
	var events []model.EventModel
	if err := e.db.Where("campaign_id = ?", campaignId).
		Order("id asc").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("获取活动事件失败: %w", err)
	}
	return events, nil
}

// GetEventsByMilestone 获取里程碑相关事件
func (e *EventLogic) GetEventsByMilestone(milestoneId int64) ([]model.EventModel, error) {
	var events []model.EventModel
	if err := e.db.Where("milestone_id = ?", milestoneId).
		Order("id asc").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("获取里程碑事件失败: %w", err)
	}
	return events, nil
}

// CreateChainEvent 创建链上事件记录，重复事件直接忽略
func (e *EventLogic) CreateChainEvent(event *model.ChainEventModel) (bool, error) {
	result := e.db.Where("tx_hash = ? AND log_index = ?", event.TxHash, event.LogIndex).
		FirstOrCreate(event)
	if result.Error != nil {
		return false, fmt.Errorf("创建链上事件记录失败: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// MarkChainEventProcessed 标记链上事件已处理
func (e *EventLogic) MarkChainEventProcessed(id int64) error {
	if err := e.db.Model(&model.ChainEventModel{}).
		Where("id = ?", id).
		Update("processed", true).Error; err != nil {
		return fmt.Errorf("标记链上事件失败: %w", err)
	}
	return nil
}

// GetLastProcessedBlock 获取已入库的最大区块号，监控任务从这里续传
func (e *EventLogic) GetLastProcessedBlock(contractAddress string) (int64, error) {
	var blockNum int64
	err := e.db.Model(&model.ChainEventModel{}).
		Where("contract_address = ?", contractAddress).
		Select("COALESCE(MAX(block_num), 0)").
		Scan(&blockNum).Error
	if err != nil {
		return 0, fmt.Errorf("获取最大区块号失败: %w", err)
	}
	return blockNum, nil
}
