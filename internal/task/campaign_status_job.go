package task

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sovseas/sse/internal/config"
	"github.com/sovseas/sse/internal/logger"
	"github.com/sovseas/sse/internal/logic"
	"github.com/sovseas/sse/internal/model"
	"gorm.io/gorm"
)

// CampaignStatusJob 活动状态推进任务。
// 读模型里的状态只是时间窗口的展示语义，引擎侧总是按时钟判断。
type CampaignStatusJob struct {
	db            *gorm.DB
	config        *config.Config
	campaignLogic *logic.CampaignLogic
}

// NewCampaignStatusJob 创建活动状态任务
func NewCampaignStatusJob(db *gorm.DB, cfg *config.Config) *CampaignStatusJob {
	return &CampaignStatusJob{
		db:            db,
		config:        cfg,
		campaignLogic: logic.NewCampaignLogic(db),
	}
}

// GetName 获取任务名称
func (j *CampaignStatusJob) GetName() string {
	return "campaign_status_updater"
}

// GetSchedule 获取调度配置
func (j *CampaignStatusJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *CampaignStatusJob) Execute() {
	now := time.Now()

	// pending -> active：已到开始时间
	result := j.db.Model(&model.CampaignModel{}).
		Where("status = ? AND start_time <= ?", model.CampaignStatusPending, now).
		Update("status", model.CampaignStatusActive)
	if result.Error != nil {
		logger.Error("Failed to activate pending campaigns: %v", result.Error)
	} else if result.RowsAffected > 0 {
		logger.Info("Activated %d campaigns", result.RowsAffected)
	}

	// active -> ended：已过结束时间
	result = j.db.Model(&model.CampaignModel{}).
		Where("status = ? AND end_time <= ?", model.CampaignStatusActive, now).
		Update("status", model.CampaignStatusEnded)
	if result.Error != nil {
		logger.Error("Failed to end expired campaigns: %v", result.Error)
	} else if result.RowsAffected > 0 {
		logger.Info("Ended %d campaigns", result.RowsAffected)
	}
}
