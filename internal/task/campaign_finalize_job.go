package task

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sovseas/sse/internal/config"
	"github.com/sovseas/sse/internal/engine"
	"github.com/sovseas/sse/internal/logger"
	"github.com/sovseas/sse/internal/logic"
	"github.com/sovseas/sse/internal/model"
	"gorm.io/gorm"
)

// CampaignFinalizeJob 自动结算任务。
// 扫描已结束且开启自动结算的活动，用平台操作账户触发结算。
// 引擎保证结算严格一次，重复触发是安全的。
type CampaignFinalizeJob struct {
	db            *gorm.DB
	eng           *engine.Engine
	config        *config.Config
	campaignLogic *logic.CampaignLogic
}

// NewCampaignFinalizeJob 创建自动结算任务
func NewCampaignFinalizeJob(db *gorm.DB, eng *engine.Engine, cfg *config.Config) *CampaignFinalizeJob {
	return &CampaignFinalizeJob{
		db:            db,
		eng:           eng,
		config:        cfg,
		campaignLogic: logic.NewCampaignLogic(db),
	}
}

// GetName 获取任务名称
func (j *CampaignFinalizeJob) GetName() string {
	return "campaign_auto_finalizer"
}

// GetSchedule 获取调度配置
func (j *CampaignFinalizeJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *CampaignFinalizeJob) Execute() {
	operator := engine.Account(j.config.Platform.Operator)
	if operator == "" {
		logger.Warn("No operator account configured, skipping auto finalize")
		return
	}

	var campaigns []model.CampaignModel
	err := j.db.Where("status = ? AND auto_finalize = ? AND end_time <= ?",
		model.CampaignStatusEnded, true, time.Now()).
		Find(&campaigns).Error
	if err != nil {
		logger.Error("Failed to fetch campaigns pending finalization: %v", err)
		return
	}
	if len(campaigns) == 0 {
		return
	}

	logger.Info("Found %d campaigns pending auto finalization", len(campaigns))
	finalized := 0

	for _, c := range campaigns {
		// 自定义权重策略无法自动结算，需要管理员带权重手动触发
		if c.Policy == string(engine.PolicyCustom) {
			logger.Warn("Campaign %d uses custom policy, skipping auto finalize", c.Id)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute*5)
		payouts, err := j.eng.FinalizeCampaign(ctx, operator, c.Id, nil)
		cancel()

		if err != nil {
			if errors.Is(err, engine.ErrAlreadyDistributed) {
				// 引擎已结算但读模型落后，补一次标记
				if err := j.campaignLogic.MarkFinalized(c.Id); err != nil {
					logger.Error("Failed to mark campaign %d finalized: %v", c.Id, err)
				}
				continue
			}
			logger.Error("Failed to finalize campaign %d: %v", c.Id, err)
			continue
		}

		logger.Info("Auto finalized campaign %d with %d payouts", c.Id, len(payouts))
		finalized++
	}

	if finalized > 0 {
		logger.Info("Auto finalization completed, finalized %d campaigns", finalized)
	}
}
