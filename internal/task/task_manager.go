package task

import (
	"github.com/go-co-op/gocron/v2"
	"github.com/sovseas/sse/internal/config"
	"github.com/sovseas/sse/internal/engine"
	"github.com/sovseas/sse/internal/logger"
	"gorm.io/gorm"
)

// Job 定时任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// TaskManager 任务管理器
type TaskManager struct {
	scheduler gocron.Scheduler
	db        *gorm.DB
	eng       *engine.Engine
	config    *config.Config
}

// NewTaskManager 创建任务管理器
func NewTaskManager(db *gorm.DB, eng *engine.Engine, cfg *config.Config) *TaskManager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &TaskManager{
		scheduler: s,
		db:        db,
		eng:       eng,
		config:    cfg,
	}
}

// Start 启动任务管理器
func Start(db *gorm.DB, eng *engine.Engine, cfg *config.Config) *TaskManager {
	manager := NewTaskManager(db, eng, cfg)
	manager.RegisterJobs()
	manager.scheduler.Start()
	logger.Info("Task manager started successfully")
	return manager
}

// RegisterJobs 注册所有任务
func (m *TaskManager) RegisterJobs() {
	m.register(NewCampaignStatusJob(m.db, m.config))
	m.register(NewCampaignFinalizeJob(m.db, m.eng, m.config))
}

func (m *TaskManager) register(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止任务管理器
func (m *TaskManager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
