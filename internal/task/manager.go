package task

import (
	"github.com/blues/pledge/internal/config"
	"github.com/blues/pledge/internal/logger"
	"github.com/blues/pledge/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// Job 定时任务接口
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	config    *config.Config

	raffleLogic  *logic.RaffleLogic
	requestLogic *logic.RequestLogic
}

// NewManager 创建新的任务管理器
func NewManager(cfg *config.Config, raffleLogic *logic.RaffleLogic, requestLogic *logic.RequestLogic) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler:    s,
		config:       cfg,
		raffleLogic:  raffleLogic,
		requestLogic: requestLogic,
	}
}

// Start 启动任务管理器
func Start(cfg *config.Config, raffleLogic *logic.RaffleLogic, requestLogic *logic.RequestLogic) *Manager {
	manager := NewManager(cfg, raffleLogic, requestLogic)

	// 注册所有任务
	manager.RegisterJobs()

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	m.registerJob(NewDailyRaffleJob(m.config, m.raffleLogic))
	m.registerJob(NewRequestWatchdogJob(m.config, m.requestLogic))
}

// registerJob 注册单个任务，单例模式避免同一任务并发执行
func (m *Manager) registerJob(job Job) {
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
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
