package task

import (
	"context"
	"errors"
	"time"

	"github.com/blues/pledge/internal/config"
	"github.com/blues/pledge/internal/logger"
	"github.com/blues/pledge/internal/logic"
	"github.com/blues/pledge/internal/model"
	"github.com/go-co-op/gocron/v2"
)

// DailyRaffleJob 每日抽奖驱动任务。窗口检查任何调用方都可触发，
// 此任务只是保证没有外部调用时开奖也会发生。
type DailyRaffleJob struct {
	config      *config.Config
	raffleLogic *logic.RaffleLogic
}

// NewDailyRaffleJob 创建每日抽奖驱动任务
func NewDailyRaffleJob(cfg *config.Config, raffleLogic *logic.RaffleLogic) *DailyRaffleJob {
	return &DailyRaffleJob{
		config:      cfg,
		raffleLogic: raffleLogic,
	}
}

// GetName 获取任务名称
func (j *DailyRaffleJob) GetName() string {
	return "daily_raffle_driver"
}

// GetSchedule 获取调度配置
func (j *DailyRaffleJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.DailyRaffleIntervalSeconds) * time.Second)
}

// Execute 执行任务
func (j *DailyRaffleJob) Execute() {
	request, err := j.raffleLogic.DrawDaily(context.Background())
	if err != nil {
		// 窗口未到、池为空、快照为空都是预期结果
		if errors.Is(err, model.ErrTooEarly) ||
			errors.Is(err, model.ErrEmptyPool) ||
			errors.Is(err, model.ErrEmptyCandidateSet) ||
			errors.Is(err, model.ErrRequestAlreadyPending) {
			logger.Debug("Daily raffle not drawn: %v", err)
			return
		}
		logger.Error("Daily raffle draw failed: %v", err)
		return
	}

	logger.Info("Daily raffle requested: %s (scope %s)", request.CorrelationId, request.Scope)
}
