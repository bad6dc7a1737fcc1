package task

import (
	"context"
	"time"

	"github.com/blues/pledge/internal/config"
	"github.com/blues/pledge/internal/logger"
	"github.com/blues/pledge/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// RequestWatchdogJob 随机数请求巡检任务：
// 重发尚未送达预言机的请求（outbox重试），并对长期未回调的请求告警。
// 系统不会超时释放作用域锁，告警是唯一的补救动作。
type RequestWatchdogJob struct {
	config       *config.Config
	requestLogic *logic.RequestLogic
}

// NewRequestWatchdogJob 创建随机数请求巡检任务
func NewRequestWatchdogJob(cfg *config.Config, requestLogic *logic.RequestLogic) *RequestWatchdogJob {
	return &RequestWatchdogJob{
		config:       cfg,
		requestLogic: requestLogic,
	}
}

// GetName 获取任务名称
func (j *RequestWatchdogJob) GetName() string {
	return "request_watchdog"
}

// GetSchedule 获取调度配置
func (j *RequestWatchdogJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.WatchdogIntervalSeconds) * time.Second)
}

// Execute 执行任务
func (j *RequestWatchdogJob) Execute() {
	j.requestLogic.ForwardPending(context.Background())

	age := time.Duration(j.config.Task.WatchdogPendingAgeHours) * time.Hour
	stale, err := j.requestLogic.ListStalePending(age)
	if err != nil {
		logger.Error("Failed to list stale requests: %v", err)
		return
	}

	for _, request := range stale {
		logger.Warn("Randomness request %s (scope %s) pending since %s",
			request.CorrelationId, request.Scope, request.CreatedAt.Format(time.RFC3339))
	}
}
