package event

import (
	"context"
	"errors"

	"github.com/blues/pledge/internal/logger"
	"github.com/blues/pledge/internal/logic"
	"github.com/blues/pledge/internal/model"
	"github.com/blues/pledge/internal/vrf"
)

// FulfillmentProcessor 回调事件处理器
type FulfillmentProcessor struct {
	requestLogic *logic.RequestLogic
}

// NewFulfillmentProcessor 创建回调事件处理器
func NewFulfillmentProcessor(requestLogic *logic.RequestLogic) *FulfillmentProcessor {
	return &FulfillmentProcessor{requestLogic: requestLogic}
}

// Process 处理单个回调。未知或重复的关联id是预期情况
// （链上重放、重启后重扫区块），跳过即可。
// 其他错误上抛给监控器，让所在批次的区间重扫。
func (p *FulfillmentProcessor) Process(ctx context.Context, f vrf.Fulfillment) error {
	err := p.requestLogic.Fulfill(ctx, f.CorrelationId, f.RandomValue)
	if err == nil {
		logger.Info("Fulfilled randomness request %s (block %d)", f.CorrelationId, f.BlockNum)
		return nil
	}

	if errors.Is(err, model.ErrUnknownRequest) || errors.Is(err, model.ErrAlreadyFulfilled) {
		logger.Debug("Skipping fulfillment %s: %v", f.CorrelationId, err)
		return nil
	}

	logger.Error("Failed to process fulfillment %s: %v", f.CorrelationId, err)
	return err
}
