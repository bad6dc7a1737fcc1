package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blues/pledge/internal/logger"
	"github.com/blues/pledge/internal/model"
	"github.com/blues/pledge/internal/vrf"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// CoordinatorSource 回调事件来源，由vrf.Client实现
type CoordinatorSource interface {
	LatestBlock(ctx context.Context) (int64, error)
	FilterFulfillments(ctx context.Context, fromBlock, toBlock int64) ([]vrf.Fulfillment, error)
}

// Monitor 随机数回调监控器。轮询协调器合约的回调事件，
// 这是外部非确定性进入系统的唯一入口。
// 已处理的区块高度持久化在游标表里：一个批次全部处理成功才前进，
// 失败的批次下次轮询重扫，重启后从游标位置继续，不丢回调。
type Monitor struct {
	db           *gorm.DB
	source       CoordinatorSource
	processor    *FulfillmentProcessor
	pollInterval time.Duration
	startBlock   int64
	lastBlock    int64
	ctx          context.Context
	cancel       context.CancelFunc
	mu           sync.Mutex // 保护 lastBlock
}

// NewMonitor 创建回调监控器
func NewMonitor(db *gorm.DB, source CoordinatorSource, processor *FulfillmentProcessor, startBlock int64, pollInterval time.Duration) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())
	if pollInterval <= 0 {
		pollInterval = 60 * time.Second
	}
	return &Monitor{
		db:           db,
		source:       source,
		processor:    processor,
		pollInterval: pollInterval,
		startBlock:   startBlock,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start 启动监控循环。起始高度优先取持久化游标，
// 其次取配置的起始区块，都没有时从当前链头开始。
func (m *Monitor) Start() error {
	var cursor model.ChainCursorModel
	if err := m.db.FirstOrCreate(&cursor, model.ChainCursorModel{Id: 1}).Error; err != nil {
		return fmt.Errorf("failed to load chain cursor: %w", err)
	}

	start := cursor.LastBlock
	if start <= 0 {
		start = m.startBlock
	}
	if start <= 0 {
		currentBlock, err := m.source.LatestBlock(m.ctx)
		if err != nil {
			return err
		}
		start = currentBlock
	}

	m.mu.Lock()
	m.lastBlock = start
	m.mu.Unlock()
	if err := m.saveCursor(start); err != nil {
		return err
	}

	logger.Info("Starting fulfillment monitor from block %d", start)
	go m.loop()
	return nil
}

// Stop 停止监控
func (m *Monitor) Stop() {
	logger.Info("Stopping fulfillment monitor")
	m.cancel()
}

// loop 监控循环
func (m *Monitor) loop() {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			logger.Info("Fulfillment monitor stopped")
			return
		case <-ticker.C:
			if err := m.poll(); err != nil {
				logger.Error("Error polling fulfillments: %v", err)
			}
		}
	}
}

// poll 处理自上次轮询以来的新区块。
// 批次内有处理失败时游标不前进，整段区间下次重扫，
// 已成功的回调靠关联id的幂等性跳过。
func (m *Monitor) poll() error {
	currentBlock, err := m.source.LatestBlock(m.ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	fromBlock := m.lastBlock + 1
	m.mu.Unlock()

	if currentBlock < fromBlock {
		return nil
	}

	fulfillments, err := m.source.FilterFulfillments(m.ctx, fromBlock, currentBlock)
	if err != nil {
		return err
	}

	if len(fulfillments) > 0 {
		logger.Info("Found %d fulfillments in blocks %d-%d", len(fulfillments), fromBlock, currentBlock)
		if err := m.processBatch(fulfillments); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.lastBlock = currentBlock
	m.mu.Unlock()
	return m.saveCursor(currentBlock)
}

// saveCursor 持久化已处理的区块高度
func (m *Monitor) saveCursor(block int64) error {
	if err := m.db.Model(&model.ChainCursorModel{}).
		Where("id = ?", 1).Update("last_block", block).Error; err != nil {
		return fmt.Errorf("failed to save chain cursor: %w", err)
	}
	return nil
}

// processBatch 用临时协程池并发处理一批回调，返回批次内首个处理错误。
// 每个作用域同时只有一条pending请求，并发处理不会竞争同一奖池。
func (m *Monitor) processBatch(fulfillments []vrf.Fulfillment) error {
	pool, err := ants.NewPool(len(fulfillments))
	if err != nil {
		logger.Error("Failed to create pool for %d fulfillments: %v", len(fulfillments), err)
		var firstErr error
		for _, f := range fulfillments {
			if perr := m.processor.Process(m.ctx, f); perr != nil && firstErr == nil {
				firstErr = perr
			}
		}
		return firstErr
	}
	defer pool.Release()

	var wg sync.WaitGroup
	var errMu sync.Mutex
	var firstErr error
	for _, f := range fulfillments {
		f := f
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if perr := m.processor.Process(m.ctx, f); perr != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = perr
				}
				errMu.Unlock()
			}
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit fulfillment task: %v", err)
			errMu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			errMu.Unlock()
		}
	}
	wg.Wait()
	return firstErr
}
