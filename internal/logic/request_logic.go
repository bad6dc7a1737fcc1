package logic

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/blues/pledge/internal/logger"
	"github.com/blues/pledge/internal/metrics"
	"github.com/blues/pledge/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestLogic 随机数请求管理。外部非确定性只从 Fulfill 进入系统，
// 其余逻辑对给定输入都是确定的。
type RequestLogic struct {
	db         *gorm.DB
	oracle     Oracle
	vault      AssetVault
	eventLogic *EventLogic
}

// NewRequestLogic 创建随机数请求管理
func NewRequestLogic(db *gorm.DB, oracle Oracle, vault AssetVault, eventLogic *EventLogic) *RequestLogic {
	return &RequestLogic{
		db:         db,
		oracle:     oracle,
		vault:      vault,
		eventLogic: eventLogic,
	}
}

// OpenTx 在指定事务内开启一个随机数请求。
// 守卫：同一作用域最多一条pending；快照权重总和必须大于0；
// VRF储备金必须足以支付预言机费用，费用在同一事务内扣除。
// 请求行落库后由转发任务送往预言机（见 ForwardPending）。
func (r *RequestLogic) OpenTx(ctx context.Context, tx *gorm.DB, scope string, candidates []model.Candidate) (*model.RandomnessRequestModel, error) {
	var pending int64
	if err := tx.Model(&model.RandomnessRequestModel{}).
		Where("scope = ? AND status = ?", scope, model.RequestStatusPending).
		Count(&pending).Error; err != nil {
		return nil, fmt.Errorf("failed to check pending requests: %w", err)
	}
	if pending > 0 {
		return nil, model.ErrRequestAlreadyPending
	}

	totalWeight := int64(0)
	for _, c := range candidates {
		if c.Weight > 0 {
			totalWeight += c.Weight
		}
	}
	if totalWeight <= 0 {
		return nil, model.ErrEmptyCandidateSet
	}

	fee, err := r.oracle.EstimateRequestFee(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate oracle fee: %w", err)
	}

	// 储备金校验和扣减合并为一条守卫式更新，余额不足时不产生任何扣减
	var pool model.FeePoolModel
	if err := tx.FirstOrCreate(&pool, model.FeePoolModel{Id: 1}).Error; err != nil {
		return nil, fmt.Errorf("failed to load fee pool: %w", err)
	}
	deduct := tx.Model(&model.FeePoolModel{}).
		Where("id = ? AND vrf_reserve >= ?", 1, fee).
		Update("vrf_reserve", gorm.Expr("vrf_reserve - ?", fee))
	if deduct.Error != nil {
		return nil, fmt.Errorf("failed to deduct vrf reserve: %w", deduct.Error)
	}
	if deduct.RowsAffected == 0 {
		return nil, model.ErrInsufficientReserve
	}

	snapshot, err := model.EncodeCandidates(candidates)
	if err != nil {
		return nil, err
	}

	request := model.RandomnessRequestModel{
		Scope:         scope,
		CorrelationId: uuid.NewString(),
		Status:        model.RequestStatusPending,
		Candidates:    snapshot,
	}
	if err := tx.Create(&request).Error; err != nil {
		return nil, fmt.Errorf("failed to create randomness request: %w", err)
	}

	kind, _, _ := model.ParseScope(scope)
	metrics.RaffleRequestsTotal.WithLabelValues(kind).Inc()
	metrics.PendingRequests.Inc()

	return &request, nil
}

// ForwardPending 把尚未转发的pending请求送往预言机（outbox转发）。
// 转发失败只记录日志，下次任务重试；correlation id保证预言机端幂等。
func (r *RequestLogic) ForwardPending(ctx context.Context) {
	var requests []model.RandomnessRequestModel
	if err := r.db.Where("status = ? AND forwarded = ?", model.RequestStatusPending, false).
		Order("id ASC").Find(&requests).Error; err != nil {
		logger.Error("Failed to load unforwarded requests: %v", err)
		return
	}

	for _, request := range requests {
		if err := r.oracle.RequestRandomness(ctx, request.CorrelationId); err != nil {
			logger.Error("Failed to forward request %s (scope %s): %v", request.CorrelationId, request.Scope, err)
			continue
		}
		if err := r.db.Model(&model.RandomnessRequestModel{}).
			Where("id = ?", request.Id).Update("forwarded", true).Error; err != nil {
			logger.Error("Failed to mark request %s forwarded: %v", request.CorrelationId, err)
			continue
		}
		logger.Info("Forwarded randomness request %s (scope %s)", request.CorrelationId, request.Scope)
	}
}

// Fulfill 处理预言机回调：标记请求完成，对冻结的候选人快照执行加权选取，
// 并按作用域类型完成对应的奖励结算。整个结算在一个事务内执行。
func (r *RequestLogic) Fulfill(ctx context.Context, correlationId string, randomValue *big.Int) error {
	var transfers []prizeTransfer
	var fulfilledKind string

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var request model.RandomnessRequestModel
		if err := tx.Where("correlation_id = ?", correlationId).First(&request).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrUnknownRequest
			}
			return fmt.Errorf("failed to load request: %w", err)
		}
		if request.Status == model.RequestStatusFulfilled {
			return model.ErrAlreadyFulfilled
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":       model.RequestStatusFulfilled,
			"random_value": randomValue.String(),
			"fulfilled_at": &now,
		}
		if err := tx.Model(&request).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to mark request fulfilled: %w", err)
		}

		candidates, err := model.DecodeCandidates(request.Candidates)
		if err != nil {
			return err
		}

		kind, id, err := model.ParseScope(request.Scope)
		if err != nil {
			return err
		}
		fulfilledKind = kind

		switch kind {
		case model.ScopeKindCampaignRaffle:
			return r.settleCampaignRaffle(tx, id, candidates, randomValue)
		case model.ScopeKindDailyRaffle:
			return r.settleDailyRaffle(tx, id, candidates, randomValue)
		case model.ScopeKindPrizeDistribution:
			transfers, err = r.settlePrizeDistribution(tx, id, candidates, randomValue)
			return err
		}
		return fmt.Errorf("unknown scope kind: %s", kind)
	})
	if err != nil {
		return err
	}

	metrics.RaffleFulfillmentsTotal.WithLabelValues(fulfilledKind).Inc()
	metrics.PendingRequests.Dec()

	// 资产转出严格发生在状态提交之后，失败不回滚已定的中奖结果
	for _, t := range transfers {
		if err := r.vault.TransferOut(ctx, t.kind, t.asset, t.winner, t.amount, t.tokenId); err != nil {
			logger.Error("Prize transfer-out failed (prize %d to %s): %v", t.prizeId, t.winner, err)
			continue
		}
		metrics.PrizesDistributedTotal.Inc()
	}

	return nil
}

// prizeTransfer 状态提交后待执行的资产转出
type prizeTransfer struct {
	prizeId int64
	kind    model.PrizeKind
	asset   string
	winner  string
	amount  int64
	tokenId int64
}

// settleCampaignRaffle 活动里程碑抽奖结算：整池派发给一名中奖者
func (r *RequestLogic) settleCampaignRaffle(tx *gorm.DB, campaignId int64, candidates []model.Candidate, randomValue *big.Int) error {
	winner, err := SelectWinner(candidates, randomValue)
	if err != nil {
		return err
	}

	var state model.CampaignRaffleStateModel
	if err := tx.FirstOrCreate(&state, model.CampaignRaffleStateModel{CampaignId: campaignId}).Error; err != nil {
		return fmt.Errorf("failed to load campaign raffle pool: %w", err)
	}

	amount := state.PoolAmount
	if amount <= 0 {
		logger.Warn("Campaign %d raffle fulfilled with empty pool", campaignId)
		return nil
	}
	// 只扣除读到的金额，结算期间新入池的份额留给下一轮
	drain := tx.Model(&state).
		Where("pool_amount >= ?", amount).
		Update("pool_amount", gorm.Expr("pool_amount - ?", amount))
	if drain.Error != nil {
		return fmt.Errorf("failed to drain campaign raffle pool: %w", drain.Error)
	}
	if drain.RowsAffected == 0 {
		return fmt.Errorf("campaign %d raffle pool changed during settlement", campaignId)
	}

	payout := model.RafflePayoutModel{
		Scope:         model.CampaignRaffleScope(campaignId),
		CampaignId:    campaignId,
		WinnerAddress: winner,
		Amount:        amount,
	}
	if err := tx.Create(&payout).Error; err != nil {
		return fmt.Errorf("failed to record raffle payout: %w", err)
	}

	logger.Info("Campaign %d raffle winner: %s (%d)", campaignId, winner, amount)
	return r.eventLogic.EmitTx(tx, model.EventCampaignRaffleWinner, campaignId, map[string]interface{}{
		"winner": winner,
		"amount": amount,
	})
}

// settleDailyRaffle 每日抽奖结算：全局每日池派发给一名中奖者
func (r *RequestLogic) settleDailyRaffle(tx *gorm.DB, day int64, candidates []model.Candidate, randomValue *big.Int) error {
	winner, err := SelectWinner(candidates, randomValue)
	if err != nil {
		return err
	}

	var pool model.FeePoolModel
	if err := tx.FirstOrCreate(&pool, model.FeePoolModel{Id: 1}).Error; err != nil {
		return fmt.Errorf("failed to load fee pool: %w", err)
	}

	amount := pool.DailyRafflePool
	if amount <= 0 {
		logger.Warn("Daily raffle (day %d) fulfilled with empty pool", day)
		return nil
	}
	// 只扣除读到的金额，结算期间新认捐注入的份额留到下一个窗口
	drain := tx.Model(&pool).
		Where("daily_raffle_pool >= ?", amount).
		Update("daily_raffle_pool", gorm.Expr("daily_raffle_pool - ?", amount))
	if drain.Error != nil {
		return fmt.Errorf("failed to drain daily raffle pool: %w", drain.Error)
	}
	if drain.RowsAffected == 0 {
		return fmt.Errorf("daily raffle pool (day %d) changed during settlement", day)
	}

	payout := model.RafflePayoutModel{
		Scope:         model.DailyRaffleScope(day),
		Day:           day,
		WinnerAddress: winner,
		Amount:        amount,
	}
	if err := tx.Create(&payout).Error; err != nil {
		return fmt.Errorf("failed to record raffle payout: %w", err)
	}

	logger.Info("Daily raffle winner (day %d): %s (%d)", day, winner, amount)
	return r.eventLogic.EmitTx(tx, model.EventDailyRaffleWinner, 0, map[string]interface{}{
		"day":          day,
		"winner":       winner,
		"prize_amount": amount,
	})
}

// settlePrizeDistribution 奖品分发结算。每个奖品用同一次回调的随机数
// 派生出独立随机值（keccak256(randomValue || index)），在冻结快照上独立选取中奖者。
// 返回状态提交后要执行的资产转出列表。
func (r *RequestLogic) settlePrizeDistribution(tx *gorm.DB, campaignId int64, candidates []model.Candidate, randomValue *big.Int) ([]prizeTransfer, error) {
	var prizes []model.PrizeModel
	if err := tx.Where("campaign_id = ? AND claimed = ?", campaignId, false).
		Order("id ASC").Find(&prizes).Error; err != nil {
		return nil, fmt.Errorf("failed to load unclaimed prizes: %w", err)
	}

	transfers := make([]prizeTransfer, 0, len(prizes))
	for i, prize := range prizes {
		winner, err := SelectWinner(candidates, DeriveRandom(randomValue, int64(i)))
		if err != nil {
			return nil, err
		}

		updates := map[string]interface{}{
			"claimed":        true,
			"winner_address": winner,
		}
		if err := tx.Model(&model.PrizeModel{}).Where("id = ?", prize.Id).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to claim prize %d: %w", prize.Id, err)
		}

		if err := r.eventLogic.EmitTx(tx, model.EventCampaignPrizeWinner, campaignId, map[string]interface{}{
			"winner":      winner,
			"prize_index": i,
			"prize_id":    prize.Id,
		}); err != nil {
			return nil, err
		}

		transfers = append(transfers, prizeTransfer{
			prizeId: prize.Id,
			kind:    prize.Kind,
			asset:   prize.AssetAddress,
			winner:  winner,
			amount:  prize.Amount,
			tokenId: prize.AssetTokenId,
		})
	}

	if err := tx.Model(&model.CampaignModel{}).Where("id = ?", campaignId).
		Update("prizes_claimed", true).Error; err != nil {
		return nil, fmt.Errorf("failed to mark prizes claimed: %w", err)
	}

	return transfers, nil
}

// DeriveRandom 从一次回调的随机数派生第index个独立随机值
func DeriveRandom(randomValue *big.Int, index int64) *big.Int {
	indexBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(indexBytes, uint64(index))
	digest := crypto.Keccak256(common.LeftPadBytes(randomValue.Bytes(), 32), indexBytes)
	return new(big.Int).SetBytes(digest)
}

// HasPendingTx 指定作用域是否有pending请求
func (r *RequestLogic) HasPendingTx(tx *gorm.DB, scope string) (bool, error) {
	var count int64
	if err := tx.Model(&model.RandomnessRequestModel{}).
		Where("scope = ? AND status = ?", scope, model.RequestStatusPending).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check pending requests: %w", err)
	}
	return count > 0, nil
}

// HasPendingKindTx 指定作用域类型是否有pending请求
func (r *RequestLogic) HasPendingKindTx(tx *gorm.DB, kind string) (bool, error) {
	var count int64
	if err := tx.Model(&model.RandomnessRequestModel{}).
		Where("scope LIKE ? AND status = ?", kind+":%", model.RequestStatusPending).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check pending requests: %w", err)
	}
	return count > 0, nil
}

// ListStalePending 列出超过给定时长仍未回调的请求。
// 系统不会主动超时或释放作用域锁（设计决定），巡检任务只做告警。
func (r *RequestLogic) ListStalePending(age time.Duration) ([]model.RandomnessRequestModel, error) {
	cutoff := time.Now().Add(-age)
	var requests []model.RandomnessRequestModel
	if err := r.db.Where("status = ? AND created_at < ?", model.RequestStatusPending, cutoff).
		Order("id ASC").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list stale requests: %w", err)
	}
	return requests, nil
}

// EstimateFee 当前预言机费用估算
func (r *RequestLogic) EstimateFee(ctx context.Context) (int64, error) {
	return r.oracle.EstimateRequestFee(ctx)
}

// FundReserve 外部注资VRF储备金。储备金不足时抽奖请求会失败，
// 由外部资金机制保持余额高于预言机费用估算。
func (r *RequestLogic) FundReserve(funder string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, model.ErrZeroAmount
	}

	var balance int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var pool model.FeePoolModel
		if err := tx.FirstOrCreate(&pool, model.FeePoolModel{Id: 1}).Error; err != nil {
			return fmt.Errorf("failed to load fee pool: %w", err)
		}
		if err := tx.Model(&pool).
			Update("vrf_reserve", gorm.Expr("vrf_reserve + ?", amount)).Error; err != nil {
			return fmt.Errorf("failed to fund vrf reserve: %w", err)
		}
		if err := tx.First(&pool, 1).Error; err != nil {
			return fmt.Errorf("failed to load fee pool: %w", err)
		}
		balance = pool.VrfReserve
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info("VRF reserve funded by %s: +%d (balance %d)", funder, amount, balance)
	return balance, nil
}

// GetFeePool 读取全局费用池
func (r *RequestLogic) GetFeePool() (*model.FeePoolModel, error) {
	var pool model.FeePoolModel
	if err := r.db.FirstOrCreate(&pool, model.FeePoolModel{Id: 1}).Error; err != nil {
		return nil, fmt.Errorf("failed to load fee pool: %w", err)
	}
	return &pool, nil
}
