package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blues/pledge/internal/logger"
	"github.com/blues/pledge/internal/model"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// RaffleLogic 抽奖触发器：活动里程碑抽奖和每日抽奖
type RaffleLogic struct {
	db           *gorm.DB
	requestLogic *RequestLogic
	eventLogic   *EventLogic
	clock        clockwork.Clock

	milestoneStepBps int64
	dailyInterval    time.Duration
}

// NewRaffleLogic 创建抽奖触发器
func NewRaffleLogic(db *gorm.DB, requestLogic *RequestLogic, eventLogic *EventLogic, clock clockwork.Clock, milestoneStepBps int64, dailyInterval time.Duration) *RaffleLogic {
	if milestoneStepBps <= 0 {
		milestoneStepBps = 1000
	}
	if dailyInterval <= 0 {
		dailyInterval = 24 * time.Hour
	}
	return &RaffleLogic{
		db:               db,
		requestLogic:     requestLogic,
		eventLogic:       eventLogic,
		clock:            clock,
		milestoneStepBps: milestoneStepBps,
		dailyInterval:    dailyInterval,
	}
}

// EvaluateMilestoneTx 在认捐事务内评估里程碑触发。
// 单笔认捐跨越多个里程碑时只开一个请求（当前未满足的第一个里程碑），
// 后续里程碑由下一笔认捐补触发，避免单笔交易产生无限扇出。
// 池为空、作用域已有pending、储备金不足都是预期的静默跳过，不影响认捐本身。
func (r *RaffleLogic) EvaluateMilestoneTx(ctx context.Context, tx *gorm.DB, campaign *model.CampaignModel) error {
	if campaign.NextMilestoneBps > 10000 {
		return nil
	}
	if campaign.ProgressBps() < campaign.NextMilestoneBps {
		return nil
	}

	var state model.CampaignRaffleStateModel
	if err := tx.FirstOrCreate(&state, model.CampaignRaffleStateModel{CampaignId: campaign.Id}).Error; err != nil {
		return fmt.Errorf("failed to load campaign raffle pool: %w", err)
	}
	if state.PoolAmount <= 0 {
		return nil
	}

	scope := model.CampaignRaffleScope(campaign.Id)
	pending, err := r.requestLogic.HasPendingTx(tx, scope)
	if err != nil {
		return err
	}
	if pending {
		return nil
	}

	candidates, err := CampaignCandidatesTx(tx, campaign.Id)
	if err != nil {
		return err
	}

	if _, err := r.requestLogic.OpenTx(ctx, tx, scope, candidates); err != nil {
		if errors.Is(err, model.ErrInsufficientReserve) {
			// 里程碑不前进，储备金补足后由下一笔认捐重试
			logger.Warn("Campaign %d milestone raffle skipped: %v", campaign.Id, err)
			return nil
		}
		return err
	}

	milestone := campaign.NextMilestoneBps
	campaign.NextMilestoneBps += r.milestoneStepBps
	if err := tx.Model(&model.CampaignModel{}).Where("id = ?", campaign.Id).
		Update("next_milestone_bps", campaign.NextMilestoneBps).Error; err != nil {
		return fmt.Errorf("failed to advance milestone: %w", err)
	}

	logger.Info("Campaign %d raffle requested at milestone %d bps", campaign.Id, milestone)
	return r.eventLogic.EmitTx(tx, model.EventCampaignRaffleRequested, campaign.Id, map[string]interface{}{
		"milestone_bps": milestone,
	})
}

// DrawDaily 每日抽奖窗口检查，任何调用方都可以触发。
// TooEarly 和 EmptyPool 是预期的非致命结果，不是系统错误。
func (r *RaffleLogic) DrawDaily(ctx context.Context) (*model.RandomnessRequestModel, error) {
	now := r.clock.Now()
	var request *model.RandomnessRequestModel

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var pool model.FeePoolModel
		if err := tx.FirstOrCreate(&pool, model.FeePoolModel{Id: 1}).Error; err != nil {
			return fmt.Errorf("failed to load fee pool: %w", err)
		}

		if !pool.LastDailyDrawAt.IsZero() && now.Sub(pool.LastDailyDrawAt) < r.dailyInterval {
			return model.ErrTooEarly
		}
		if pool.DailyRafflePool <= 0 {
			return model.ErrEmptyPool
		}

		pending, err := r.requestLogic.HasPendingKindTx(tx, model.ScopeKindDailyRaffle)
		if err != nil {
			return err
		}
		if pending {
			return model.ErrRequestAlreadyPending
		}

		// 候选人为本窗口内的认捐者，权重为窗口内净认捐额
		since := pool.LastDailyDrawAt
		if since.IsZero() {
			since = now.Add(-r.dailyInterval)
		}
		candidates, err := DailyCandidatesTx(tx, since)
		if err != nil {
			return err
		}

		day := now.Unix() / 86400
		request, err = r.requestLogic.OpenTx(ctx, tx, model.DailyRaffleScope(day), candidates)
		if err != nil {
			return err
		}

		// 乐观占位：窗口时间戳被并发推进时放弃本次开奖
		claim := tx.Model(&pool).
			Where("last_daily_draw_at = ?", pool.LastDailyDrawAt).
			Update("last_daily_draw_at", now)
		if claim.Error != nil {
			return fmt.Errorf("failed to update last draw time: %w", claim.Error)
		}
		if claim.RowsAffected == 0 {
			return model.ErrTooEarly
		}

		return r.eventLogic.EmitTx(tx, model.EventDailyRaffleRequested, 0, map[string]interface{}{
			"day": day,
		})
	})
	if err != nil {
		return nil, err
	}

	r.requestLogic.ForwardPending(ctx)
	return request, nil
}

// CampaignCandidatesTx 活动候选人快照：按认捐者聚合净认捐额，
// 按首次认捐顺序排列，保证快照顺序稳定。
func CampaignCandidatesTx(tx *gorm.DB, campaignId int64) ([]model.Candidate, error) {
	var candidates []model.Candidate
	err := tx.Raw(`
		SELECT pledger_address AS address, SUM(net_amount) AS weight
		FROM pledge
		WHERE campaign_id = ?
		GROUP BY pledger_address
		ORDER BY MIN(id) ASC
	`, campaignId).Scan(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build candidate snapshot: %w", err)
	}
	return candidates, nil
}

// DailyCandidatesTx 每日抽奖候选人快照：窗口内的认捐者，权重为窗口内净认捐额
func DailyCandidatesTx(tx *gorm.DB, since time.Time) ([]model.Candidate, error) {
	var candidates []model.Candidate
	err := tx.Raw(`
		SELECT pledger_address AS address, SUM(net_amount) AS weight
		FROM pledge
		WHERE created_at > ?
		GROUP BY pledger_address
		ORDER BY MIN(id) ASC
	`, since).Scan(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build daily candidate snapshot: %w", err)
	}
	return candidates, nil
}
