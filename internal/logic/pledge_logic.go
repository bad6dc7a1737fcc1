package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/blues/pledge/internal/fees"
	"github.com/blues/pledge/internal/metrics"
	"github.com/blues/pledge/internal/model"
	"gorm.io/gorm"
)

// PledgeLogic 认捐业务逻辑：账本更新、费用拆分、代币铸造、抽奖触发评估，
// 全部在一个事务内完成
type PledgeLogic struct {
	db           *gorm.DB
	schedule     *fees.Schedule
	tokenLogic   *TokenLogic
	eventLogic   *EventLogic
	raffleLogic  *RaffleLogic
	requestLogic *RequestLogic
}

// NewPledgeLogic 创建认捐业务逻辑
func NewPledgeLogic(db *gorm.DB, schedule *fees.Schedule, tokenLogic *TokenLogic, eventLogic *EventLogic, raffleLogic *RaffleLogic, requestLogic *RequestLogic) *PledgeLogic {
	return &PledgeLogic{
		db:           db,
		schedule:     schedule,
		tokenLogic:   tokenLogic,
		eventLogic:   eventLogic,
		raffleLogic:  raffleLogic,
		requestLogic: requestLogic,
	}
}

// RecordPledge 记录一笔认捐。失败的调用不保留任何部分状态。
func (p *PledgeLogic) RecordPledge(ctx context.Context, campaignId int64, pledger string, grossAmount int64) (*model.PledgeModel, error) {
	if grossAmount <= 0 {
		return nil, model.ErrZeroAmount
	}

	var pledge model.PledgeModel

	err := p.db.Transaction(func(tx *gorm.DB) error {
		var campaign model.CampaignModel
		if err := tx.First(&campaign, campaignId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrCampaignNotFound
			}
			return fmt.Errorf("failed to load campaign: %w", err)
		}
		if !campaign.Active || campaign.Ended {
			return model.ErrCampaignInactive
		}

		split := p.schedule.SplitPledge(grossAmount)

		// 活动净额只增不减，增量在数据库侧累加，并发认捐互不覆盖
		campaign.PledgedNet += split.Net
		if err := tx.Model(&campaign).
			Update("pledged_net", gorm.Expr("pledged_net + ?", split.Net)).Error; err != nil {
			return fmt.Errorf("failed to credit campaign: %w", err)
		}

		// 费用池与认捐拆分在同一原子步骤内更新
		var pool model.FeePoolModel
		if err := tx.FirstOrCreate(&pool, model.FeePoolModel{Id: 1}).Error; err != nil {
			return fmt.Errorf("failed to load fee pool: %w", err)
		}
		poolUpdates := map[string]interface{}{
			"platform_revenue":  gorm.Expr("platform_revenue + ?", split.PlatformRevenue),
			"vrf_reserve":       gorm.Expr("vrf_reserve + ?", split.VrfReserve),
			"daily_raffle_pool": gorm.Expr("daily_raffle_pool + ?", split.DailyRaffle),
		}
		if err := tx.Model(&pool).Updates(poolUpdates).Error; err != nil {
			return fmt.Errorf("failed to update fee pool: %w", err)
		}

		var state model.CampaignRaffleStateModel
		if err := tx.FirstOrCreate(&state, model.CampaignRaffleStateModel{CampaignId: campaignId}).Error; err != nil {
			return fmt.Errorf("failed to load campaign raffle pool: %w", err)
		}
		if err := tx.Model(&state).
			Update("pool_amount", gorm.Expr("pool_amount + ?", split.CampaignRaffle)).Error; err != nil {
			return fmt.Errorf("failed to update campaign raffle pool: %w", err)
		}

		tokenId, err := p.tokenLogic.MintTx(tx, pledger, campaignId, grossAmount, campaign.Title)
		if err != nil {
			return err
		}

		pledge = model.PledgeModel{
			CampaignId:     campaignId,
			PledgerAddress: pledger,
			GrossAmount:    grossAmount,
			NetAmount:      split.Net,
			TokenId:        tokenId,
		}
		if err := tx.Create(&pledge).Error; err != nil {
			return fmt.Errorf("failed to record pledge: %w", err)
		}

		if err := p.eventLogic.EmitTx(tx, model.EventPledgeMade, campaignId, map[string]interface{}{
			"pledger":              pledger,
			"amount":               grossAmount,
			"net_amount":           split.Net,
			"achievement_token_id": tokenId,
		}); err != nil {
			return err
		}

		// 认捐落账后在同一事务内评估里程碑触发
		return p.raffleLogic.EvaluateMilestoneTx(ctx, tx, &campaign)
	})
	if err != nil {
		return nil, err
	}

	metrics.PledgesTotal.Inc()
	metrics.PledgedAmountTotal.Add(float64(grossAmount))

	// 新开的随机数请求在事务提交后送往预言机
	p.requestLogic.ForwardPending(ctx)

	return &pledge, nil
}

// GetCampaignPledges 获取活动认捐记录（分页）
func (p *PledgeLogic) GetCampaignPledges(campaignId int64, page, pageSize int) ([]model.PledgeModel, int64, error) {
	var pledges []model.PledgeModel
	var total int64

	query := p.db.Model(&model.PledgeModel{}).Where("campaign_id = ?", campaignId)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取认捐总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Order("id DESC").Offset(offset).Limit(pageSize).Find(&pledges).Error; err != nil {
		return nil, 0, fmt.Errorf("获取认捐记录失败: %w", err)
	}

	return pledges, total, nil
}

// GetUserPledges 获取用户的认捐记录
func (p *PledgeLogic) GetUserPledges(pledger string) ([]model.PledgeModel, error) {
	var pledges []model.PledgeModel
	if err := p.db.Where("pledger_address = ?", pledger).Order("id ASC").Find(&pledges).Error; err != nil {
		return nil, fmt.Errorf("获取用户认捐记录失败: %w", err)
	}
	return pledges, nil
}

// TotalPledgedByUser 用户累计认捐总额（含费用）
func (p *PledgeLogic) TotalPledgedByUser(pledger string) (int64, error) {
	var total int64
	err := p.db.Model(&model.PledgeModel{}).
		Where("pledger_address = ?", pledger).
		Select("COALESCE(SUM(gross_amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("获取用户认捐总额失败: %w", err)
	}
	return total, nil
}
