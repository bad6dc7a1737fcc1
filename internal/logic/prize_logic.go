package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/blues/pledge/internal/logger"
	"github.com/blues/pledge/internal/model"
	"gorm.io/gorm"
)

// PrizeLogic 奖品托管业务逻辑
type PrizeLogic struct {
	db           *gorm.DB
	vault        AssetVault
	eventLogic   *EventLogic
	requestLogic *RequestLogic
}

// NewPrizeLogic 创建奖品托管业务逻辑
func NewPrizeLogic(db *gorm.DB, vault AssetVault, eventLogic *EventLogic, requestLogic *RequestLogic) *PrizeLogic {
	return &PrizeLogic{
		db:           db,
		vault:        vault,
		eventLogic:   eventLogic,
		requestLogic: requestLogic,
	}
}

// DepositFungible 托管同质化奖品。两段式：资产授权在外部完成，
// 此处先执行实际转入，成功后才写入奖品记录——转入失败不留任何状态。
func (p *PrizeLogic) DepositFungible(ctx context.Context, campaignId int64, asset string, amount int64, depositor, description string) (*model.PrizeModel, error) {
	if amount <= 0 {
		return nil, model.ErrInvalidPrizeParams
	}
	return p.deposit(ctx, &model.PrizeModel{
		CampaignId:       campaignId,
		Kind:             model.PrizeKindFungible,
		AssetAddress:     asset,
		Amount:           amount,
		DepositorAddress: depositor,
		Description:      description,
	})
}

// DepositNonFungible 托管非同质化奖品
func (p *PrizeLogic) DepositNonFungible(ctx context.Context, campaignId int64, asset string, assetTokenId int64, depositor, description string) (*model.PrizeModel, error) {
	if asset == "" {
		return nil, model.ErrInvalidPrizeParams
	}
	return p.deposit(ctx, &model.PrizeModel{
		CampaignId:       campaignId,
		Kind:             model.PrizeKindNonFungible,
		AssetAddress:     asset,
		AssetTokenId:     assetTokenId,
		DepositorAddress: depositor,
		Description:      description,
	})
}

func (p *PrizeLogic) deposit(ctx context.Context, prize *model.PrizeModel) (*model.PrizeModel, error) {
	var campaign model.CampaignModel
	if err := p.db.First(&campaign, prize.CampaignId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}

	// 资产转入严格发生在任何状态写入之前
	if err := p.vault.TransferIn(ctx, prize.Kind, prize.AssetAddress, prize.DepositorAddress, prize.Amount, prize.AssetTokenId); err != nil {
		logger.Warn("Prize transfer-in failed (campaign %d, depositor %s): %v", prize.CampaignId, prize.DepositorAddress, err)
		return nil, model.ErrTransferFailed
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(prize).Error; err != nil {
			return fmt.Errorf("failed to record prize: %w", err)
		}
		return p.eventLogic.EmitTx(tx, model.EventPrizeDeposited, prize.CampaignId, map[string]interface{}{
			"prize_id":  prize.Id,
			"kind":      prize.Kind,
			"depositor": prize.DepositorAddress,
		})
	})
	if err != nil {
		return nil, err
	}

	return prize, nil
}

// EnsureDistribution 为已结束且仍有未分发奖品的活动补开奖品分发请求。
// 幂等：奖品已全部处理或请求已在途时是无操作，不报错。
func (p *PrizeLogic) EnsureDistribution(ctx context.Context, campaignId int64) error {
	err := p.db.Transaction(func(tx *gorm.DB) error {
		var campaign model.CampaignModel
		if err := tx.First(&campaign, campaignId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrCampaignNotFound
			}
			return fmt.Errorf("failed to load campaign: %w", err)
		}
		if !campaign.Ended {
			return model.ErrCampaignNotEnded
		}
		if campaign.PrizesClaimed {
			return nil
		}

		var unclaimed int64
		if err := tx.Model(&model.PrizeModel{}).
			Where("campaign_id = ? AND claimed = ?", campaignId, false).
			Count(&unclaimed).Error; err != nil {
			return fmt.Errorf("failed to count unclaimed prizes: %w", err)
		}
		if unclaimed == 0 {
			return nil
		}

		scope := model.PrizeDistributionScope(campaignId)
		pending, err := p.requestLogic.HasPendingTx(tx, scope)
		if err != nil {
			return err
		}
		if pending {
			return nil
		}

		candidates, err := CampaignCandidatesTx(tx, campaignId)
		if err != nil {
			return err
		}

		_, err = p.requestLogic.OpenTx(ctx, tx, scope, candidates)
		return err
	})
	if err != nil {
		return err
	}

	p.requestLogic.ForwardPending(ctx)
	return nil
}

// GetCampaignPrizes 获取活动奖品列表
func (p *PrizeLogic) GetCampaignPrizes(campaignId int64) ([]model.PrizeModel, error) {
	var prizes []model.PrizeModel
	if err := p.db.Where("campaign_id = ?", campaignId).Order("id ASC").Find(&prizes).Error; err != nil {
		return nil, fmt.Errorf("获取奖品列表失败: %w", err)
	}
	return prizes, nil
}
