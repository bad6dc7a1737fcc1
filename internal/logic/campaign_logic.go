package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/blues/pledge/internal/logger"
	"github.com/blues/pledge/internal/model"
	"gorm.io/gorm"
)

// CampaignLogic 活动业务逻辑
type CampaignLogic struct {
	db           *gorm.DB
	eventLogic   *EventLogic
	requestLogic *RequestLogic

	milestoneStepBps int64
}

// NewCampaignLogic 创建活动业务逻辑
func NewCampaignLogic(db *gorm.DB, eventLogic *EventLogic, requestLogic *RequestLogic, milestoneStepBps int64) *CampaignLogic {
	if milestoneStepBps <= 0 {
		milestoneStepBps = 1000
	}
	return &CampaignLogic{
		db:               db,
		eventLogic:       eventLogic,
		requestLogic:     requestLogic,
		milestoneStepBps: milestoneStepBps,
	}
}

// CreateCampaign 创建活动。标题、描述和图片引用是不透明字符串，此处不做校验。
func (c *CampaignLogic) CreateCampaign(creator, title, description, imageURL string, goal int64) (*model.CampaignModel, error) {
	if goal <= 0 {
		return nil, model.ErrInvalidGoal
	}

	campaign := model.CampaignModel{
		Title:            title,
		Description:      description,
		ImageURL:         imageURL,
		CreatorAddress:   creator,
		Goal:             goal,
		PledgedNet:       0,
		NextMilestoneBps: c.milestoneStepBps,
		Active:           true,
	}

	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&campaign).Error; err != nil {
			return fmt.Errorf("failed to create campaign: %w", err)
		}

		// 预建抽奖池记录
		state := model.CampaignRaffleStateModel{CampaignId: campaign.Id}
		if err := tx.Create(&state).Error; err != nil {
			return fmt.Errorf("failed to create campaign raffle state: %w", err)
		}

		return c.eventLogic.EmitTx(tx, model.EventCampaignCreated, campaign.Id, map[string]interface{}{
			"creator": creator,
			"title":   title,
			"goal":    goal,
		})
	})
	if err != nil {
		return nil, err
	}

	return &campaign, nil
}

// EndCampaign 结束活动（终态）。只有创建者可以调用。
// 如果活动有未分发的奖品且存在认捐者，在同一事务内开启奖品分发随机数请求。
func (c *CampaignLogic) EndCampaign(ctx context.Context, campaignId int64, caller string) error {
	err := c.db.Transaction(func(tx *gorm.DB) error {
		var campaign model.CampaignModel
		if err := tx.First(&campaign, campaignId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrCampaignNotFound
			}
			return fmt.Errorf("failed to load campaign: %w", err)
		}
		if campaign.CreatorAddress != caller {
			return model.ErrNotCreator
		}
		if campaign.Ended {
			return model.ErrAlreadyEnded
		}

		updates := map[string]interface{}{
			"ended":  true,
			"active": false,
		}
		if err := tx.Model(&campaign).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to end campaign: %w", err)
		}

		if err := c.eventLogic.EmitTx(tx, model.EventCampaignEnded, campaignId, nil); err != nil {
			return err
		}

		return c.schedulePrizeDistributionTx(ctx, tx, campaignId)
	})
	if err != nil {
		return err
	}

	c.requestLogic.ForwardPending(ctx)
	return nil
}

// schedulePrizeDistributionTx 有未分发奖品时开启奖品分发请求。
// 没有奖品、没有认捐者或储备金不足都不阻塞活动结束，
// 后续可通过分发接口补开请求。
func (c *CampaignLogic) schedulePrizeDistributionTx(ctx context.Context, tx *gorm.DB, campaignId int64) error {
	var unclaimed int64
	if err := tx.Model(&model.PrizeModel{}).
		Where("campaign_id = ? AND claimed = ?", campaignId, false).
		Count(&unclaimed).Error; err != nil {
		return fmt.Errorf("failed to count unclaimed prizes: %w", err)
	}
	if unclaimed == 0 {
		return nil
	}

	candidates, err := CampaignCandidatesTx(tx, campaignId)
	if err != nil {
		return err
	}

	scope := model.PrizeDistributionScope(campaignId)
	if _, err := c.requestLogic.OpenTx(ctx, tx, scope, candidates); err != nil {
		if errors.Is(err, model.ErrEmptyCandidateSet) ||
			errors.Is(err, model.ErrInsufficientReserve) ||
			errors.Is(err, model.ErrRequestAlreadyPending) {
			logger.Warn("Campaign %d prize distribution not scheduled: %v", campaignId, err)
			return nil
		}
		return err
	}
	return nil
}

// WithdrawCampaignFunds 创建者一次性提取活动净额
func (c *CampaignLogic) WithdrawCampaignFunds(campaignId int64, caller string) (int64, error) {
	var amount int64

	err := c.db.Transaction(func(tx *gorm.DB) error {
		var campaign model.CampaignModel
		if err := tx.First(&campaign, campaignId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrCampaignNotFound
			}
			return fmt.Errorf("failed to load campaign: %w", err)
		}
		if campaign.CreatorAddress != caller {
			return model.ErrNotCreator
		}
		if campaign.Withdrawn {
			return model.ErrAlreadyWithdrawn
		}

		amount = campaign.PledgedNet
		if err := tx.Model(&campaign).Update("withdrawn", true).Error; err != nil {
			return fmt.Errorf("failed to mark campaign withdrawn: %w", err)
		}

		return c.eventLogic.EmitTx(tx, model.EventFundsWithdrawn, campaignId, map[string]interface{}{
			"creator": caller,
			"amount":  amount,
		})
	})
	if err != nil {
		return 0, err
	}

	return amount, nil
}

// GetCampaign 获取活动详情
func (c *CampaignLogic) GetCampaign(id int64) (*model.CampaignModel, error) {
	var campaign model.CampaignModel
	if err := c.db.First(&campaign, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("获取活动详情失败: %w", err)
	}
	return &campaign, nil
}

// GetCampaigns 获取活动列表（分页）
func (c *CampaignLogic) GetCampaigns(page, pageSize int) ([]model.CampaignModel, int64, error) {
	var campaigns []model.CampaignModel
	var total int64

	if err := c.db.Model(&model.CampaignModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取活动总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := c.db.Order("id DESC").Offset(offset).Limit(pageSize).Find(&campaigns).Error; err != nil {
		return nil, 0, fmt.Errorf("获取活动列表失败: %w", err)
	}

	return campaigns, total, nil
}

// CampaignCount 活动总数
func (c *CampaignLogic) CampaignCount() (int64, error) {
	var count int64
	if err := c.db.Model(&model.CampaignModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("获取活动总数失败: %w", err)
	}
	return count, nil
}
