package model

import (
	"time"
)

// CampaignModel 众筹活动模型
type CampaignModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Title          string `json:"title" gorm:"not null" binding:"required"`
	Description    string `json:"description" gorm:"type:text"`
	ImageURL       string `json:"image_url"`
	CreatorAddress string `json:"creator_address" gorm:"not null;index"`

	// 众筹信息（金额为最小货币单位的整数）
	Goal       int64 `json:"goal" gorm:"not null" binding:"required,min=1"`
	PledgedNet int64 `json:"pledged_net" gorm:"default:0"`

	// 抽奖里程碑：下一个未触发的里程碑（基点，1000 = 10%），超过10000后不再触发
	NextMilestoneBps int64 `json:"next_milestone_bps" gorm:"default:1000"`

	// 状态标志
	Active        bool `json:"active" gorm:"default:true"`
	Ended         bool `json:"ended" gorm:"default:false"`
	Withdrawn     bool `json:"withdrawn" gorm:"default:false"`
	PrizesClaimed bool `json:"prizes_claimed" gorm:"default:false"`
}

// TableName 自定义表名
func (CampaignModel) TableName() string {
	return "campaign"
}

// ProgressBps 当前进度（基点）
func (c *CampaignModel) ProgressBps() int64 {
	if c.Goal <= 0 {
		return 0
	}
	return c.PledgedNet * 10000 / c.Goal
}
