package model

import (
	"time"
)

// FeePoolModel 全局费用池，单行记录，与认捐拆分在同一事务内更新
type FeePoolModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	UpdatedAt time.Time `json:"updated_at"`

	PlatformRevenue int64 `json:"platform_revenue" gorm:"default:0"`
	VrfReserve      int64 `json:"vrf_reserve" gorm:"default:0"`
	DailyRafflePool int64 `json:"daily_raffle_pool" gorm:"default:0"`

	// 上次每日抽奖的时间，零值表示尚未开奖
	LastDailyDrawAt time.Time `json:"last_daily_draw_at"`
}

// TableName 自定义表名
func (FeePoolModel) TableName() string {
	return "fee_pool"
}

// CampaignRaffleStateModel 单个活动的抽奖池
type CampaignRaffleStateModel struct {
	CampaignId int64     `json:"campaign_id" gorm:"primaryKey"`
	UpdatedAt  time.Time `json:"updated_at"`

	PoolAmount int64 `json:"pool_amount" gorm:"default:0"`
}

// TableName 自定义表名
func (CampaignRaffleStateModel) TableName() string {
	return "campaign_raffle_state"
}
