package model

import (
	"time"
)

// RafflePayoutModel 抽奖派发记录。奖池扣减的持久凭证，
// 与事件表互相独立：事件面向观察者，这里是账本自己的支出流水。
type RafflePayoutModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	Scope         string `json:"scope" gorm:"not null;index"`
	CampaignId    int64  `json:"campaign_id" gorm:"index"` // 活动抽奖使用，每日抽奖为0
	Day           int64  `json:"day"`                      // 每日抽奖使用
	WinnerAddress string `json:"winner_address" gorm:"not null"`
	Amount        int64  `json:"amount" gorm:"not null"`
}

// TableName 自定义表名
func (RafflePayoutModel) TableName() string {
	return "raffle_payout"
}
