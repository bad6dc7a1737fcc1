package model

import (
	"time"
)

// 对外发布的事实类型，供观察方（前端、排行榜）消费，核心逻辑不读取
const (
	EventCampaignCreated         = "CampaignCreated"
	EventPledgeMade              = "PledgeMade"
	EventCampaignRaffleRequested = "CampaignRaffleRequested"
	EventCampaignRaffleWinner    = "CampaignRaffleWinner"
	EventCampaignPrizeWinner     = "CampaignPrizeWinner"
	EventDailyRaffleRequested    = "DailyRaffleRequested"
	EventDailyRaffleWinner       = "DailyRaffleWinner"
	EventCampaignEnded           = "CampaignEnded"
	EventFundsWithdrawn          = "FundsWithdrawn"
	EventPrizeDeposited          = "PrizeDeposited"
)

// EventModel 事实记录，只追加
type EventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	EventType  string `json:"event_type" gorm:"not null;index"`
	CampaignId int64  `json:"campaign_id" gorm:"index"`
	Data       string `json:"data" gorm:"type:text"`
}

// TableName 自定义表名
func (EventModel) TableName() string {
	return "event"
}
