package model

import (
	"time"
)

// PrizeKind 奖品资产类型
type PrizeKind string

const (
	PrizeKindFungible    PrizeKind = "fungible"    // 同质化资产（按数量）
	PrizeKindNonFungible PrizeKind = "nonfungible" // 非同质化资产（按token id）
)

// PrizeModel 赞助商托管的奖品，分发后保留为历史记录
type PrizeModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId       int64     `json:"campaign_id" gorm:"not null;index"`
	Kind             PrizeKind `json:"kind" gorm:"not null"`
	AssetAddress     string    `json:"asset_address" gorm:"not null"`
	AssetTokenId     int64     `json:"asset_token_id"` // 仅非同质化奖品使用
	Amount           int64     `json:"amount"`         // 仅同质化奖品使用
	DepositorAddress string    `json:"depositor_address" gorm:"not null"`
	Description      string    `json:"description"`

	Claimed       bool   `json:"claimed" gorm:"default:false"`
	WinnerAddress string `json:"winner_address"`
}

// TableName 自定义表名
func (PrizeModel) TableName() string {
	return "prize"
}
