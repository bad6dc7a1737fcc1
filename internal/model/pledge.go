package model

import (
	"time"
)

// PledgeModel 认捐记录，写入后不可修改
type PledgeModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	CampaignId     int64  `json:"campaign_id" gorm:"not null;index"`
	PledgerAddress string `json:"pledger_address" gorm:"not null;index"`
	GrossAmount    int64  `json:"gross_amount" gorm:"not null"`
	NetAmount      int64  `json:"net_amount" gorm:"not null"`

	// 认捐时铸造的成就代币
	TokenId int64 `json:"token_id" gorm:"uniqueIndex"`
}

// TableName 自定义表名
func (PledgeModel) TableName() string {
	return "pledge"
}
