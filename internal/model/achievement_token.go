package model

import (
	"time"
)

// AchievementTokenModel 成就代币（灵魂绑定），铸造后所有权永不变更
type AchievementTokenModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	OwnerAddress string `json:"owner_address" gorm:"not null;index"`
	CampaignId   int64  `json:"campaign_id" gorm:"not null;index"`
	PledgeAmount int64  `json:"pledge_amount" gorm:"not null"`

	// 活动标题快照，活动记录被清理后元数据仍然自洽
	CampaignTitle string `json:"campaign_title"`
}

// TableName 自定义表名
func (AchievementTokenModel) TableName() string {
	return "achievement_token"
}
