package model

import (
	"time"
)

// ChainCursorModel 回调监控的区块游标，单行记录。
// 一个批次全部处理成功后才前进，重启后从上次成功处理的区块继续。
type ChainCursorModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	UpdatedAt time.Time `json:"updated_at"`

	LastBlock int64 `json:"last_block" gorm:"default:0"`
}

// TableName 自定义表名
func (ChainCursorModel) TableName() string {
	return "chain_cursor"
}
