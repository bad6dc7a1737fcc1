package logic

import (
	"encoding/json"
	"fmt"

	"github.com/blues/pledge/internal/model"
	"gorm.io/gorm"
)

// EventLogic 事实记录业务逻辑
type EventLogic struct {
	db *gorm.DB
}

// NewEventLogic 创建事实记录业务逻辑
func NewEventLogic(db *gorm.DB) *EventLogic {
	return &EventLogic{db: db}
}

// EmitTx 在指定事务内追加一条事实记录
func (e *EventLogic) EmitTx(tx *gorm.DB, eventType string, campaignId int64, data map[string]interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	event := model.EventModel{
		EventType:  eventType,
		CampaignId: campaignId,
		Data:       string(payload),
	}
	if err := tx.Create(&event).Error; err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}
	return nil
}

// GetEvents 获取事实列表
func (e *EventLogic) GetEvents(campaignId int64, eventType string, page, pageSize int) ([]model.EventModel, int64, error) {
	var events []model.EventModel
	var total int64

	query := e.db.Model(&model.EventModel{})
	if campaignId > 0 {
		query = query.Where("campaign_id = ?", campaignId)
	}
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事实总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Order("id DESC").Offset(offset).Limit(pageSize).Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事实列表失败: %w", err)
	}

	return events, total, nil
}
