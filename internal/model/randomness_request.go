package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RequestStatus 随机数请求状态
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"   // 等待预言机回调
	RequestStatusFulfilled RequestStatus = "fulfilled" // 已回调
)

// RandomnessRequestModel 随机数请求，每个作用域同时最多一条 pending 记录
type RandomnessRequestModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	Scope         string        `json:"scope" gorm:"not null;index"`
	CorrelationId string        `json:"correlation_id" gorm:"uniqueIndex;not null"`
	Status        RequestStatus `json:"status" gorm:"default:'pending';index"`

	// 是否已转发给预言机。请求行先落库，由转发任务送出（outbox模式），
	// 避免外部调用夹在未提交的状态变更中间
	Forwarded bool `json:"forwarded" gorm:"default:false"`

	// 候选人快照，请求发出时冻结，后续认捐不影响在途抽奖
	Candidates string `json:"candidates" gorm:"type:text;not null"`

	// 预言机返回的随机数（十进制字符串，可能超过int64范围）
	RandomValue string     `json:"random_value"`
	FulfilledAt *time.Time `json:"fulfilled_at"`
}

// TableName 自定义表名
func (RandomnessRequestModel) TableName() string {
	return "randomness_request"
}

// Candidate 加权候选人
type Candidate struct {
	Address string `json:"address"`
	Weight  int64  `json:"weight"`
}

// EncodeCandidates 序列化候选人快照
func EncodeCandidates(candidates []Candidate) (string, error) {
	data, err := json.Marshal(candidates)
	if err != nil {
		return "", fmt.Errorf("failed to encode candidate snapshot: %w", err)
	}
	return string(data), nil
}

// DecodeCandidates 反序列化候选人快照
func DecodeCandidates(data string) ([]Candidate, error) {
	var candidates []Candidate
	if err := json.Unmarshal([]byte(data), &candidates); err != nil {
		return nil, fmt.Errorf("failed to decode candidate snapshot: %w", err)
	}
	return candidates, nil
}

// 作用域类型
const (
	ScopeKindCampaignRaffle    = "campaign_raffle"
	ScopeKindDailyRaffle       = "daily_raffle"
	ScopeKindPrizeDistribution = "prize_distribution"
)

// ParseScope 解析作用域字符串，返回类型和关联id（活动id或日序号）
func ParseScope(scope string) (string, int64, error) {
	idx := strings.LastIndex(scope, ":")
	if idx <= 0 {
		return "", 0, fmt.Errorf("invalid scope: %q", scope)
	}
	kind := scope[:idx]
	id, err := strconv.ParseInt(scope[idx+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid scope id in %q: %w", scope, err)
	}
	switch kind {
	case ScopeKindCampaignRaffle, ScopeKindDailyRaffle, ScopeKindPrizeDistribution:
		return kind, id, nil
	}
	return "", 0, fmt.Errorf("unknown scope kind: %q", kind)
}

// CampaignRaffleScope 活动里程碑抽奖作用域
func CampaignRaffleScope(campaignId int64) string {
	return fmt.Sprintf("campaign_raffle:%d", campaignId)
}

// DailyRaffleScope 每日抽奖作用域
func DailyRaffleScope(day int64) string {
	return fmt.Sprintf("daily_raffle:%d", day)
}

// PrizeDistributionScope 奖品分发作用域
func PrizeDistributionScope(campaignId int64) string {
	return fmt.Sprintf("prize_distribution:%d", campaignId)
}
