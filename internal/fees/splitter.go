package fees

import (
	"errors"
	"fmt"
)

// 基点精度：10000 = 100%
const BpsDenominator = 10000

// Schedule 平台费率表，全部使用基点整数运算，避免浮点漂移
type Schedule struct {
	// 平台费占认捐总额的比例（500 = 5%）
	PlatformFeeBps int64

	// 平台费内部的拆分比例，四项之和必须等于10000
	VrfReserveBps      int64
	CampaignRaffleBps  int64
	DailyRaffleBps     int64
	PlatformRevenueBps int64
}

// Split 单笔认捐的拆分结果，各项之和恒等于认捐总额
type Split struct {
	Net             int64 // 计入活动的净额（含截断余数）
	VrfReserve      int64
	CampaignRaffle  int64
	DailyRaffle     int64
	PlatformRevenue int64
}

// NewSchedule 创建并校验费率表。拆分比例校验在配置加载时执行一次，不在每次认捐时执行。
func NewSchedule(platformFeeBps, vrfBps, campaignRaffleBps, dailyRaffleBps, platformRevenueBps int64) (*Schedule, error) {
	if platformFeeBps < 0 || platformFeeBps > BpsDenominator {
		return nil, fmt.Errorf("platform fee bps out of range: %d", platformFeeBps)
	}
	sum := vrfBps + campaignRaffleBps + dailyRaffleBps + platformRevenueBps
	if sum != BpsDenominator {
		return nil, fmt.Errorf("fee sub-rates must sum to %d, got %d", BpsDenominator, sum)
	}
	if vrfBps < 0 || campaignRaffleBps < 0 || dailyRaffleBps < 0 || platformRevenueBps < 0 {
		return nil, errors.New("fee sub-rates must not be negative")
	}
	return &Schedule{
		PlatformFeeBps:     platformFeeBps,
		VrfReserveBps:      vrfBps,
		CampaignRaffleBps:  campaignRaffleBps,
		DailyRaffleBps:     dailyRaffleBps,
		PlatformRevenueBps: platformRevenueBps,
	}, nil
}

// DefaultSchedule 参考费率：5%平台费，内部按 40/30/20/10 拆分
func DefaultSchedule() *Schedule {
	s, err := NewSchedule(500, 4000, 3000, 2000, 1000)
	if err != nil {
		panic(err)
	}
	return s
}

// SplitPledge 拆分一笔认捐。费用按基点截断取整，
// 截断产生的余数留在活动净额中，不会丢失。
func (s *Schedule) SplitPledge(gross int64) Split {
	fee := gross * s.PlatformFeeBps / BpsDenominator

	vrf := fee * s.VrfReserveBps / BpsDenominator
	raffle := fee * s.CampaignRaffleBps / BpsDenominator
	daily := fee * s.DailyRaffleBps / BpsDenominator
	revenue := fee * s.PlatformRevenueBps / BpsDenominator

	return Split{
		Net:             gross - vrf - raffle - daily - revenue,
		VrfReserve:      vrf,
		CampaignRaffle:  raffle,
		DailyRaffle:     daily,
		PlatformRevenue: revenue,
	}
}

// Fee 拆分出的费用总额
func (sp Split) Fee() int64 {
	return sp.VrfReserve + sp.CampaignRaffle + sp.DailyRaffle + sp.PlatformRevenue
}
