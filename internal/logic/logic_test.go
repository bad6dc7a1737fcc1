package logic

import (
	"context"
	"testing"
	"time"

	"github.com/blues/pledge/internal/database"
	"github.com/blues/pledge/internal/fees"
	"github.com/blues/pledge/internal/model"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// fakeOracle 测试用预言机，费用固定，记录被转发的请求
type fakeOracle struct {
	fee       int64
	sendErr   error
	requested []string
}

func (f *fakeOracle) RequestRandomness(ctx context.Context, correlationId string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.requested = append(f.requested, correlationId)
	return nil
}

func (f *fakeOracle) EstimateRequestFee(ctx context.Context) (int64, error) {
	return f.fee, nil
}

// vaultCall 记录一次金库调用
type vaultCall struct {
	kind    model.PrizeKind
	asset   string
	addr    string
	amount  int64
	tokenId int64
}

// fakeVault 测试用资产金库
type fakeVault struct {
	inErr  error
	outErr error
	ins    []vaultCall
	outs   []vaultCall
}

func (f *fakeVault) TransferIn(ctx context.Context, kind model.PrizeKind, asset, from string, amount, tokenId int64) error {
	if f.inErr != nil {
		return f.inErr
	}
	f.ins = append(f.ins, vaultCall{kind: kind, asset: asset, addr: from, amount: amount, tokenId: tokenId})
	return nil
}

func (f *fakeVault) TransferOut(ctx context.Context, kind model.PrizeKind, asset, to string, amount, tokenId int64) error {
	if f.outErr != nil {
		return f.outErr
	}
	f.outs = append(f.outs, vaultCall{kind: kind, asset: asset, addr: to, amount: amount, tokenId: tokenId})
	return nil
}

type testEnv struct {
	db     *gorm.DB
	oracle *fakeOracle
	vault  *fakeVault
	clock  *clockwork.FakeClock

	events    *EventLogic
	tokens    *TokenLogic
	requests  *RequestLogic
	raffles   *RaffleLogic
	campaigns *CampaignLogic
	prizes    *PrizeLogic
	pledges   *PledgeLogic
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// 内存数据库必须保持单连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	oracle := &fakeOracle{fee: 10}
	vault := &fakeVault{}
	clock := clockwork.NewFakeClockAt(time.Now())

	events := NewEventLogic(db)
	tokens := NewTokenLogic(db)
	requests := NewRequestLogic(db, oracle, vault, events)
	raffles := NewRaffleLogic(db, requests, events, clock, 1000, 24*time.Hour)
	campaigns := NewCampaignLogic(db, events, requests, 1000)
	prizes := NewPrizeLogic(db, vault, events, requests)
	pledges := NewPledgeLogic(db, fees.DefaultSchedule(), tokens, events, raffles, requests)

	return &testEnv{
		db:        db,
		oracle:    oracle,
		vault:     vault,
		clock:     clock,
		events:    events,
		tokens:    tokens,
		requests:  requests,
		raffles:   raffles,
		campaigns: campaigns,
		prizes:    prizes,
		pledges:   pledges,
	}
}

func (e *testEnv) fundReserve(t *testing.T, amount int64) {
	t.Helper()
	_, err := e.requests.FundReserve("0xfunder", amount)
	require.NoError(t, err)
}

func (e *testEnv) createCampaign(t *testing.T, creator string, goal int64) *model.CampaignModel {
	t.Helper()
	campaign, err := e.campaigns.CreateCampaign(creator, "Test Campaign", "desc", "", goal)
	require.NoError(t, err)
	return campaign
}

func (e *testEnv) pendingRequests(t *testing.T) []model.RandomnessRequestModel {
	t.Helper()
	var requests []model.RandomnessRequestModel
	require.NoError(t, e.db.Where("status = ?", model.RequestStatusPending).
		Order("id ASC").Find(&requests).Error)
	return requests
}

func (e *testEnv) eventCount(t *testing.T, eventType string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&model.EventModel{}).
		Where("event_type = ?", eventType).Count(&count).Error)
	return count
}

func (e *testEnv) feePool(t *testing.T) *model.FeePoolModel {
	t.Helper()
	pool, err := e.requests.GetFeePool()
	require.NoError(t, err)
	return pool
}

func (e *testEnv) reloadCampaign(t *testing.T, id int64) *model.CampaignModel {
	t.Helper()
	campaign, err := e.campaigns.GetCampaign(id)
	require.NoError(t, err)
	return campaign
}
