package logic

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/blues/pledge/internal/model"
	"github.com/stretchr/testify/require"
)

func TestDrawDailyEmptyPool(t *testing.T) {
	env := newTestEnv(t)

	// 没有认捐，每日池为空
	_, err := env.raffles.DrawDaily(context.Background())
	require.ErrorIs(t, err, model.ErrEmptyPool)
}

func TestDrawDailyWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fundReserve(t, 1000)
	campaign := env.createCampaign(t, "0xcreator", 100000000)

	// 认捐填充每日池（10000的2%费用份额 = 100）
	_, err := env.pledges.RecordPledge(ctx, campaign.Id, "0xalice", 10000)
	require.NoError(t, err)
	require.Equal(t, int64(100), env.feePool(t).DailyRafflePool)

	request, err := env.raffles.DrawDaily(ctx)
	require.NoError(t, err)
	require.Equal(t, model.RequestStatusPending, request.Status)
	require.Contains(t, env.oracle.requested, request.CorrelationId)
	require.Equal(t, int64(1), env.eventCount(t, model.EventDailyRaffleRequested))

	// 窗口未满24小时
	_, err = env.raffles.DrawDaily(ctx)
	require.ErrorIs(t, err, model.ErrTooEarly)

	env.clock.Advance(23 * time.Hour)
	_, err = env.raffles.DrawDaily(ctx)
	require.ErrorIs(t, err, model.ErrTooEarly)

	// 窗口已到但上一轮还没回调
	env.clock.Advance(2 * time.Hour)
	_, err = env.raffles.DrawDaily(ctx)
	require.ErrorIs(t, err, model.ErrRequestAlreadyPending)

	// 回调后池清零，下一轮因空池拒绝
	require.NoError(t, env.requests.Fulfill(ctx, request.CorrelationId, big.NewInt(11)))
	require.Equal(t, int64(0), env.feePool(t).DailyRafflePool)
	require.Equal(t, int64(1), env.eventCount(t, model.EventDailyRaffleWinner))

	// 派发记录进账本流水
	var payouts []model.RafflePayoutModel
	require.NoError(t, env.db.Find(&payouts).Error)
	require.Len(t, payouts, 1)
	require.Equal(t, request.Scope, payouts[0].Scope)
	require.Equal(t, "0xalice", payouts[0].WinnerAddress)
	require.Equal(t, int64(100), payouts[0].Amount)

	_, err = env.raffles.DrawDaily(ctx)
	require.ErrorIs(t, err, model.ErrEmptyPool)

	// 新认捐重新填池后可再次开奖
	_, err = env.pledges.RecordPledge(ctx, campaign.Id, "0xbob", 20000)
	require.NoError(t, err)

	next, err := env.raffles.DrawDaily(ctx)
	require.NoError(t, err)
	require.NotEqual(t, request.Scope, next.Scope)
}

func TestDrawDailyCandidateWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fundReserve(t, 1000)
	campaign := env.createCampaign(t, "0xcreator", 100000000)

	_, err := env.pledges.RecordPledge(ctx, campaign.Id, "0xalice", 10000)
	require.NoError(t, err)
	_, err = env.pledges.RecordPledge(ctx, campaign.Id, "0xbob", 5000)
	require.NoError(t, err)

	request, err := env.raffles.DrawDaily(ctx)
	require.NoError(t, err)

	// 快照为窗口内认捐者，权重为窗口内净认捐额
	candidates, err := model.DecodeCandidates(request.Candidates)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	require.Equal(t, "0xalice", candidates[0].Address)
	require.Equal(t, int64(9500), candidates[0].Weight)
	require.Equal(t, "0xbob", candidates[1].Address)
	require.Equal(t, int64(4750), candidates[1].Weight)
}
