package logic

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/blues/pledge/internal/model"
	"github.com/stretchr/testify/require"
)

func testCandidates() []model.Candidate {
	return []model.Candidate{
		{Address: "0xalice", Weight: 60},
		{Address: "0xbob", Weight: 40},
	}
}

func TestOpenRequestGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fundReserve(t, 100)

	// 空快照或权重全为零都拒绝
	_, err := env.requests.OpenTx(ctx, env.db, model.CampaignRaffleScope(1), nil)
	require.ErrorIs(t, err, model.ErrEmptyCandidateSet)

	_, err = env.requests.OpenTx(ctx, env.db, model.CampaignRaffleScope(1),
		[]model.Candidate{{Address: "0xa", Weight: 0}})
	require.ErrorIs(t, err, model.ErrEmptyCandidateSet)

	request, err := env.requests.OpenTx(ctx, env.db, model.CampaignRaffleScope(1), testCandidates())
	require.NoError(t, err)
	require.Equal(t, model.RequestStatusPending, request.Status)
	require.NotEmpty(t, request.CorrelationId)

	// 费用在开启时扣除
	require.Equal(t, int64(90), env.feePool(t).VrfReserve)

	// 同一作用域最多一条pending
	_, err = env.requests.OpenTx(ctx, env.db, model.CampaignRaffleScope(1), testCandidates())
	require.ErrorIs(t, err, model.ErrRequestAlreadyPending)

	// 其他作用域不受影响
	_, err = env.requests.OpenTx(ctx, env.db, model.CampaignRaffleScope(2), testCandidates())
	require.NoError(t, err)
}

func TestOpenRequestInsufficientReserve(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fundReserve(t, 5)

	_, err := env.requests.OpenTx(ctx, env.db, model.CampaignRaffleScope(1), testCandidates())
	require.ErrorIs(t, err, model.ErrInsufficientReserve)

	// 失败的开启不扣费
	require.Equal(t, int64(5), env.feePool(t).VrfReserve)
}

func TestOpenRequestReserveBoundary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fundReserve(t, 15)

	// 第一笔扣费后余额只剩5，不够第二笔
	_, err := env.requests.OpenTx(ctx, env.db, model.CampaignRaffleScope(1), testCandidates())
	require.NoError(t, err)
	require.Equal(t, int64(5), env.feePool(t).VrfReserve)

	// 守卫式扣减拒绝第二笔且余额不变，储备金不会被透支
	_, err = env.requests.OpenTx(ctx, env.db, model.CampaignRaffleScope(2), testCandidates())
	require.ErrorIs(t, err, model.ErrInsufficientReserve)
	require.Equal(t, int64(5), env.feePool(t).VrfReserve)
}

func TestForwardPendingRetries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fundReserve(t, 100)

	env.oracle.sendErr = errors.New("rpc down")
	request, err := env.requests.OpenTx(ctx, env.db, model.CampaignRaffleScope(1), testCandidates())
	require.NoError(t, err)

	// 转发失败只记录，请求保持未转发
	env.requests.ForwardPending(ctx)
	var reloaded model.RandomnessRequestModel
	require.NoError(t, env.db.First(&reloaded, request.Id).Error)
	require.False(t, reloaded.Forwarded)

	// 预言机恢复后重试成功
	env.oracle.sendErr = nil
	env.requests.ForwardPending(ctx)
	require.NoError(t, env.db.First(&reloaded, request.Id).Error)
	require.True(t, reloaded.Forwarded)
	require.Equal(t, []string{request.CorrelationId}, env.oracle.requested)

	// 已转发的请求不会重复送出
	env.requests.ForwardPending(ctx)
	require.Len(t, env.oracle.requested, 1)
}

func TestFulfillUnknownAndDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fundReserve(t, 100)

	err := env.requests.Fulfill(ctx, "no-such-correlation", big.NewInt(7))
	require.ErrorIs(t, err, model.ErrUnknownRequest)

	request, err := env.requests.OpenTx(ctx, env.db, model.CampaignRaffleScope(1), testCandidates())
	require.NoError(t, err)

	require.NoError(t, env.requests.Fulfill(ctx, request.CorrelationId, big.NewInt(7)))

	// 重复回调被拒绝，已定的结果不变
	err = env.requests.Fulfill(ctx, request.CorrelationId, big.NewInt(99))
	require.ErrorIs(t, err, model.ErrAlreadyFulfilled)

	var reloaded model.RandomnessRequestModel
	require.NoError(t, env.db.First(&reloaded, request.Id).Error)
	require.Equal(t, model.RequestStatusFulfilled, reloaded.Status)
	require.Equal(t, "7", reloaded.RandomValue)
	require.NotNil(t, reloaded.FulfilledAt)
}

func TestFulfillCampaignRaffle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fundReserve(t, 1000)
	campaign := env.createCampaign(t, "0xcreator", 10000)

	// 触发里程碑抽奖
	_, err := env.pledges.RecordPledge(ctx, campaign.Id, "0xwhale", 10000)
	require.NoError(t, err)
	pending := env.pendingRequests(t)
	require.Len(t, pending, 1)

	var stateBefore model.CampaignRaffleStateModel
	require.NoError(t, env.db.First(&stateBefore, "campaign_id = ?", campaign.Id).Error)
	require.Equal(t, int64(150), stateBefore.PoolAmount)

	require.NoError(t, env.requests.Fulfill(ctx, pending[0].CorrelationId, big.NewInt(3)))

	// 整池派发，池清零
	var stateAfter model.CampaignRaffleStateModel
	require.NoError(t, env.db.First(&stateAfter, "campaign_id = ?", campaign.Id).Error)
	require.Equal(t, int64(0), stateAfter.PoolAmount)
	require.Equal(t, int64(1), env.eventCount(t, model.EventCampaignRaffleWinner))

	// 派发在账本里留下持久的支出流水
	var payouts []model.RafflePayoutModel
	require.NoError(t, env.db.Find(&payouts).Error)
	require.Len(t, payouts, 1)
	require.Equal(t, model.CampaignRaffleScope(campaign.Id), payouts[0].Scope)
	require.Equal(t, campaign.Id, payouts[0].CampaignId)
	require.Equal(t, "0xwhale", payouts[0].WinnerAddress)
	require.Equal(t, int64(150), payouts[0].Amount)

	// 回调后作用域解锁，可开启新请求
	_, err = env.requests.OpenTx(ctx, env.db, model.CampaignRaffleScope(campaign.Id), testCandidates())
	require.NoError(t, err)
}

func TestFulfillPrizeDistribution(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fundReserve(t, 1000)
	campaign := env.createCampaign(t, "0xcreator", 10000000)

	_, err := env.pledges.RecordPledge(ctx, campaign.Id, "0xalice", 6000)
	require.NoError(t, err)
	_, err = env.pledges.RecordPledge(ctx, campaign.Id, "0xbob", 4000)
	require.NoError(t, err)

	_, err = env.prizes.DepositFungible(ctx, campaign.Id, "0xtoken", 500, "0xsponsor", "")
	require.NoError(t, err)
	_, err = env.prizes.DepositNonFungible(ctx, campaign.Id, "0xnft", 42, "0xsponsor", "")
	require.NoError(t, err)

	require.NoError(t, env.campaigns.EndCampaign(ctx, campaign.Id, "0xcreator"))
	pending := env.pendingRequests(t)
	require.Len(t, pending, 1)
	require.Equal(t, model.PrizeDistributionScope(campaign.Id), pending[0].Scope)

	require.NoError(t, env.requests.Fulfill(ctx, pending[0].CorrelationId, big.NewInt(123456789)))

	// 每个奖品独立选取中奖者并转出
	prizes, err := env.prizes.GetCampaignPrizes(campaign.Id)
	require.NoError(t, err)
	require.Len(t, prizes, 2)
	for _, prize := range prizes {
		require.True(t, prize.Claimed)
		require.NotEmpty(t, prize.WinnerAddress)
	}
	require.Len(t, env.vault.outs, 2)
	require.Equal(t, int64(2), env.eventCount(t, model.EventCampaignPrizeWinner))

	updated := env.reloadCampaign(t, campaign.Id)
	require.True(t, updated.PrizesClaimed)

	// 结果可复算：同一随机数和快照派生出相同的中奖者
	candidates, err := model.DecodeCandidates(pending[0].Candidates)
	require.NoError(t, err)
	for i, prize := range prizes {
		want, err := SelectWinner(candidates, DeriveRandom(big.NewInt(123456789), int64(i)))
		require.NoError(t, err)
		require.Equal(t, want, prize.WinnerAddress)
	}
}

func TestFulfillTransferOutFailureKeepsResult(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fundReserve(t, 1000)
	campaign := env.createCampaign(t, "0xcreator", 10000000)

	_, err := env.pledges.RecordPledge(ctx, campaign.Id, "0xalice", 6000)
	require.NoError(t, err)
	_, err = env.prizes.DepositFungible(ctx, campaign.Id, "0xtoken", 500, "0xsponsor", "")
	require.NoError(t, err)
	require.NoError(t, env.campaigns.EndCampaign(ctx, campaign.Id, "0xcreator"))

	pending := env.pendingRequests(t)
	require.Len(t, pending, 1)

	// 转出失败不回滚已定的中奖结果
	env.vault.outErr = errors.New("chain down")
	require.NoError(t, env.requests.Fulfill(ctx, pending[0].CorrelationId, big.NewInt(5)))

	prizes, err := env.prizes.GetCampaignPrizes(campaign.Id)
	require.NoError(t, err)
	require.True(t, prizes[0].Claimed)
	require.Equal(t, "0xalice", prizes[0].WinnerAddress)
	require.Empty(t, env.vault.outs)
}

func TestFundReserve(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.requests.FundReserve("0xfunder", 0)
	require.ErrorIs(t, err, model.ErrZeroAmount)

	balance, err := env.requests.FundReserve("0xfunder", 500)
	require.NoError(t, err)
	require.Equal(t, int64(500), balance)

	balance, err = env.requests.FundReserve("0xfunder", 250)
	require.NoError(t, err)
	require.Equal(t, int64(750), balance)
}
