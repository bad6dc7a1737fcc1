package logic

import (
	"context"
	"errors"
	"testing"

	"github.com/blues/pledge/internal/model"
	"github.com/stretchr/testify/require"
)

func TestDepositPrizeValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	campaign := env.createCampaign(t, "0xcreator", 1000000)

	_, err := env.prizes.DepositFungible(ctx, campaign.Id, "0xtoken", 0, "0xsponsor", "")
	require.ErrorIs(t, err, model.ErrInvalidPrizeParams)

	_, err = env.prizes.DepositNonFungible(ctx, campaign.Id, "", 1, "0xsponsor", "")
	require.ErrorIs(t, err, model.ErrInvalidPrizeParams)

	_, err = env.prizes.DepositFungible(ctx, 9999, "0xtoken", 100, "0xsponsor", "")
	require.ErrorIs(t, err, model.ErrCampaignNotFound)
}

func TestDepositPrizeTransferInFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	campaign := env.createCampaign(t, "0xcreator", 1000000)

	// 转入失败不留任何状态
	env.vault.inErr = errors.New("allowance too low")
	_, err := env.prizes.DepositFungible(ctx, campaign.Id, "0xtoken", 100, "0xsponsor", "")
	require.ErrorIs(t, err, model.ErrTransferFailed)

	prizes, err := env.prizes.GetCampaignPrizes(campaign.Id)
	require.NoError(t, err)
	require.Empty(t, prizes)
	require.Equal(t, int64(0), env.eventCount(t, model.EventPrizeDeposited))

	// 转入成功后才写入奖品记录
	env.vault.inErr = nil
	prize, err := env.prizes.DepositFungible(ctx, campaign.Id, "0xtoken", 100, "0xsponsor", "sponsor prize")
	require.NoError(t, err)
	require.False(t, prize.Claimed)
	require.Empty(t, prize.WinnerAddress)

	require.Len(t, env.vault.ins, 1)
	require.Equal(t, "0xsponsor", env.vault.ins[0].addr)
	require.Equal(t, int64(100), env.vault.ins[0].amount)
	require.Equal(t, int64(1), env.eventCount(t, model.EventPrizeDeposited))
}

func TestEnsureDistributionGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fundReserve(t, 1000)
	campaign := env.createCampaign(t, "0xcreator", 10000000)

	_, err := env.pledges.RecordPledge(ctx, campaign.Id, "0xalice", 1000)
	require.NoError(t, err)
	_, err = env.prizes.DepositFungible(ctx, campaign.Id, "0xtoken", 100, "0xsponsor", "")
	require.NoError(t, err)

	// 活动未结束不能分发
	err = env.prizes.EnsureDistribution(ctx, campaign.Id)
	require.ErrorIs(t, err, model.ErrCampaignNotEnded)

	require.NoError(t, env.campaigns.EndCampaign(ctx, campaign.Id, "0xcreator"))
	require.Len(t, env.pendingRequests(t), 1)

	// 已有在途请求时是无操作
	require.NoError(t, env.prizes.EnsureDistribution(ctx, campaign.Id))
	require.Len(t, env.pendingRequests(t), 1)

	err = env.prizes.EnsureDistribution(ctx, 9999)
	require.ErrorIs(t, err, model.ErrCampaignNotFound)
}

func TestEnsureDistributionRetriesAfterShortfall(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	campaign := env.createCampaign(t, "0xcreator", 10000000)

	// 结束时储备金不足，分发请求未开出
	env.oracle.fee = 1 << 40
	_, err := env.pledges.RecordPledge(ctx, campaign.Id, "0xalice", 1000)
	require.NoError(t, err)
	_, err = env.prizes.DepositFungible(ctx, campaign.Id, "0xtoken", 100, "0xsponsor", "")
	require.NoError(t, err)
	require.NoError(t, env.campaigns.EndCampaign(ctx, campaign.Id, "0xcreator"))
	require.Empty(t, env.pendingRequests(t))

	// 注资后补开成功
	env.oracle.fee = 10
	env.fundReserve(t, 1000)
	require.NoError(t, env.prizes.EnsureDistribution(ctx, campaign.Id))

	pending := env.pendingRequests(t)
	require.Len(t, pending, 1)
	require.Equal(t, model.PrizeDistributionScope(campaign.Id), pending[0].Scope)
	require.Contains(t, env.oracle.requested, pending[0].CorrelationId)
}
