package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseScope(t *testing.T) {
	kind, id, err := ParseScope(CampaignRaffleScope(42))
	require.NoError(t, err)
	require.Equal(t, ScopeKindCampaignRaffle, kind)
	require.Equal(t, int64(42), id)

	kind, id, err = ParseScope(DailyRaffleScope(20300))
	require.NoError(t, err)
	require.Equal(t, ScopeKindDailyRaffle, kind)
	require.Equal(t, int64(20300), id)

	kind, id, err = ParseScope(PrizeDistributionScope(7))
	require.NoError(t, err)
	require.Equal(t, ScopeKindPrizeDistribution, kind)
	require.Equal(t, int64(7), id)
}

func TestParseScopeRejectsMalformed(t *testing.T) {
	for _, scope := range []string{"", "campaign_raffle", "campaign_raffle:", "campaign_raffle:x", "unknown_kind:1", ":5"} {
		_, _, err := ParseScope(scope)
		require.Error(t, err, "scope=%q", scope)
	}
}

func TestCandidateSnapshotCodec(t *testing.T) {
	candidates := []Candidate{
		{Address: "0xalice", Weight: 9500},
		{Address: "0xbob", Weight: 950},
	}

	encoded, err := EncodeCandidates(candidates)
	require.NoError(t, err)

	decoded, err := DecodeCandidates(encoded)
	require.NoError(t, err)
	require.Equal(t, candidates, decoded)

	_, err = DecodeCandidates("{broken")
	require.Error(t, err)
}
