package logic

import (
	"math/big"
	"testing"

	"github.com/blues/pledge/internal/model"
	"github.com/stretchr/testify/require"
)

func TestSelectWinnerDeterministic(t *testing.T) {
	candidates := []model.Candidate{
		{Address: "0xa", Weight: 1},
		{Address: "0xb", Weight: 1},
		{Address: "0xc", Weight: 1},
	}

	// target = randomValue mod 3，按快照顺序落在对应区间
	for rand, want := range map[int64]string{0: "0xa", 1: "0xb", 2: "0xc", 3: "0xa", 7: "0xb"} {
		winner, err := SelectWinner(candidates, big.NewInt(rand))
		require.NoError(t, err)
		require.Equal(t, want, winner, "rand=%d", rand)
	}

	// 相同输入永远得到相同结果
	first, err := SelectWinner(candidates, big.NewInt(12345))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := SelectWinner(candidates, big.NewInt(12345))
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestSelectWinnerWeighted(t *testing.T) {
	candidates := []model.Candidate{
		{Address: "0xa", Weight: 9},
		{Address: "0xb", Weight: 1},
	}

	// target 0..8 → a，9 → b
	winner, err := SelectWinner(candidates, big.NewInt(8))
	require.NoError(t, err)
	require.Equal(t, "0xa", winner)

	winner, err = SelectWinner(candidates, big.NewInt(9))
	require.NoError(t, err)
	require.Equal(t, "0xb", winner)
}

func TestSelectWinnerSkipsNonPositiveWeights(t *testing.T) {
	candidates := []model.Candidate{
		{Address: "0xzero", Weight: 0},
		{Address: "0xa", Weight: 5},
		{Address: "0xneg", Weight: -3},
	}

	for rand := int64(0); rand < 5; rand++ {
		winner, err := SelectWinner(candidates, big.NewInt(rand))
		require.NoError(t, err)
		require.Equal(t, "0xa", winner)
	}
}

func TestSelectWinnerEmptySet(t *testing.T) {
	_, err := SelectWinner(nil, big.NewInt(1))
	require.ErrorIs(t, err, model.ErrEmptyCandidateSet)

	_, err = SelectWinner([]model.Candidate{{Address: "0xa", Weight: 0}}, big.NewInt(1))
	require.ErrorIs(t, err, model.ErrEmptyCandidateSet)
}

func TestSelectWinnerDistribution(t *testing.T) {
	candidates := []model.Candidate{
		{Address: "0xa", Weight: 1},
		{Address: "0xb", Weight: 1},
		{Address: "0xc", Weight: 1},
	}

	// 派生随机值下各候选人的中奖次数应落在期望值1000附近
	// （±80约为三倍标准差，派生序列是确定的，结果可复现）
	counts := map[string]int{}
	seed := big.NewInt(987654321)
	for i := int64(0); i < 3000; i++ {
		winner, err := SelectWinner(candidates, DeriveRandom(seed, i))
		require.NoError(t, err)
		counts[winner]++
	}

	for _, c := range candidates {
		require.InDelta(t, 1000, counts[c.Address], 80, "address %s counts %v", c.Address, counts)
	}
}

func TestDeriveRandom(t *testing.T) {
	seed := big.NewInt(42)

	// 确定性
	require.Equal(t, DeriveRandom(seed, 0).String(), DeriveRandom(seed, 0).String())

	// 不同索引派生不同的值
	require.NotEqual(t, DeriveRandom(seed, 0).String(), DeriveRandom(seed, 1).String())
	require.NotEqual(t, DeriveRandom(seed, 1).String(), DeriveRandom(seed, 2).String())

	// 不同种子派生不同的值
	require.NotEqual(t, DeriveRandom(big.NewInt(43), 0).String(), DeriveRandom(seed, 0).String())
}
