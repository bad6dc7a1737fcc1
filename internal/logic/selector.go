package logic

import (
	"math/big"

	"github.com/blues/pledge/internal/model"
)

// SelectWinner 加权选取中奖者。
// 按快照顺序累加权重，target = randomValue mod totalWeight，
// 返回第一个累计权重超过target的候选人。
// 纯函数：相同的快照和随机数永远得到相同的结果。
func SelectWinner(candidates []model.Candidate, randomValue *big.Int) (string, error) {
	totalWeight := int64(0)
	for _, c := range candidates {
		if c.Weight > 0 {
			totalWeight += c.Weight
		}
	}
	if totalWeight <= 0 {
		return "", model.ErrEmptyCandidateSet
	}

	target := new(big.Int).Mod(randomValue, big.NewInt(totalWeight)).Int64()

	cumulative := int64(0)
	for _, c := range candidates {
		if c.Weight <= 0 {
			continue
		}
		cumulative += c.Weight
		if cumulative > target {
			return c.Address, nil
		}
	}

	// totalWeight > 0 时不可达
	return "", model.ErrEmptyCandidateSet
}
