package logic

import (
	"context"

	"github.com/blues/pledge/internal/model"
)

// Oracle 外部可验证随机数预言机。
// RequestRandomness 发出请求后立即返回，随机数通过事件监控异步回调 Fulfill。
type Oracle interface {
	RequestRandomness(ctx context.Context, correlationId string) error
	EstimateRequestFee(ctx context.Context) (int64, error)
}

// AssetVault 外部资产托管。奖品的转入和转出都通过它完成，
// 转入严格发生在任何状态写入之前，转出严格发生在状态提交之后。
type AssetVault interface {
	TransferIn(ctx context.Context, kind model.PrizeKind, asset, from string, amount, tokenId int64) error
	TransferOut(ctx context.Context, kind model.PrizeKind, asset, to string, amount, tokenId int64) error
}
