package vault

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/blues/pledge/internal/config"
	"github.com/blues/pledge/internal/model"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// 标准资产合约ABI（仅托管需要的函数）
const erc20ABI = `[
	{"inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transferFrom","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

const erc721ABI = `[
	{"inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}],"name":"transferFrom","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

// EthVault 链上资产托管。奖品先授权（外部步骤）再转入托管地址，
// 分发时从托管地址转出给中奖者。
type EthVault struct {
	client      *ethclient.Client
	privateKey  *ecdsa.PrivateKey
	vaultAddr   common.Address
	chainId     *big.Int
	gasLimit    uint64
	minGasPrice *big.Int
	erc20       abi.ABI
	erc721      abi.ABI
}

func Init(cfg config.VrfConfig) (*EthVault, error) {
	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rpc node: %w", err)
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	parsed20, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 ABI: %w", err)
	}
	parsed721, err := abi.JSON(strings.NewReader(erc721ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc721 ABI: %w", err)
	}

	return &EthVault{
		client:      client,
		privateKey:  privateKey,
		vaultAddr:   crypto.PubkeyToAddress(privateKey.PublicKey),
		chainId:     big.NewInt(cfg.ChainId),
		gasLimit:    uint64(cfg.CallbackGasLimit),
		minGasPrice: new(big.Int).Mul(big.NewInt(cfg.MinGasPriceGwei), big.NewInt(1e9)),
		erc20:       parsed20,
		erc721:      parsed721,
	}, nil
}

// Address 托管地址
func (v *EthVault) Address() string {
	return v.vaultAddr.Hex()
}

// TransferIn 把奖品资产从存入人转入托管地址。
// 存入人必须已在外部完成授权，否则交易回滚并返回错误。
func (v *EthVault) TransferIn(ctx context.Context, kind model.PrizeKind, asset, from string, amount, tokenId int64) error {
	var calldata []byte
	var err error
	switch kind {
	case model.PrizeKindFungible:
		calldata, err = v.erc20.Pack("transferFrom", common.HexToAddress(from), v.vaultAddr, big.NewInt(amount))
	case model.PrizeKindNonFungible:
		calldata, err = v.erc721.Pack("transferFrom", common.HexToAddress(from), v.vaultAddr, big.NewInt(tokenId))
	default:
		return fmt.Errorf("unknown prize kind: %s", kind)
	}
	if err != nil {
		return fmt.Errorf("failed to pack transfer-in calldata: %w", err)
	}
	return v.execute(ctx, common.HexToAddress(asset), calldata)
}

// TransferOut 把奖品资产从托管地址转给中奖者
func (v *EthVault) TransferOut(ctx context.Context, kind model.PrizeKind, asset, to string, amount, tokenId int64) error {
	var calldata []byte
	var err error
	switch kind {
	case model.PrizeKindFungible:
		calldata, err = v.erc20.Pack("transfer", common.HexToAddress(to), big.NewInt(amount))
	case model.PrizeKindNonFungible:
		calldata, err = v.erc721.Pack("transferFrom", v.vaultAddr, common.HexToAddress(to), big.NewInt(tokenId))
	default:
		return fmt.Errorf("unknown prize kind: %s", kind)
	}
	if err != nil {
		return fmt.Errorf("failed to pack transfer-out calldata: %w", err)
	}
	return v.execute(ctx, common.HexToAddress(asset), calldata)
}

// execute 签名发送交易并等待回执，回执状态失败视为转账失败
func (v *EthVault) execute(ctx context.Context, contract common.Address, calldata []byte) error {
	nonce, err := v.client.PendingNonceAt(ctx, v.vaultAddr)
	if err != nil {
		return fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := v.client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("failed to get gas price: %w", err)
	}
	if gasPrice.Cmp(v.minGasPrice) < 0 {
		gasPrice = v.minGasPrice
	}

	tx := types.NewTransaction(nonce, contract, big.NewInt(0), v.gasLimit, gasPrice, calldata)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(v.chainId), v.privateKey)
	if err != nil {
		return fmt.Errorf("failed to sign transfer transaction: %w", err)
	}

	if err := v.client.SendTransaction(ctx, signedTx); err != nil {
		return fmt.Errorf("failed to send transfer transaction: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, v.client, signedTx)
	if err != nil {
		return fmt.Errorf("failed to wait for transfer receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transfer transaction reverted: %s", signedTx.Hash().Hex())
	}
	return nil
}
