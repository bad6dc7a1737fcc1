package vrf

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/blues/pledge/internal/config"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/google/uuid"
)

// 随机数协调器合约ABI（简化版）
const coordinatorABI = `[
	{
		"inputs": [{"name": "correlationId", "type": "bytes32"}],
		"name": "requestRandomness",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "correlationId", "type": "bytes32"},
			{"indexed": false, "name": "randomValue", "type": "uint256"}
		],
		"name": "RandomnessFulfilled",
		"type": "event"
	}
]`

// Client 随机数协调器客户端
type Client struct {
	client           *ethclient.Client
	privateKey       *ecdsa.PrivateKey
	CoordinatorAddr  common.Address
	chainId          *big.Int
	callbackGasLimit int64
	minGasPrice      *big.Int
	coordinatorABI   abi.ABI
	fulfilledTopic   common.Hash
}

// Fulfillment 协调器回调事件
type Fulfillment struct {
	CorrelationId string
	RandomValue   *big.Int
	BlockNum      int64
}

func Init(cfg config.VrfConfig) (*Client, error) {
	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rpc node: %w", err)
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(coordinatorABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse coordinator ABI: %w", err)
	}

	return &Client{
		client:           client,
		privateKey:       privateKey,
		CoordinatorAddr:  common.HexToAddress(cfg.CoordinatorAddr),
		chainId:          big.NewInt(cfg.ChainId),
		callbackGasLimit: cfg.CallbackGasLimit,
		minGasPrice:      new(big.Int).Mul(big.NewInt(cfg.MinGasPriceGwei), big.NewInt(1e9)),
		coordinatorABI:   parsedABI,
		fulfilledTopic:   parsedABI.Events["RandomnessFulfilled"].ID,
	}, nil
}

// EstimateRequestFee 估算一次随机数请求的费用。
// Gas价格取节点建议值，但不低于配置的下限（协调器拒绝低价回调）。
func (c *Client) EstimateRequestFee(ctx context.Context) (int64, error) {
	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get gas price: %w", err)
	}
	if gasPrice.Cmp(c.minGasPrice) < 0 {
		gasPrice = c.minGasPrice
	}

	fee := new(big.Int).Mul(gasPrice, big.NewInt(c.callbackGasLimit))
	if !fee.IsInt64() {
		return 0, fmt.Errorf("estimated fee overflows int64: %s", fee)
	}
	return fee.Int64(), nil
}

// RequestRandomness 向协调器发起请求交易，发出后立即返回，
// 随机数通过 RandomnessFulfilled 事件异步送达
func (c *Client) RequestRandomness(ctx context.Context, correlationId string) error {
	calldata, err := c.coordinatorABI.Pack("requestRandomness", CorrelationToBytes32(correlationId))
	if err != nil {
		return fmt.Errorf("failed to pack request calldata: %w", err)
	}

	fromAddr := crypto.PubkeyToAddress(c.privateKey.PublicKey)
	nonce, err := c.client.PendingNonceAt(ctx, fromAddr)
	if err != nil {
		return fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("failed to get gas price: %w", err)
	}
	if gasPrice.Cmp(c.minGasPrice) < 0 {
		gasPrice = c.minGasPrice
	}

	tx := types.NewTransaction(nonce, c.CoordinatorAddr, big.NewInt(0), uint64(c.callbackGasLimit), gasPrice, calldata)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(c.chainId), c.privateKey)
	if err != nil {
		return fmt.Errorf("failed to sign request transaction: %w", err)
	}

	if err := c.client.SendTransaction(ctx, signedTx); err != nil {
		return fmt.Errorf("failed to send request transaction: %w", err)
	}
	return nil
}

// LatestBlock 获取最新区块号
func (c *Client) LatestBlock(ctx context.Context) (int64, error) {
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, err
	}
	return header.Number.Int64(), nil
}

// FilterFulfillments 获取区块范围内协调器的回调事件
func (c *Client) FilterFulfillments(ctx context.Context, fromBlock, toBlock int64) ([]Fulfillment, error) {
	query := ethereum.FilterQuery{
		FromBlock: big.NewInt(fromBlock),
		ToBlock:   big.NewInt(toBlock),
		Addresses: []common.Address{c.CoordinatorAddr},
		Topics:    [][]common.Hash{{c.fulfilledTopic}},
	}

	logs, err := c.client.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to filter coordinator logs: %w", err)
	}

	fulfillments := make([]Fulfillment, 0, len(logs))
	for _, l := range logs {
		f, err := c.parseFulfillment(l)
		if err != nil {
			return nil, err
		}
		fulfillments = append(fulfillments, f)
	}
	return fulfillments, nil
}

func (c *Client) parseFulfillment(l types.Log) (Fulfillment, error) {
	if len(l.Topics) < 2 {
		return Fulfillment{}, fmt.Errorf("malformed fulfillment log in block %d", l.BlockNumber)
	}

	correlationId, err := Bytes32ToCorrelation(l.Topics[1])
	if err != nil {
		return Fulfillment{}, err
	}

	values, err := c.coordinatorABI.Unpack("RandomnessFulfilled", l.Data)
	if err != nil {
		return Fulfillment{}, fmt.Errorf("failed to unpack fulfillment: %w", err)
	}
	randomValue, ok := values[0].(*big.Int)
	if !ok {
		return Fulfillment{}, fmt.Errorf("unexpected random value type in block %d", l.BlockNumber)
	}

	return Fulfillment{
		CorrelationId: correlationId,
		RandomValue:   randomValue,
		BlockNum:      int64(l.BlockNumber),
	}, nil
}

// CorrelationToBytes32 把uuid关联id编码为bytes32（左补零）
func CorrelationToBytes32(correlationId string) common.Hash {
	id, err := uuid.Parse(correlationId)
	if err != nil {
		// 非uuid的关联id直接哈希，保持单射
		return common.BytesToHash(crypto.Keccak256([]byte(correlationId)))
	}
	return common.BytesToHash(common.LeftPadBytes(id[:], 32))
}

// Bytes32ToCorrelation 从bytes32还原uuid关联id
func Bytes32ToCorrelation(h common.Hash) (string, error) {
	id, err := uuid.FromBytes(h[16:])
	if err != nil {
		return "", fmt.Errorf("failed to decode correlation id: %w", err)
	}
	return id.String(), nil
}
