package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sovseas/sse/internal/config"
	"github.com/sovseas/sse/internal/logger"
)

// 投票合约ABI（仅事件部分）
const votingABI = `[
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "campaignId", "type": "uint256"},
			{"indexed": true, "name": "projectId", "type": "uint256"},
			{"indexed": true, "name": "voter", "type": "address"},
			{"indexed": false, "name": "token", "type": "address"},
			{"indexed": false, "name": "amount", "type": "uint256"}
		],
		"name": "VoteCast",
		"type": "event"
	}
]`

// VoteCastEvent 链上投票事件
type VoteCastEvent struct {
	CampaignId int64
	ProjectId  int64
	Voter      string
	Token      string
	Amount     *big.Int
	TxHash     string
	BlockNum   int64
	LogIndex   int64
}

// Client 链客户端，持有资金池账户私钥
type Client struct {
	client        *ethclient.Client
	privateKey    *ecdsa.PrivateKey
	chainId       *big.Int
	votingAddr    common.Address
	votingABI     abi.ABI
	startBlock    int64
	confirmations int
}

// NewClient 创建链客户端
func NewClient(cfg config.ChainConfig) (*Client, error) {
	if cfg.RpcUrl == "" {
		return nil, fmt.Errorf("no RPC URL configured")
	}

	logger.Info("Connecting to chain (type: %s, id: %d, rpc: %s)", cfg.ChainType, cfg.ChainId, cfg.RpcUrl)
	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain: %w", err)
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(votingABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse voting ABI: %w", err)
	}

	return &Client{
		client:        client,
		privateKey:    privateKey,
		chainId:       big.NewInt(cfg.ChainId),
		votingAddr:    common.HexToAddress(cfg.VotingContract),
		votingABI:     parsedABI,
		startBlock:    cfg.StartBlock,
		confirmations: cfg.Confirmations,
	}, nil
}

// OperatorAddress 资金池账户地址
func (c *Client) OperatorAddress() common.Address {
	return crypto.PubkeyToAddress(c.privateKey.PublicKey)
}

// Auth 交易授权
func (c *Client) Auth() (*bind.TransactOpts, error) {
	return bind.NewKeyedTransactorWithChainID(c.privateKey, c.chainId)
}

// StartBlock 配置的监控起始区块
func (c *Client) StartBlock() int64 {
	return c.startBlock
}

// LatestConfirmedBlock 最新已确认区块号，扣除确认区块数避免处理可重组区块
func (c *Client) LatestConfirmedBlock(ctx context.Context) (int64, error) {
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, err
	}
	latest := header.Number.Int64() - int64(c.confirmations)
	if latest < 0 {
		latest = 0
	}
	return latest, nil
}

// VotingLogs 拉取投票合约在区块范围内的日志
func (c *Client) VotingLogs(ctx context.Context, fromBlock, toBlock int64) ([]types.Log, error) {
	query := goethereum.FilterQuery{
		FromBlock: big.NewInt(fromBlock),
		ToBlock:   big.NewInt(toBlock),
		Addresses: []common.Address{c.votingAddr},
	}
	return c.client.FilterLogs(ctx, query)
}

// ParseVoteCast 解析 VoteCast 日志，非该事件返回 nil
func (c *Client) ParseVoteCast(log types.Log) (*VoteCastEvent, error) {
	if len(log.Topics) == 0 || log.Topics[0] != c.votingABI.Events["VoteCast"].ID {
		return nil, nil
	}
	if len(log.Topics) < 4 {
		return nil, fmt.Errorf("invalid VoteCast event: insufficient topics")
	}

	values, err := c.votingABI.Events["VoteCast"].Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack VoteCast data: %w", err)
	}
	if len(values) < 2 {
		return nil, fmt.Errorf("invalid VoteCast event: insufficient data")
	}
	token, ok := values[0].(common.Address)
	if !ok {
		return nil, fmt.Errorf("invalid VoteCast token field")
	}
	amount, ok := values[1].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("invalid VoteCast amount field")
	}

	return &VoteCastEvent{
		CampaignId: new(big.Int).SetBytes(log.Topics[1].Bytes()).Int64(),
		ProjectId:  new(big.Int).SetBytes(log.Topics[2].Bytes()).Int64(),
		Voter:      common.BytesToAddress(log.Topics[3].Bytes()).Hex(),
		Token:      token.Hex(),
		Amount:     amount,
		TxHash:     log.TxHash.Hex(),
		BlockNum:   int64(log.BlockNumber),
		LogIndex:   int64(log.Index),
	}, nil
}

// VotingContract 投票合约地址
func (c *Client) VotingContract() common.Address {
	return c.votingAddr
}

// Raw 底层客户端
func (c *Client) Raw() *ethclient.Client {
	return c.client
}

// Close 关闭连接
func (c *Client) Close() {
	c.client.Close()
}
