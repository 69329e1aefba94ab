package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sovseas/sse/internal/config"
	"github.com/sovseas/sse/internal/engine"
	"github.com/sovseas/sse/internal/logger"
)

const erc20ABI = `[
	{
		"constant": true,
		"inputs": [{"name": "owner", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [{"name": "to", "type": "address"}, {"name": "value", "type": "uint256"}],
		"name": "transfer",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [{"name": "from", "type": "address"}, {"name": "to", "type": "address"}, {"name": "value", "type": "uint256"}],
		"name": "transferFrom",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	}
]`

// ERC20Ledger 基于链上ERC20合约的代币账本。
// 资金池账户由客户端私钥控制，出账走 transfer；
// 其他账户的出账（补偿退回）依赖事先授权，走 transferFrom。
type ERC20Ledger struct {
	client *Client
	abi    abi.ABI
	tokens map[engine.Token]common.Address
}

// NewERC20Ledger 创建ERC20账本
func NewERC20Ledger(client *Client, tokens []config.TokenConfig) (*ERC20Ledger, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	addrs := make(map[engine.Token]common.Address, len(tokens))
	for _, t := range tokens {
		if t.Address == "" {
			continue
		}
		addrs[engine.Token(t.Symbol)] = common.HexToAddress(t.Address)
	}

	return &ERC20Ledger{client: client, abi: parsed, tokens: addrs}, nil
}

// BalanceOf 查询账户余额
func (l *ERC20Ledger) BalanceOf(ctx context.Context, token engine.Token, account engine.Account) (*big.Int, error) {
	addr, ok := l.tokens[token]
	if !ok {
		return nil, fmt.Errorf("未配置代币合约地址: %s", token)
	}

	data, err := l.abi.Pack("balanceOf", common.HexToAddress(string(account)))
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf call: %w", err)
	}

	result, err := l.client.Raw().CallContract(ctx, goethereum.CallMsg{To: &addr, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("balanceOf call failed: %w", err)
	}

	var balance *big.Int
	if err := l.abi.UnpackIntoInterface(&balance, "balanceOf", result); err != nil {
		return nil, fmt.Errorf("failed to unpack balanceOf result: %w", err)
	}
	return balance, nil
}

// Transfer 转账并等待交易上链
func (l *ERC20Ledger) Transfer(ctx context.Context, token engine.Token, from, to engine.Account, amount *big.Int) error {
	addr, ok := l.tokens[token]
	if !ok {
		return fmt.Errorf("未配置代币合约地址: %s", token)
	}

	auth, err := l.client.Auth()
	if err != nil {
		return fmt.Errorf("failed to create transactor: %w", err)
	}
	auth.Context = ctx

	fromAddr := common.HexToAddress(string(from))
	toAddr := common.HexToAddress(string(to))

	var data []byte
	if fromAddr == l.client.OperatorAddress() {
		data, err = l.abi.Pack("transfer", toAddr, amount)
	} else {
		data, err = l.abi.Pack("transferFrom", fromAddr, toAddr, amount)
	}
	if err != nil {
		return fmt.Errorf("failed to pack transfer call: %w", err)
	}

	tx, err := l.sendTransaction(ctx, auth, addr, data)
	if err != nil {
		return fmt.Errorf("failed to send transfer: %w", err)
	}

	logger.Info("Sent ERC20 transfer %s: %s -> %s amount %s (tx %s)",
		token, from, to, amount.String(), tx.Hash().Hex())
	return l.waitMined(ctx, tx)
}

// sendTransaction 构造并发送合约调用交易
func (l *ERC20Ledger) sendTransaction(ctx context.Context, auth *bind.TransactOpts, to common.Address, data []byte) (*types.Transaction, error) {
	nonce, err := l.client.Raw().PendingNonceAt(ctx, auth.From)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}
	gasPrice, err := l.client.Raw().SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	gasLimit, err := l.client.Raw().EstimateGas(ctx, goethereum.CallMsg{From: auth.From, To: &to, Data: data})
	if err != nil {
		gasLimit = 120000
	}

	tx := types.NewTransaction(nonce, to, big.NewInt(0), gasLimit, gasPrice, data)
	signed, err := auth.Signer(auth.From, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := l.client.Raw().SendTransaction(ctx, signed); err != nil {
		return nil, err
	}
	return signed, nil
}

// waitMined 轮询交易回执直到上链或上下文取消
func (l *ERC20Ledger) waitMined(ctx context.Context, tx *types.Transaction) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		receipt, err := l.client.Raw().TransactionReceipt(ctx, tx.Hash())
		if err == nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return fmt.Errorf("交易执行失败: %s", tx.Hash().Hex())
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// MemoryLedger 进程内代币账本，链上结算关闭时使用
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[engine.Token]map[engine.Account]*big.Int
}

// NewMemoryLedger 创建进程内账本
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[engine.Token]map[engine.Account]*big.Int)}
}

// Credit 给账户入账，供托管资金池初始化和测试使用
func (l *MemoryLedger) Credit(token engine.Token, account engine.Account, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance(token, account).Add(l.balance(token, account), amount)
}

// Transfer 账户间转账
func (l *MemoryLedger) Transfer(ctx context.Context, token engine.Token, from, to engine.Account, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	src := l.balance(token, from)
	if src.Cmp(amount) < 0 {
		return fmt.Errorf("账户 %s 余额不足", from)
	}
	src.Sub(src, amount)
	dst := l.balance(token, to)
	dst.Add(dst, amount)
	return nil
}

// BalanceOf 查询账户余额
func (l *MemoryLedger) BalanceOf(ctx context.Context, token engine.Token, account engine.Account) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.balance(token, account)), nil
}

func (l *MemoryLedger) balance(token engine.Token, account engine.Account) *big.Int {
	accounts, ok := l.balances[token]
	if !ok {
		accounts = make(map[engine.Account]*big.Int)
		l.balances[token] = accounts
	}
	b, ok := accounts[account]
	if !ok {
		b = new(big.Int)
		accounts[account] = b
	}
	return b
}
