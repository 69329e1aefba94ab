package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sovseas/sse/internal/config"
	"github.com/sovseas/sse/internal/engine"
)

const oracleABI = `[
	{
		"constant": true,
		"inputs": [{"name": "token", "type": "address"}, {"name": "amount", "type": "uint256"}],
		"name": "convert",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	}
]`

// ContractOracle 链上汇率预言机，换算经由汇率合约的只读调用
type ContractOracle struct {
	client     *Client
	oracleAddr common.Address
	abi        abi.ABI
	tokens     map[engine.Token]common.Address
}

// NewContractOracle 创建链上预言机
func NewContractOracle(client *Client, oracleContract string, tokens []config.TokenConfig) (*ContractOracle, error) {
	parsed, err := abi.JSON(strings.NewReader(oracleABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse oracle ABI: %w", err)
	}

	addrs := make(map[engine.Token]common.Address, len(tokens))
	for _, t := range tokens {
		if t.Address == "" {
			continue
		}
		addrs[engine.Token(t.Symbol)] = common.HexToAddress(t.Address)
	}

	return &ContractOracle{
		client:     client,
		oracleAddr: common.HexToAddress(oracleContract),
		abi:        parsed,
		tokens:     addrs,
	}, nil
}

// Convert 把代币原生金额换算成标准单位
func (o *ContractOracle) Convert(ctx context.Context, token engine.Token, amount *big.Int) (*big.Int, error) {
	tokenAddr, ok := o.tokens[token]
	if !ok {
		return nil, fmt.Errorf("未配置代币合约地址: %s", token)
	}

	data, err := o.abi.Pack("convert", tokenAddr, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack convert call: %w", err)
	}

	result, err := o.client.Raw().CallContract(ctx, goethereum.CallMsg{To: &o.oracleAddr, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("oracle call failed: %w", err)
	}

	var converted *big.Int
	if err := o.abi.UnpackIntoInterface(&converted, "convert", result); err != nil {
		return nil, fmt.Errorf("failed to unpack convert result: %w", err)
	}
	return converted, nil
}

// FixedRateOracle 固定汇率预言机，开发和链下模式使用
type FixedRateOracle struct {
	rates map[engine.Token]*big.Int
}

// NewFixedRateOracle 从配置创建固定汇率预言机，未配置汇率的代币按1处理
func NewFixedRateOracle(tokens []config.TokenConfig) *FixedRateOracle {
	rates := make(map[engine.Token]*big.Int, len(tokens))
	for _, t := range tokens {
		rate := t.Rate
		if rate <= 0 {
			rate = 1
		}
		rates[engine.Token(t.Symbol)] = big.NewInt(rate)
	}
	return &FixedRateOracle{rates: rates}
}

// Convert 按固定汇率换算
func (o *FixedRateOracle) Convert(ctx context.Context, token engine.Token, amount *big.Int) (*big.Int, error) {
	rate, ok := o.rates[token]
	if !ok {
		return nil, fmt.Errorf("未配置代币汇率: %s", token)
	}
	return new(big.Int).Mul(amount, rate), nil
}
