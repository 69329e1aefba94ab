package chain

import (
	"context"
	"math/big"
	"testing"

	"github.com/sovseas/sse/internal/config"
	"github.com/sovseas/sse/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testToken = engine.Token("CELO")
	alice     = engine.Account("0xALICE")
	bob       = engine.Account("0xBOB")
)

func TestMemoryLedgerTransfer(t *testing.T) {
	ledger := NewMemoryLedger()
	ledger.Credit(testToken, alice, big.NewInt(1000))

	err := ledger.Transfer(context.Background(), testToken, alice, bob, big.NewInt(400))
	require.NoError(t, err)

	balance, err := ledger.BalanceOf(context.Background(), testToken, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(600), balance.Int64())

	balance, err = ledger.BalanceOf(context.Background(), testToken, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(400), balance.Int64())
}

func TestMemoryLedgerInsufficientBalance(t *testing.T) {
	ledger := NewMemoryLedger()
	ledger.Credit(testToken, alice, big.NewInt(100))

	err := ledger.Transfer(context.Background(), testToken, alice, bob, big.NewInt(200))
	require.Error(t, err)

	// 失败的转账不动余额
	balance, err := ledger.BalanceOf(context.Background(), testToken, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance.Int64())
}

func TestMemoryLedgerBalanceSnapshot(t *testing.T) {
	ledger := NewMemoryLedger()
	ledger.Credit(testToken, alice, big.NewInt(50))

	balance, err := ledger.BalanceOf(context.Background(), testToken, alice)
	require.NoError(t, err)

	// 返回的是快照，修改它不影响账本
	balance.SetInt64(9999)
	again, err := ledger.BalanceOf(context.Background(), testToken, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(50), again.Int64())
}

func TestFixedRateOracleConvert(t *testing.T) {
	oracle := NewFixedRateOracle([]config.TokenConfig{
		{Symbol: "CELO", Rate: 5},
		{Symbol: "cUSD", Rate: 0}, // 未配置汇率按1处理
	})

	got, err := oracle.Convert(context.Background(), engine.Token("CELO"), big.NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.Int64())

	got, err = oracle.Convert(context.Background(), engine.Token("cUSD"), big.NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Int64())
}

func TestFixedRateOracleUnknownToken(t *testing.T) {
	oracle := NewFixedRateOracle([]config.TokenConfig{{Symbol: "CELO", Rate: 1}})

	_, err := oracle.Convert(context.Background(), engine.Token("DOGE"), big.NewInt(10))
	assert.Error(t, err)
}
