package engine

import (
	"context"
	"math/big"
)

// TokenLedger 代币账本适配器，所有出账操作都经过它
type TokenLedger interface {
	// Transfer 从 from 向 to 转账 amount（代币原生单位）
	Transfer(ctx context.Context, token Token, from, to Account, amount *big.Int) error
	// BalanceOf 查询账户余额
	BalanceOf(ctx context.Context, token Token, account Account) (*big.Int, error)
}

// RateOracle 汇率预言机，把任意支持代币的金额换算成标准单位
type RateOracle interface {
	Convert(ctx context.Context, token Token, amount *big.Int) (*big.Int, error)
}

// Role 平台级角色
type Role string

const (
	RoleSuperAdmin Role = "super_admin" // 平台超级管理员，拥有所有权限
)

// Identity 平台身份解析，返回账户的平台级角色
type Identity interface {
	ResolveRoles(account Account) []Role
}

// EventSink 结构化事件出口，供链下索引消费
type EventSink interface {
	Emit(event Event)
}
