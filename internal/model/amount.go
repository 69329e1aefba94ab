package model

import (
	"math/big"
)

// Amount 把大整数金额编码为数据库里的 numeric 字符串
func Amount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// ParseAmount 解析数据库里的金额字符串，非法输入按0处理
func ParseAmount(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	return v
}
