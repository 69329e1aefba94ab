package model

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmountRoundTrip(t *testing.T) {
	v, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	assert.True(t, ok)
	assert.Equal(t, v, ParseAmount(Amount(v)))
}

func TestAmountNil(t *testing.T) {
	assert.Equal(t, "0", Amount(nil))
}

func TestParseAmountInvalid(t *testing.T) {
	assert.Equal(t, int64(0), ParseAmount("not-a-number").Int64())
	assert.Equal(t, int64(0), ParseAmount("").Int64())
}
