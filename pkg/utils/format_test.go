package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetDisplayWalletAddress(t *testing.T) {
	assert.Equal(t, "So1111...1112", GetDisplayWalletAddress("So11111111111111111111111111111111111111112"))
	assert.Equal(t, "short", GetDisplayWalletAddress("short"))
}

func TestFormatAmountWithDecimals(t *testing.T) {
	assert.Equal(t, "0", FormatAmountWithDecimals("", 9))
	assert.Equal(t, "0", FormatAmountWithDecimals("0", 9))
	assert.Equal(t, "not-a-number", FormatAmountWithDecimals("not-a-number", 9))

	// 策略成交数量不带decimals缩放
	assert.Equal(t, "1.00K", FormatAmountWithDecimals("1000", 0))
	assert.Equal(t, "2.50M", FormatAmountWithDecimals("2500000", 0))
	assert.Equal(t, "12.34", FormatAmountWithDecimals("12.345", 0))

	// 原始最小单位按decimals缩放
	assert.Equal(t, "1.5", FormatAmountWithDecimals("1500000000", 9))
	assert.Equal(t, "0.0015", FormatAmountWithDecimals("1500000", 9))
}
