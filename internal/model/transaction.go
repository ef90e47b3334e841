package model

import (
	"time"
)

// Transaction 归一化后的交易，所有账户键均为base58字符串
type Transaction struct {
	Signature string    `json:"signature"`
	Slot      uint64    `json:"slot"`
	BlockTime time.Time `json:"block_time"`
	Version   string    `json:"version"`

	AccountKeys     []string         `json:"account_keys"`
	RecentBlockhash string           `json:"recent_blockhash"`
	Instructions    []Instruction    `json:"instructions"`
	Meta            *TransactionMeta `json:"meta"`
}

// Instruction 顶层或内联指令，Data为base58编码的原始负载
type Instruction struct {
	ProgramIdIndex int    `json:"program_id_index"`
	Accounts       []int  `json:"accounts"`
	Data           string `json:"data"`
	StackHeight    *int   `json:"stack_height,omitempty"`
}

type InnerInstructionSet struct {
	Index        int           `json:"index"`
	Instructions []Instruction `json:"instructions"`
}

type TransactionMeta struct {
	Err                  interface{}           `json:"err"`
	Fee                  uint64                `json:"fee"`
	PreBalances          []uint64              `json:"pre_balances"`
	PostBalances         []uint64              `json:"post_balances"`
	InnerInstructions    []InnerInstructionSet `json:"inner_instructions"`
	LogMessages          []string              `json:"log_messages"`
	PreTokenBalances     []TokenBalance        `json:"pre_token_balances"`
	PostTokenBalances    []TokenBalance        `json:"post_token_balances"`
	LoadedWritable       []string              `json:"loaded_writable"`
	LoadedReadonly       []string              `json:"loaded_readonly"`
	ComputeUnitsConsumed uint64                `json:"compute_units_consumed"`
}

type TokenBalance struct {
	AccountIndex  int           `json:"account_index"`
	Mint          string        `json:"mint"`
	Owner         string        `json:"owner"`
	ProgramId     string        `json:"program_id"`
	UiTokenAmount UiTokenAmount `json:"ui_token_amount"`
}

type UiTokenAmount struct {
	Amount         string  `json:"amount"`
	Decimals       uint32  `json:"decimals"`
	UiAmount       float64 `json:"ui_amount"`
	UiAmountString string  `json:"ui_amount_string"`
}

// Failed 交易是否执行失败
func (t *Transaction) Failed() bool {
	return t.Meta != nil && t.Meta.Err != nil
}

// AccountKeyAt 越界返回空串
func (t *Transaction) AccountKeyAt(idx int) string {
	if idx < 0 || idx >= len(t.AccountKeys) {
		return ""
	}
	return t.AccountKeys[idx]
}
