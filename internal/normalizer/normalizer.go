package normalizer

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"github.com/ninja0404/token-pilot/internal/model"
)

// Normalize 将订阅信封转成规范交易。任何字段缺失都补零值，永不失败。
func Normalize(env *model.RawEnvelope) *model.Transaction {
	tx := &model.Transaction{
		Version:   "0",
		BlockTime: time.Now(),
		Meta:      emptyMeta(),
	}
	if env == nil {
		return tx
	}

	tx.Slot = env.Slot

	raw := env.Transaction
	if raw == nil {
		return tx
	}

	if len(raw.Signature) > 0 {
		tx.Signature = base58.Encode(raw.Signature)
	}

	if raw.Transaction != nil && raw.Transaction.Message != nil {
		msg := raw.Transaction.Message

		tx.AccountKeys = encodeKeys(msg.AccountKeys)
		if len(msg.RecentBlockhash) > 0 {
			tx.RecentBlockhash = base58.Encode(msg.RecentBlockhash)
		}

		tx.Instructions = make([]model.Instruction, 0, len(msg.Instructions))
		for _, inst := range msg.Instructions {
			tx.Instructions = append(tx.Instructions, normalizeInstruction(inst))
		}
	}

	if raw.Meta != nil {
		tx.Meta = normalizeMeta(raw.Meta)
	}

	return tx
}

func normalizeMeta(m *model.RawMeta) *model.TransactionMeta {
	meta := &model.TransactionMeta{
		Err:          m.Err,
		Fee:          m.Fee,
		PreBalances:  copyUint64s(m.PreBalances),
		PostBalances: copyUint64s(m.PostBalances),
		LogMessages:  copyStrings(m.LogMessages),
	}

	meta.InnerInstructions = make([]model.InnerInstructionSet, 0, len(m.InnerInstructions))
	for _, inner := range m.InnerInstructions {
		if inner == nil {
			continue
		}
		set := model.InnerInstructionSet{
			Index:        int(inner.Index),
			Instructions: make([]model.Instruction, 0, len(inner.Instructions)),
		}
		for _, inst := range inner.Instructions {
			set.Instructions = append(set.Instructions, normalizeInstruction(inst))
		}
		meta.InnerInstructions = append(meta.InnerInstructions, set)
	}

	meta.PreTokenBalances = normalizeTokenBalances(m.PreTokenBalances)
	meta.PostTokenBalances = normalizeTokenBalances(m.PostTokenBalances)

	meta.LoadedWritable = encodeKeys(m.LoadedWritableAddresses)
	meta.LoadedReadonly = encodeKeys(m.LoadedReadonlyAddresses)

	if m.ComputeUnitsConsumed != nil {
		meta.ComputeUnitsConsumed = *m.ComputeUnitsConsumed
	}

	return meta
}

func normalizeInstruction(inst *model.RawInstruction) model.Instruction {
	out := model.Instruction{}
	if inst == nil {
		out.Accounts = []int{}
		return out
	}

	out.ProgramIdIndex = int(inst.ProgramIdIndex)

	// 账户索引按值拷贝，后续修改互不影响
	out.Accounts = make([]int, 0, len(inst.Accounts))
	for _, idx := range inst.Accounts {
		out.Accounts = append(out.Accounts, int(idx))
	}

	if len(inst.Data) > 0 {
		out.Data = base58.Encode(inst.Data)
	}

	if inst.StackHeight != nil {
		h := int(*inst.StackHeight)
		out.StackHeight = &h
	}

	return out
}

func normalizeTokenBalances(balances []*model.RawTokenBalance) []model.TokenBalance {
	out := make([]model.TokenBalance, 0, len(balances))
	for _, b := range balances {
		if b == nil {
			continue
		}
		tb := model.TokenBalance{
			AccountIndex: int(b.AccountIndex),
			Mint:         b.Mint,
			Owner:        b.Owner,
			ProgramId:    b.ProgramId,
			UiTokenAmount: model.UiTokenAmount{
				Amount:         "0",
				UiAmountString: "0",
			},
		}
		if b.UiTokenAmount != nil {
			tb.UiTokenAmount = model.UiTokenAmount{
				Amount:         b.UiTokenAmount.Amount,
				Decimals:       b.UiTokenAmount.Decimals,
				UiAmount:       b.UiTokenAmount.UiAmount,
				UiAmountString: b.UiTokenAmount.UiAmountString,
			}
			if tb.UiTokenAmount.Amount == "" {
				tb.UiTokenAmount.Amount = "0"
			}
			if tb.UiTokenAmount.UiAmountString == "" {
				tb.UiTokenAmount.UiAmountString = "0"
			}
		}
		out = append(out, tb)
	}
	return out
}

// encodeKeys 32字节键走solana-go的PublicKey，异常长度退回通用base58
func encodeKeys(keys [][]byte) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if len(k) == solana.PublicKeyLength {
			out = append(out, solana.PublicKeyFromBytes(k).String())
			continue
		}
		if len(k) == 0 {
			out = append(out, "")
			continue
		}
		out = append(out, base58.Encode(k))
	}
	return out
}

func emptyMeta() *model.TransactionMeta {
	return &model.TransactionMeta{
		PreBalances:       []uint64{},
		PostBalances:      []uint64{},
		InnerInstructions: []model.InnerInstructionSet{},
		LogMessages:       []string{},
		PreTokenBalances:  []model.TokenBalance{},
		PostTokenBalances: []model.TokenBalance{},
		LoadedWritable:    []string{},
		LoadedReadonly:    []string{},
	}
}

func copyUint64s(in []uint64) []uint64 {
	out := make([]uint64, len(in))
	copy(out, in)
	return out
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
