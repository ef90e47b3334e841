package normalizer

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/token-pilot/internal/model"
)

func TestNormalizeNilEnvelope(t *testing.T) {
	tx := Normalize(nil)

	require.NotNil(t, tx)
	require.NotNil(t, tx.Meta)
	assert.Equal(t, "0", tx.Version)
	assert.Empty(t, tx.Signature)
	assert.Empty(t, tx.AccountKeys)
	assert.NotNil(t, tx.Meta.PreTokenBalances)
	assert.NotNil(t, tx.Meta.PostTokenBalances)
	assert.False(t, tx.BlockTime.IsZero())
}

func TestNormalizeMissingMeta(t *testing.T) {
	env := &model.RawEnvelope{
		Slot: 12345,
		Transaction: &model.RawTransaction{
			Signature: []byte{1, 2, 3},
		},
	}

	tx := Normalize(env)

	require.NotNil(t, tx.Meta)
	assert.Equal(t, uint64(12345), tx.Slot)
	assert.Equal(t, base58.Encode([]byte{1, 2, 3}), tx.Signature)
	assert.Zero(t, tx.Meta.Fee)
	assert.Empty(t, tx.Meta.PreBalances)
	assert.False(t, tx.Failed())
}

func TestNormalizeFullEnvelope(t *testing.T) {
	key := make([]byte, solana.PublicKeyLength)
	key[0] = 7
	sig := make([]byte, 64)
	sig[0] = 9

	cu := uint64(4242)
	env := &model.RawEnvelope{
		Slot: 999,
		Transaction: &model.RawTransaction{
			Signature: sig,
			Transaction: &model.RawTxInner{
				Message: &model.RawMessage{
					AccountKeys:     [][]byte{key},
					RecentBlockhash: key,
					Instructions: []*model.RawInstruction{
						{
							ProgramIdIndex: 0,
							Accounts:       []byte{0, 1, 2},
							Data:           []byte{0xde, 0xad},
						},
					},
				},
			},
			Meta: &model.RawMeta{
				Fee:          5000,
				PreBalances:  []uint64{100, 200},
				PostBalances: []uint64{90, 210},
				InnerInstructions: []*model.RawInnerInstr{
					{
						Index: 0,
						Instructions: []*model.RawInstruction{
							{ProgramIdIndex: 1, Accounts: []byte{2}, Data: []byte{1}},
						},
					},
				},
				PreTokenBalances: []*model.RawTokenBalance{
					{AccountIndex: 1, Mint: "So11111111111111111111111111111111111111112"},
				},
				PostTokenBalances: []*model.RawTokenBalance{
					{
						AccountIndex: 1,
						Mint:         "So11111111111111111111111111111111111111112",
						UiTokenAmount: &model.RawUiTokenAmount{
							Amount:         "1000",
							Decimals:       9,
							UiAmountString: "0.000001",
						},
					},
				},
				ComputeUnitsConsumed: &cu,
			},
		},
	}

	tx := Normalize(env)

	assert.Equal(t, uint64(999), tx.Slot)
	assert.Equal(t, base58.Encode(sig), tx.Signature)

	require.Len(t, tx.AccountKeys, 1)
	assert.Equal(t, solana.PublicKeyFromBytes(key).String(), tx.AccountKeys[0])

	require.Len(t, tx.Instructions, 1)
	assert.Equal(t, []int{0, 1, 2}, tx.Instructions[0].Accounts)
	assert.Equal(t, base58.Encode([]byte{0xde, 0xad}), tx.Instructions[0].Data)

	require.NotNil(t, tx.Meta)
	assert.Equal(t, uint64(5000), tx.Meta.Fee)
	assert.Equal(t, uint64(4242), tx.Meta.ComputeUnitsConsumed)
	require.Len(t, tx.Meta.InnerInstructions, 1)
	require.Len(t, tx.Meta.InnerInstructions[0].Instructions, 1)

	// 缺失的uiTokenAmount补零
	require.Len(t, tx.Meta.PreTokenBalances, 1)
	assert.Equal(t, "0", tx.Meta.PreTokenBalances[0].UiTokenAmount.Amount)
	assert.Equal(t, "0", tx.Meta.PreTokenBalances[0].UiTokenAmount.UiAmountString)

	require.Len(t, tx.Meta.PostTokenBalances, 1)
	assert.Equal(t, "1000", tx.Meta.PostTokenBalances[0].UiTokenAmount.Amount)

	// 账户索引为值拷贝，改写原始数据不影响归一化结果
	env.Transaction.Transaction.Message.Instructions[0].Accounts[0] = 9
	assert.Equal(t, []int{0, 1, 2}, tx.Instructions[0].Accounts)

	// 余额切片同样是拷贝
	env.Transaction.Meta.PreBalances[0] = 1
	assert.Equal(t, uint64(100), tx.Meta.PreBalances[0])
}

func TestNormalizeOddKeyLength(t *testing.T) {
	env := &model.RawEnvelope{
		Transaction: &model.RawTransaction{
			Transaction: &model.RawTxInner{
				Message: &model.RawMessage{
					AccountKeys: [][]byte{{1, 2, 3}, {}},
				},
			},
		},
	}

	tx := Normalize(env)

	require.Len(t, tx.AccountKeys, 2)
	assert.Equal(t, base58.Encode([]byte{1, 2, 3}), tx.AccountKeys[0])
	assert.Equal(t, "", tx.AccountKeys[1])
}
