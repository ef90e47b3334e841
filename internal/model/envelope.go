package model

// RawEnvelope 流式订阅推送的一条交易通知，字段可能部分缺失
type RawEnvelope struct {
	Slot        uint64          `json:"slot,string"`
	Transaction *RawTransaction `json:"transaction"`
}

// RawTransaction 信封内的交易体
type RawTransaction struct {
	Signature   []byte      `json:"signature"`
	Transaction *RawTxInner `json:"transaction"`
	Meta        *RawMeta    `json:"meta"`
	Index       uint64      `json:"index"`
}

type RawTxInner struct {
	Message    *RawMessage `json:"message"`
	Signatures [][]byte    `json:"signatures"`
}

type RawMessage struct {
	Header              *RawMessageHeader `json:"header"`
	AccountKeys         [][]byte          `json:"accountKeys"`
	RecentBlockhash     []byte            `json:"recentBlockhash"`
	Instructions        []*RawInstruction `json:"instructions"`
	Versioned           bool              `json:"versioned"`
	AddressTableLookups []*RawTableLookup `json:"addressTableLookups"`
}

type RawMessageHeader struct {
	NumRequiredSignatures       uint32 `json:"numRequiredSignatures"`
	NumReadonlySignedAccounts   uint32 `json:"numReadonlySignedAccounts"`
	NumReadonlyUnsignedAccounts uint32 `json:"numReadonlyUnsignedAccounts"`
}

type RawInstruction struct {
	ProgramIdIndex uint32 `json:"programIdIndex"`
	Accounts       []byte `json:"accounts"`
	Data           []byte `json:"data"`
	// 内联指令才有值，顶层指令为nil
	StackHeight *uint32 `json:"stackHeight"`
}

type RawTableLookup struct {
	AccountKey      []byte `json:"accountKey"`
	WritableIndexes []byte `json:"writableIndexes"`
	ReadonlyIndexes []byte `json:"readonlyIndexes"`
}

type RawMeta struct {
	Err                     interface{}           `json:"err"`
	Fee                     uint64                `json:"fee,string"`
	PreBalances             []uint64              `json:"preBalances"`
	PostBalances            []uint64              `json:"postBalances"`
	InnerInstructions       []*RawInnerInstr      `json:"innerInstructions"`
	LogMessages             []string              `json:"logMessages"`
	PreTokenBalances        []*RawTokenBalance    `json:"preTokenBalances"`
	PostTokenBalances       []*RawTokenBalance    `json:"postTokenBalances"`
	LoadedWritableAddresses [][]byte              `json:"loadedWritableAddresses"`
	LoadedReadonlyAddresses [][]byte              `json:"loadedReadonlyAddresses"`
	ComputeUnitsConsumed    *uint64               `json:"computeUnitsConsumed,string"`
	ReturnData              *RawTransactionReturn `json:"returnData"`
}

type RawInnerInstr struct {
	Index        uint32            `json:"index"`
	Instructions []*RawInstruction `json:"instructions"`
}

type RawTokenBalance struct {
	AccountIndex  uint32            `json:"accountIndex"`
	Mint          string            `json:"mint"`
	Owner         string            `json:"owner"`
	ProgramId     string            `json:"programId"`
	UiTokenAmount *RawUiTokenAmount `json:"uiTokenAmount"`
}

type RawUiTokenAmount struct {
	Amount         string  `json:"amount"`
	Decimals       uint32  `json:"decimals"`
	UiAmount       float64 `json:"uiAmount"`
	UiAmountString string  `json:"uiAmountString"`
}

type RawTransactionReturn struct {
	ProgramId []byte `json:"programId"`
	Data      []byte `json:"data"`
}
