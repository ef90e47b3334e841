package stream

import "encoding/json"

const notificationMethod = "transactionNotification"

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// txSubscribeFilter 订阅过滤条件，按连接会话固定
type txSubscribeFilter struct {
	AccountInclude  []string `json:"accountInclude"`
	AccountExclude  []string `json:"accountExclude"`
	AccountRequired []string `json:"accountRequired"`
}

type txSubscribeOptions struct {
	Commitment                     string `json:"commitment"`
	Encoding                       string `json:"encoding"`
	TransactionDetails             string `json:"transactionDetails"`
	ShowRewards                    bool   `json:"showRewards"`
	MaxSupportedTransactionVersion int    `json:"maxSupportedTransactionVersion"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcFrame 入站帧，订阅确认、错误响应和通知共用一个外壳
type rpcFrame struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Method  string          `json:"method"`
	Params  *rpcFrameParams `json:"params"`
	Error   *rpcError       `json:"error"`
}

type rpcFrameParams struct {
	Subscription uint64          `json:"subscription"`
	Result       json.RawMessage `json:"result"`
}

// buildSubscribeRequest 每次成功建连后发送一次
func buildSubscribeRequest(id uint64, mint string, commitment string) rpcRequest {
	return rpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "transactionSubscribe",
		Params: []interface{}{
			txSubscribeFilter{
				AccountInclude:  []string{mint},
				AccountExclude:  []string{},
				AccountRequired: []string{},
			},
			txSubscribeOptions{
				Commitment:                     commitment,
				Encoding:                       "base64",
				TransactionDetails:             "full",
				ShowRewards:                    false,
				MaxSupportedTransactionVersion: 0,
			},
		},
	}
}
