package stream

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/token-pilot/internal/source"
	"github.com/ninja0404/token-pilot/pkg/logger"
)

func TestMain(m *testing.M) {
	cfg := &logger.Config{
		Name:          "stream-test",
		OUTPUT:        "stdout",
		Level:         "info",
		Discard:       true,
		DisableSentry: true,
	}
	l := cfg.Build()
	logger.SetDefault(l)
	logger.SetDefaultL1(l)
	m.Run()
}

const testMint = "TokenMint1111111111111111111111111111111111"

func TestSubscribeRequestPayload(t *testing.T) {
	req := buildSubscribeRequest(7, testMint, "processed")

	data, err := json.Marshal(req)
	require.NoError(t, err)

	var decoded struct {
		JSONRPC string `json:"jsonrpc"`
		ID      uint64 `json:"id"`
		Method  string `json:"method"`
		Params  []json.RawMessage
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2.0", decoded.JSONRPC)
	assert.Equal(t, uint64(7), decoded.ID)
	assert.Equal(t, "transactionSubscribe", decoded.Method)
	require.Len(t, decoded.Params, 2)

	var filter txSubscribeFilter
	require.NoError(t, json.Unmarshal(decoded.Params[0], &filter))
	assert.Equal(t, []string{testMint}, filter.AccountInclude)
	assert.NotNil(t, filter.AccountExclude)
	assert.Empty(t, filter.AccountExclude)
	assert.NotNil(t, filter.AccountRequired)
	assert.Empty(t, filter.AccountRequired)

	var opts txSubscribeOptions
	require.NoError(t, json.Unmarshal(decoded.Params[1], &opts))
	assert.Equal(t, "processed", opts.Commitment)
	assert.Equal(t, "full", opts.TransactionDetails)
}

func notification(slot string) []byte {
	return []byte(`{
		"jsonrpc": "2.0",
		"method": "transactionNotification",
		"params": {
			"subscription": 1,
			"result": {"slot": "` + slot + `"}
		}
	}`)
}

func TestStaleGenerationDiscarded(t *testing.T) {
	s := NewSource(Config{Endpoint: "ws://localhost", Mint: testMint})
	s.generation.Store(2)

	// 过期代次的通知不进通道
	s.handleMessage(notification("100"), 1)
	select {
	case env := <-s.envChan:
		t.Fatalf("unexpected envelope from stale generation: %+v", env)
	default:
	}

	// 当前代次正常分发
	s.handleMessage(notification("101"), 2)
	select {
	case env := <-s.envChan:
		assert.Equal(t, uint64(101), env.Slot)
	default:
		t.Fatal("expected envelope from current generation")
	}
}

func TestHandleMessageSkipsMalformedFrames(t *testing.T) {
	s := NewSource(Config{Endpoint: "ws://localhost", Mint: testMint})
	s.generation.Store(1)

	s.handleMessage([]byte(`not json`), 1)
	s.handleMessage([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"bad filter"}}`), 1)
	s.handleMessage([]byte(`{"jsonrpc":"2.0","method":"transactionNotification","params":{"subscription":1,"result":{"slot":12}}}`), 1)

	select {
	case env := <-s.envChan:
		t.Fatalf("unexpected envelope: %+v", env)
	default:
	}
}

func TestBackoffDelayBounded(t *testing.T) {
	s := NewSource(Config{
		Endpoint:      "ws://localhost",
		Mint:          testMint,
		ReconnectBase: 100 * time.Millisecond,
		ReconnectMax:  time.Second,
	})

	prevFloor := time.Duration(0)
	for n := 1; n <= 8; n++ {
		d := s.backoffDelay(n)

		floor := 100 * time.Millisecond << (n - 1)
		if floor > time.Second {
			floor = time.Second
		}
		assert.GreaterOrEqual(t, d, floor, "attempt %d", n)
		assert.LessOrEqual(t, d, floor+floor/2, "attempt %d", n)
		assert.GreaterOrEqual(t, floor, prevFloor)
		prevFloor = floor
	}
}

func TestExhaustedRetriesReportFatal(t *testing.T) {
	s := NewSource(Config{
		// 不可达端口，建连必然失败
		Endpoint:         "ws://127.0.0.1:1",
		Mint:             testMint,
		ReconnectBase:    time.Millisecond,
		ReconnectMax:     2 * time.Millisecond,
		MaxAttempts:      2,
		HandshakeTimeout: 100 * time.Millisecond,
	})

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case err := <-s.Errors():
			if source.IsFatal(err) {
				return
			}
		case <-deadline:
			t.Fatal("expected fatal error after exhausted retries")
		}
	}
}

func TestStartRequiresEndpointAndMint(t *testing.T) {
	assert.Error(t, NewSource(Config{Mint: testMint}).Start(context.Background()))
	assert.Error(t, NewSource(Config{Endpoint: "ws://localhost"}).Start(context.Background()))
}
