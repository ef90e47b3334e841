package replay

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/token-pilot/pkg/logger"
	"github.com/ninja0404/token-pilot/pkg/mq/kafka"
)

func TestMain(m *testing.M) {
	cfg := &logger.Config{
		Name:          "replay-test",
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

func newTestSource() *Source {
	return NewSource(SourceConfig{
		Topic:   "token-pilot-envelopes",
		Brokers: []string{"127.0.0.1:9092"},
		KafkaConfig: kafka.KafkaConsumerConfig{
			GroupId: "replay-test",
		},
	})
}

func TestHandleMessageDeliversEnvelope(t *testing.T) {
	s := newTestSource()

	require.NoError(t, s.handleMessage([]byte(`{"slot":"42"}`)))

	select {
	case env := <-s.Subscribe():
		assert.Equal(t, uint64(42), env.Slot)
	default:
		t.Fatal("envelope not delivered")
	}
}

func TestHandleMessageRejectsAfterStop(t *testing.T) {
	s := newTestSource()
	_ = s.Stop()

	assert.Error(t, s.handleMessage([]byte(`{"slot":"42"}`)))
}

// 消费者协程可能在Stop执行期间仍停留在handleMessage里，
// 任何交错下发送都不能panic。
func TestStopConcurrentWithHandleMessage(t *testing.T) {
	s := newTestSource()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = s.handleMessage([]byte(`{"slot":"42"}`))
			}
		}()
	}

	_ = s.Stop()
	wg.Wait()
}
