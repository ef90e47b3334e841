package logger

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

func FieldMod(value string) Field {
	value = strings.Replace(value, " ", ".", -1)
	return String("mod", value)
}

// FieldErr ...
func FieldErr(err error) Field {
	return zap.Error(err)
}

func FieldErrKind(value string) Field {
	return String("err_kind", value)
}

// FieldKey ...
func FieldKey(value string) Field {
	return String("key", value)
}

func FieldMethod(value string) Field {
	return String("method", value)
}

// FieldEvent ...
func FieldEvent(value string) Field {
	return String("event", value)
}

// FieldMint 追踪的代币mint地址
func FieldMint(value string) Field {
	return String("mint", value)
}

// FieldSignature 交易签名
func FieldSignature(value string) Field {
	return String("signature", value)
}

// FieldSlot ...
func FieldSlot(value uint64) Field {
	return Uint64("slot", value)
}

// FieldGeneration 订阅代数，重连排障用
func FieldGeneration(value uint64) Field {
	return Uint64("generation", value)
}

func FieldCost(value time.Duration) Field {
	return String("cost", fmt.Sprintf("%.3f", float64(value.Round(time.Microsecond))/float64(time.Millisecond)))
}

// FieldStack ...
func FieldStack(value []byte) Field {
	return ByteString("stack", value)
}
