package config

import (
	"time"

	"github.com/ninja0404/token-pilot/pkg/config/reader"
)

// value 配置缺失时的空值
type value struct{}

func newValue() reader.Value {
	return new(value)
}

func (v *value) Bool(def bool) bool {
	return def
}

func (v *value) Int(def int) int {
	return def
}

func (v *value) Int64(def int64) int64 {
	return def
}

func (v *value) String(def string) string {
	return def
}

func (v *value) Float64(def float64) float64 {
	return def
}

func (v *value) Duration(def time.Duration) time.Duration {
	return def
}

func (v *value) StringSlice(def []string) []string {
	return def
}

func (v *value) StringMap(def map[string]string) map[string]string {
	return def
}

func (v *value) Scan(val interface{}) error {
	return nil
}

func (v *value) Bytes() []byte {
	return nil
}
