package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/ninja0404/token-pilot/internal/common"
)

// Entry 账本中的一条成交记录，字段与历史文件格式保持一致
type Entry struct {
	Timestamp  int64    `json:"timestamp"`
	Type       string   `json:"type"`
	Price      float64  `json:"price"`
	Amount     float64  `json:"amount"`
	Total      float64  `json:"total"`
	ProfitLoss *float64 `json:"profitLoss,omitempty"`
	HoldTime   *int64   `json:"holdTime,omitempty"`
	DateTime   string   `json:"dateTime,omitempty"`
}

// Ledger 单一代币的JSON成交账本
type Ledger struct {
	path string
	mu   sync.Mutex
}

// New 打开（或初始化）trades_<mint>.json
func New(dir, mint string) (*Ledger, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create ledger dir")
	}

	l := &Ledger{
		path: filepath.Join(dir, fmt.Sprintf("trades_%s.json", mint)),
	}

	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		if err := l.writeAll([]Entry{}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, errors.Wrap(err, "stat ledger file")
	}

	return l, nil
}

// Path 账本文件路径
func (l *Ledger) Path() string {
	return l.path
}

// Append 追加一条记录。dateTime由timestamp推导，始终覆盖写入。
func (l *Ledger) Append(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.readAll()
	if err != nil {
		return err
	}

	e.DateTime = time.Unix(e.Timestamp, 0).UTC().Format("2006-01-02T15:04:05.000Z")
	entries = append(entries, e)

	return l.writeAll(entries)
}

// LogFill 把策略成交写入账本
func (l *Ledger) LogFill(f *common.FillEvent) error {
	e := Entry{
		Timestamp: f.Timestamp.Unix(),
		Type:      strings.ToUpper(f.Action.String()),
		Price:     f.PriceUSD.InexactFloat64(),
		Amount:    f.Amount.InexactFloat64(),
		Total:     f.TotalUSD.InexactFloat64(),
	}
	if f.ProfitLoss != nil {
		pl := f.ProfitLoss.InexactFloat64()
		e.ProfitLoss = &pl
	}
	if f.HoldTimeSec != nil {
		ht := *f.HoldTimeSec
		e.HoldTime = &ht
	}
	return l.Append(e)
}

// ReadAll 读出全部记录
func (l *Ledger) ReadAll() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readAll()
}

func (l *Ledger) readAll() ([]Entry, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, errors.Wrap(err, "read ledger file")
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(err, "parse ledger file")
	}
	return entries, nil
}

// writeAll 整体写入：同目录临时文件+原子rename，崩溃最多丢最后一条，不会写坏文件
func (l *Ledger) writeAll(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal ledger entries")
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".trades-*.tmp")
	if err != nil {
		return errors.Wrap(err, "create ledger temp file")
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "write ledger temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "close ledger temp file")
	}

	if err := os.Rename(tmp.Name(), l.path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "replace ledger file")
	}
	return nil
}
