package source

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/ninja0404/token-pilot/internal/model"
)

// EnvelopeSource 交易信封数据源接口
type EnvelopeSource interface {
	// Start 启动数据源
	Start(ctx context.Context) error

	// Stop 停止数据源
	Stop() error

	// Subscribe 订阅信封数据流，按到达顺序投递
	Subscribe() <-chan *model.RawEnvelope

	// Errors 错误通道
	Errors() <-chan error

	// String 数据源名称
	String() string
}

// FatalError 不可恢复的数据源错误，收到后应整体停机
type FatalError struct {
	Source string
	Err    error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("source %s failed permanently: %v", e.Source, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsFatal 判断错误是否不可恢复
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// Manager 数据源管理器，把多个源汇聚到同一条通道
type Manager struct {
	sources     []EnvelopeSource
	envelopeChn chan *model.RawEnvelope
	errorChan   chan error
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewManager 创建数据源管理器
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		sources:     make([]EnvelopeSource, 0),
		envelopeChn: make(chan *model.RawEnvelope, 100_000), // 缓冲通道
		errorChan:   make(chan error, 100),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// AddSource 添加数据源
func (m *Manager) AddSource(s EnvelopeSource) {
	m.sources = append(m.sources, s)
}

// Start 启动所有数据源
func (m *Manager) Start() error {
	for _, s := range m.sources {
		if err := s.Start(m.ctx); err != nil {
			return err
		}

		m.wg.Add(1)
		go m.listenSource(s)
	}

	return nil
}

// Stop 停止所有数据源，聚合每个源的关闭错误
func (m *Manager) Stop() error {
	m.cancel()

	var result *multierror.Error
	for _, s := range m.sources {
		if err := s.Stop(); err != nil {
			result = multierror.Append(result, fmt.Errorf("stop %s: %w", s.String(), err))
		}
	}

	// 等所有转发协程退出后再关闭汇聚通道
	m.wg.Wait()
	close(m.envelopeChn)
	close(m.errorChan)

	return result.ErrorOrNil()
}

// Envelopes 获取汇聚后的信封流
func (m *Manager) Envelopes() <-chan *model.RawEnvelope {
	return m.envelopeChn
}

// Errors 获取错误流
func (m *Manager) Errors() <-chan error {
	return m.errorChan
}

// listenSource 监听单个数据源
func (m *Manager) listenSource(s EnvelopeSource) {
	defer m.wg.Done()

	envChan := s.Subscribe()
	errChan := s.Errors()

	for {
		select {
		case <-m.ctx.Done():
			return
		case env, ok := <-envChan:
			if !ok {
				return
			}
			select {
			case m.envelopeChn <- env:
			case <-m.ctx.Done():
				return
			}
		case err, ok := <-errChan:
			if !ok {
				return
			}
			select {
			case m.errorChan <- err:
			case <-m.ctx.Done():
				return
			}
		}
	}
}
