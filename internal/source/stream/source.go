package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ninja0404/token-pilot/internal/model"
	"github.com/ninja0404/token-pilot/internal/source"
	"github.com/ninja0404/token-pilot/pkg/logger"
)

// ConnState 连接状态机：DISCONNECTED → CONNECTING → ACTIVE
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateActive
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateActive:
		return "ACTIVE"
	default:
		return "DISCONNECTED"
	}
}

// Source 流式订阅数据源，单连接单订阅
//
// 重连由代次计数器做单飞保护：每次Start/Stop都会递增代次，
// 过期代次的连接推送的消息一律丢弃，同一时刻至多一个重连在等待。
type Source struct {
	cfg Config

	envChan chan *model.RawEnvelope
	errChan chan error
	done    chan struct{}

	generation atomic.Uint64
	requestID  atomic.Uint64
	state      atomic.Int32

	connMu sync.Mutex
	conn   *websocket.Conn

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewSource 创建流式数据源
func NewSource(cfg Config) *Source {
	return &Source{
		cfg:     cfg.withDefaults(),
		envChan: make(chan *model.RawEnvelope, 10000),
		errChan: make(chan error, 100),
		done:    make(chan struct{}),
	}
}

// Start 启动订阅
func (s *Source) Start(ctx context.Context) error {
	if s.cfg.Endpoint == "" {
		return fmt.Errorf("stream endpoint is empty")
	}
	if s.cfg.Mint == "" {
		return fmt.Errorf("tracked mint is empty")
	}

	gen := s.generation.Add(1)

	s.wg.Add(1)
	go s.run(ctx, gen)

	logger.Info("🚀 流式数据源已启动",
		logger.String("endpoint", s.cfg.Endpoint),
		logger.FieldMint(s.cfg.Mint),
		logger.String("commitment", s.cfg.Commitment))

	return nil
}

// Stop 使当前代次失效并关闭连接，不会留下悬挂的重连定时器
func (s *Source) Stop() error {
	s.stopOnce.Do(func() {
		logger.Info("🛑 停止流式数据源")

		s.generation.Add(1)
		close(s.done)
		s.closeConn()

		s.wg.Wait()
		s.setState(StateDisconnected)

		close(s.envChan)
		close(s.errChan)
	})
	return nil
}

// Subscribe 获取信封通道
func (s *Source) Subscribe() <-chan *model.RawEnvelope {
	return s.envChan
}

// Errors 获取错误通道
func (s *Source) Errors() <-chan error {
	return s.errChan
}

// State 当前连接状态
func (s *Source) State() ConnState {
	return ConnState(s.state.Load())
}

// String 数据源名称
func (s *Source) String() string {
	return fmt.Sprintf("stream(%s)", s.cfg.Endpoint)
}

// GetStats 获取数据源统计信息
func (s *Source) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"endpoint":         s.cfg.Endpoint,
		"mint":             s.cfg.Mint,
		"state":            s.State().String(),
		"generation":       s.generation.Load(),
		"env_channel_size": len(s.envChan),
		"err_channel_size": len(s.errChan),
	}
}

// run 监督循环：建连、订阅、读取，断开后带退避重连
func (s *Source) run(ctx context.Context, gen uint64) {
	defer s.wg.Done()

	failures := 0
	for {
		if s.stale(gen) {
			return
		}

		// 连续建连失败到达上限，上报不可恢复错误后退出
		if failures >= s.cfg.MaxAttempts {
			s.setState(StateDisconnected)
			logger.Error("🚨 流式订阅重连次数耗尽",
				logger.String("endpoint", s.cfg.Endpoint),
				logger.Int("attempts", failures))
			s.emitErr(&source.FatalError{
				Source: s.String(),
				Err:    fmt.Errorf("reconnect attempts exhausted after %d tries", failures),
			})
			return
		}

		if failures > 0 {
			wait := s.backoffDelay(failures)
			logger.Warn("流式订阅重连等待",
				logger.Int("attempt", failures),
				logger.String("wait", wait.String()))
			select {
			case <-s.done:
				return
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			if s.stale(gen) {
				return
			}
		}

		s.setState(StateConnecting)

		conn, err := s.dial(ctx)
		if err != nil {
			failures++
			s.emitErr(fmt.Errorf("dial %s: %w", s.cfg.Endpoint, err))
			continue
		}
		s.setConn(conn)

		if err := s.subscribe(conn); err != nil {
			failures++
			s.closeConn()
			s.emitErr(fmt.Errorf("send subscribe request: %w", err))
			continue
		}

		s.setState(StateActive)
		failures = 0
		logger.Info("✅ 流式订阅已建立",
			logger.String("endpoint", s.cfg.Endpoint),
			logger.FieldMint(s.cfg.Mint),
			logger.FieldGeneration(gen))

		err = s.readLoop(conn, gen)
		s.closeConn()

		if s.stale(gen) {
			return
		}

		s.setState(StateDisconnected)
		failures = 1
		if err != nil {
			logger.Warn("流式连接断开，准备重连", logger.FieldErr(err))
		}
	}
}

func (s *Source) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: s.cfg.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, s.cfg.Endpoint, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// subscribe 每条连接只发送一次订阅请求
func (s *Source) subscribe(conn *websocket.Conn) error {
	req := buildSubscribeRequest(s.requestID.Add(1), s.cfg.Mint, s.cfg.Commitment)

	conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	return conn.WriteJSON(req)
}

func (s *Source) readLoop(conn *websocket.Conn, gen uint64) error {
	sessionDone := make(chan struct{})
	defer close(sessionDone)
	go s.pingLoop(conn, sessionDone)

	for {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		s.handleMessage(msg, gen)
	}
}

// handleMessage 解析入站帧并按代次分发
func (s *Source) handleMessage(data []byte, gen uint64) {
	var frame rpcFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		logger.Warn("无法解析的入站帧", logger.FieldErr(err))
		return
	}

	if frame.Error != nil {
		logger.Warn("🚨 订阅端返回错误",
			logger.Int("code", frame.Error.Code),
			logger.String("message", frame.Error.Message))
		return
	}

	if frame.Method == notificationMethod && frame.Params != nil {
		envelope := new(model.RawEnvelope)
		if err := json.Unmarshal(frame.Params.Result, envelope); err != nil {
			logger.Warn("无法解析的交易通知", logger.FieldErr(err))
			return
		}

		// 过期代次的连接可能还残留在读，它的消息不能进管道
		if s.stale(gen) {
			logger.Debug("丢弃过期代次的通知",
				logger.FieldGeneration(gen),
				logger.FieldSlot(envelope.Slot))
			return
		}

		select {
		case s.envChan <- envelope:
		case <-s.done:
		}
		return
	}

	if frame.ID != 0 && len(frame.Result) > 0 {
		logger.Debug("订阅确认", logger.String("result", string(frame.Result)))
	}
}

// pingLoop 保活，连接失效时读循环会先感知到
func (s *Source) pingLoop(conn *websocket.Conn, sessionDone <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sessionDone:
			return
		case <-s.done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// backoffDelay base*2^(n-1)加随机抖动，封顶ReconnectMax
func (s *Source) backoffDelay(n int) time.Duration {
	d := s.cfg.ReconnectBase
	for i := 1; i < n && d < s.cfg.ReconnectMax; i++ {
		d *= 2
	}
	if d > s.cfg.ReconnectMax {
		d = s.cfg.ReconnectMax
	}

	jitter := time.Duration(rand.Int63n(int64(d)/2 + 1))
	return d + jitter
}

func (s *Source) stale(gen uint64) bool {
	return s.generation.Load() != gen
}

func (s *Source) setState(st ConnState) {
	s.state.Store(int32(st))
}

func (s *Source) setConn(conn *websocket.Conn) {
	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()
}

func (s *Source) closeConn() {
	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()
}

func (s *Source) emitErr(err error) {
	select {
	case s.errChan <- err:
	default:
		logger.Warn("错误通道已满，丢弃错误", logger.FieldErr(err))
	}
}
