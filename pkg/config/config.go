package config

import (
	"sync"
	"time"

	"github.com/ninja0404/token-pilot/pkg/config/loader"
	"github.com/ninja0404/token-pilot/pkg/config/loader/memory"
	"github.com/ninja0404/token-pilot/pkg/config/reader"
	"github.com/ninja0404/token-pilot/pkg/config/reader/json"
	"github.com/ninja0404/token-pilot/pkg/config/source"
)

// Config 配置管理入口
type Config interface {
	// Load 加载配置源
	Load(source ...source.Source) error
	// Get 按路径获取配置值
	Get(path ...string) reader.Value
	// Scan 将整棵配置树解析到结构体
	Scan(v interface{}) error
	// Bytes 返回合并后的配置数据
	Bytes() []byte
	// Sync 强制同步所有配置源
	Sync() error
	// Watch 监听指定路径的变化
	Watch(path ...string) (Watcher, error)
	// Close 停止配置管理器
	Close() error
}

// Watcher 配置变更监听器
type Watcher interface {
	Next() (reader.Value, error)
	Stop() error
}

type Options struct {
	Loader loader.Loader
	Reader reader.Reader
	Source []source.Source
}

type Option func(o *Options)

// DefaultConfig 包级默认实例
var DefaultConfig, _ = NewConfig()

type config struct {
	exit chan bool
	opts Options

	sync.RWMutex
	snap *loader.Snapshot
	vals reader.Values
}

// NewConfig 创建配置管理器
func NewConfig(opts ...Option) (Config, error) {
	return newConfig(opts...)
}

func newConfig(opts ...Option) (*config, error) {
	options := Options{
		Loader: memory.NewLoader(),
		Reader: json.NewReader(),
	}
	for _, o := range opts {
		o(&options)
	}

	if err := options.Loader.Load(options.Source...); err != nil {
		return nil, err
	}

	c := &config{
		exit: make(chan bool),
		opts: options,
	}
	if err := c.sync(); err != nil {
		return nil, err
	}

	go c.run()

	return c, nil
}

func (c *config) run() {
	watch := func(w loader.Watcher) error {
		for {
			snap, err := w.Next()
			if err != nil {
				return err
			}

			vals, err := c.opts.Reader.Values(snap.ChangeSet)
			if err != nil {
				return err
			}

			c.Lock()
			c.snap = snap
			c.vals = vals
			c.Unlock()
		}
	}

	for {
		w, err := c.opts.Loader.Watch()
		if err != nil {
			time.Sleep(time.Second)
			continue
		}

		done := make(chan bool)
		go func() {
			select {
			case <-done:
			case <-c.exit:
			}
			w.Stop()
		}()

		if err := watch(w); err != nil {
			time.Sleep(time.Second)
		}
		close(done)

		select {
		case <-c.exit:
			return
		default:
		}
	}
}

func (c *config) sync() error {
	snap, err := c.opts.Loader.Snapshot()
	if err != nil {
		return err
	}
	vals, err := c.opts.Reader.Values(snap.ChangeSet)
	if err != nil {
		return err
	}

	c.Lock()
	c.snap = snap
	c.vals = vals
	c.Unlock()
	return nil
}

func (c *config) Load(sources ...source.Source) error {
	if err := c.opts.Loader.Load(sources...); err != nil {
		return err
	}
	return c.sync()
}

func (c *config) Get(path ...string) reader.Value {
	c.RLock()
	defer c.RUnlock()

	if c.vals != nil {
		return c.vals.Get(path...)
	}
	return newValue()
}

func (c *config) Scan(v interface{}) error {
	c.RLock()
	defer c.RUnlock()

	if c.vals == nil {
		return nil
	}
	return c.vals.Scan(v)
}

func (c *config) Bytes() []byte {
	c.RLock()
	defer c.RUnlock()

	if c.vals == nil {
		return []byte{}
	}
	return c.vals.Bytes()
}

func (c *config) Sync() error {
	if err := c.opts.Loader.Sync(); err != nil {
		return err
	}
	return c.sync()
}

func (c *config) Watch(path ...string) (Watcher, error) {
	value := c.Get(path...)

	w, err := c.opts.Loader.Watch(path...)
	if err != nil {
		return nil, err
	}

	return &watcher{
		lw:    w,
		rd:    c.opts.Reader,
		path:  path,
		value: value,
	}, nil
}

func (c *config) Close() error {
	select {
	case <-c.exit:
	default:
		close(c.exit)
	}
	return c.opts.Loader.Close()
}

type watcher struct {
	lw    loader.Watcher
	rd    reader.Reader
	path  []string
	value reader.Value
}

func (w *watcher) Next() (reader.Value, error) {
	snap, err := w.lw.Next()
	if err != nil {
		return nil, err
	}

	vals, err := w.rd.Values(snap.ChangeSet)
	if err != nil {
		return nil, err
	}

	w.value = vals.Get()
	return w.value, nil
}

func (w *watcher) Stop() error {
	return w.lw.Stop()
}

// Load 使用默认实例加载配置源
func Load(sources ...source.Source) error {
	return DefaultConfig.Load(sources...)
}

// Get 使用默认实例获取配置值
func Get(path ...string) reader.Value {
	return DefaultConfig.Get(path...)
}

// Scan 使用默认实例解析整棵配置树
func Scan(v interface{}) error {
	return DefaultConfig.Scan(v)
}

// Bytes 使用默认实例返回配置数据
func Bytes() []byte {
	return DefaultConfig.Bytes()
}

// Sync 使用默认实例同步配置源
func Sync() error {
	return DefaultConfig.Sync()
}

// Watch 使用默认实例监听配置变化
func Watch(path ...string) (Watcher, error) {
	return DefaultConfig.Watch(path...)
}

// Close 关闭默认实例
func Close() error {
	return DefaultConfig.Close()
}
