package memory

import (
	"bytes"
	"container/list"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ninja0404/token-pilot/pkg/config/loader"
	"github.com/ninja0404/token-pilot/pkg/config/reader"
	"github.com/ninja0404/token-pilot/pkg/config/reader/json"
	"github.com/ninja0404/token-pilot/pkg/config/source"
)

type memory struct {
	exit chan bool
	opts loader.Options

	sync.RWMutex
	// 当前合并后的快照
	snap *loader.Snapshot
	// 当前配置值
	vals reader.Values
	// 各配置源最近一次的变更集，下标与sources对齐
	sets    []*source.ChangeSet
	sources []source.Source

	watchers *list.List
}

type watcher struct {
	exit    chan bool
	path    []string
	value   reader.Value
	reader  reader.Reader
	updates chan reader.Value
}

func (m *memory) watch(idx int, s source.Source) {
	// 监听单个配置源，变更后刷新对应的变更集并重新合并
	watch := func(idx int, s source.Watcher) error {
		for {
			cs, err := s.Next()
			if err != nil {
				return err
			}

			m.Lock()
			m.sets[idx] = cs
			m.Unlock()

			if err := m.reload(); err != nil {
				return err
			}
		}
	}

	for {
		// 先停止的话直接退出
		select {
		case <-m.exit:
			return
		default:
		}

		w, err := s.Watch()
		if err != nil {
			time.Sleep(time.Second)
			continue
		}

		done := make(chan bool)
		go func() {
			select {
			case <-done:
			case <-m.exit:
			}
			w.Stop()
		}()

		if err := watch(idx, w); err != nil {
			time.Sleep(time.Second)
		}
		close(done)
	}
}

func (m *memory) reload() error {
	m.Lock()

	set, err := m.opts.Reader.Merge(m.sets...)
	if err != nil {
		m.Unlock()
		return err
	}

	vals, err := m.opts.Reader.Values(set)
	if err != nil {
		m.Unlock()
		return err
	}

	m.vals = vals
	m.snap = &loader.Snapshot{
		ChangeSet: set,
		Version:   genVer(),
	}
	m.Unlock()

	m.update()
	return nil
}

func (m *memory) update() {
	m.RLock()
	vals := m.vals
	watchers := make([]*watcher, 0, m.watchers.Len())
	for e := m.watchers.Front(); e != nil; e = e.Next() {
		watchers = append(watchers, e.Value.(*watcher))
	}
	m.RUnlock()

	if vals == nil {
		return
	}

	for _, w := range watchers {
		select {
		case w.updates <- vals.Get(w.path...):
		default:
		}
	}
}

func (m *memory) Load(sources ...source.Source) error {
	var gerr error

	for _, s := range sources {
		set, err := s.Read()
		if err != nil {
			gerr = err
			continue
		}

		m.Lock()
		m.sources = append(m.sources, s)
		m.sets = append(m.sets, set)
		idx := len(m.sets) - 1
		m.Unlock()

		go m.watch(idx, s)
	}

	if err := m.reload(); err != nil {
		return err
	}
	return gerr
}

func (m *memory) Snapshot() (*loader.Snapshot, error) {
	m.RLock()
	if m.snap == nil {
		m.RUnlock()
		if err := m.Sync(); err != nil {
			return nil, err
		}
		m.RLock()
	}
	snap := loader.Copy(m.snap)
	m.RUnlock()
	return snap, nil
}

func (m *memory) Sync() error {
	var sets []*source.ChangeSet

	m.Lock()
	sources := m.sources
	m.Unlock()

	for _, s := range sources {
		cs, err := s.Read()
		if err != nil {
			return err
		}
		sets = append(sets, cs)
	}

	m.Lock()
	m.sets = sets
	m.Unlock()

	return m.reload()
}

func (m *memory) Watch(path ...string) (loader.Watcher, error) {
	m.RLock()
	vals := m.vals
	m.RUnlock()
	if vals == nil {
		return nil, errors.New("no values loaded")
	}

	w := &watcher{
		exit:    make(chan bool),
		path:    path,
		value:   vals.Get(path...),
		reader:  m.opts.Reader,
		updates: make(chan reader.Value, 1),
	}

	m.Lock()
	e := m.watchers.PushBack(w)
	m.Unlock()

	go func() {
		<-w.exit
		m.Lock()
		m.watchers.Remove(e)
		m.Unlock()
	}()

	return w, nil
}

func (m *memory) Close() error {
	select {
	case <-m.exit:
	default:
		close(m.exit)
	}
	return nil
}

func (m *memory) String() string {
	return "memory"
}

func (w *watcher) Next() (*loader.Snapshot, error) {
	for {
		select {
		case <-w.exit:
			return nil, errors.New("watcher stopped")
		case v := <-w.updates:
			if bytes.Equal(w.value.Bytes(), v.Bytes()) {
				continue
			}
			w.value = v

			cs := &source.ChangeSet{
				Data:      v.Bytes(),
				Format:    w.reader.String(),
				Source:    "memory",
				Timestamp: time.Now(),
			}
			cs.Checksum = cs.Sum()

			return &loader.Snapshot{
				ChangeSet: cs,
				Version:   genVer(),
			}, nil
		}
	}
}

func (w *watcher) Stop() error {
	select {
	case <-w.exit:
	default:
		close(w.exit)
	}
	return nil
}

func genVer() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// NewLoader 创建内存加载器
func NewLoader(opts ...loader.Option) loader.Loader {
	options := loader.Options{
		Reader: json.NewReader(),
	}
	for _, o := range opts {
		o(&options)
	}

	m := &memory{
		exit:     make(chan bool),
		opts:     options,
		watchers: list.New(),
	}

	m.sets = make([]*source.ChangeSet, 0, len(options.Source))
	m.sources = make([]source.Source, 0, len(options.Source))

	for i, s := range options.Source {
		m.sources = append(m.sources, s)
		m.sets = append(m.sets, &source.ChangeSet{Source: s.String()})
		go m.watch(i, s)
	}

	return m
}
