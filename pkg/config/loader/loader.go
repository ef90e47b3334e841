package loader

import (
	"github.com/ninja0404/token-pilot/pkg/config/reader"
	"github.com/ninja0404/token-pilot/pkg/config/source"
)

// Loader 管理多个配置源的加载与合并
type Loader interface {
	// Close 停止加载器
	Close() error
	// Load 加载配置源
	Load(...source.Source) error
	// Snapshot 返回当前合并后的快照
	Snapshot() (*Snapshot, error)
	// Sync 强制同步所有配置源
	Sync() error
	// Watch 监听指定路径的值变化
	Watch(...string) (Watcher, error)
	String() string
}

// Watcher 监听合并后配置的变化
type Watcher interface {
	Next() (*Snapshot, error)
	Stop() error
}

// Snapshot 某一时刻的合并配置
type Snapshot struct {
	// 合并后的变更集
	ChangeSet *source.ChangeSet
	// 快照版本号
	Version string
}

// Copy 深拷贝快照
func Copy(s *Snapshot) *Snapshot {
	cs := *s.ChangeSet

	data := make([]byte, len(s.ChangeSet.Data))
	copy(data, s.ChangeSet.Data)
	cs.Data = data

	return &Snapshot{
		ChangeSet: &cs,
		Version:   s.Version,
	}
}

type Options struct {
	Reader reader.Reader
	Source []source.Source
}

type Option func(o *Options)
