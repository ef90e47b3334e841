package file

import (
	"os"

	"github.com/fsnotify/fsnotify"

	"github.com/ninja0404/token-pilot/pkg/config/source"
)

type watcher struct {
	f *file

	fw   *fsnotify.Watcher
	exit chan bool
}

func newWatcher(f *file) (source.Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fw.Add(f.path); err != nil {
		fw.Close()
		return nil, err
	}

	return &watcher{
		f:    f,
		fw:   fw,
		exit: make(chan bool),
	}, nil
}

func (w *watcher) Next() (*source.ChangeSet, error) {
	select {
	case <-w.exit:
		return nil, source.ErrWatcherStopped
	default:
	}

	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return nil, source.ErrWatcherStopped
			}

			// 编辑器保存常用rename+create，重新挂上监听
			if event.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				if _, err := os.Stat(w.f.path); err == nil {
					w.fw.Add(w.f.path)
				}
			}

			cs, err := w.f.Read()
			if err != nil {
				return nil, err
			}
			return cs, nil
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil, source.ErrWatcherStopped
			}
			return nil, err
		case <-w.exit:
			return nil, source.ErrWatcherStopped
		}
	}
}

func (w *watcher) Stop() error {
	select {
	case <-w.exit:
	default:
		close(w.exit)
	}
	return w.fw.Close()
}
