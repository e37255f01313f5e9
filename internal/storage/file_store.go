package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/khoahotran/portfolio-site/pkg/logger"
)

const tempPrefix = ".tmp-"

// FileStore keeps one file per key in a directory. Separate processes that
// point at the same directory observe each other's writes through fsnotify.
type FileStore struct {
	dir    string
	logger logger.Logger
}

func NewFileStore(dir string, log logger.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir, logger: log}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key)
}

func (s *FileStore) Load(key string) ([]byte, error) {
	b, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrKeyNotFound
	}
	return b, err
}

// Store writes through a temp file and rename so watchers never read a
// half-written value.
func (s *FileStore) Store(key string, value []byte) error {
	tmp, err := os.CreateTemp(s.dir, tempPrefix+key+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(key))
}

func (s *FileStore) Remove(key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FileStore) Watch(fn func(Change)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				s.dispatch(evt, fn)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("Store watcher error", zap.String("dir", s.dir), zap.Error(err))
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			watcher.Close()
			<-done
		})
	}, nil
}

func (s *FileStore) dispatch(evt fsnotify.Event, fn func(Change)) {
	key := filepath.Base(evt.Name)
	if strings.HasPrefix(key, tempPrefix) {
		return
	}
	switch {
	case evt.Has(fsnotify.Create), evt.Has(fsnotify.Write):
		value, err := s.Load(key)
		if err != nil {
			return
		}
		fn(Change{Key: key, Value: value})
	case evt.Has(fsnotify.Remove), evt.Has(fsnotify.Rename):
		fn(Change{Key: key})
	}
}
