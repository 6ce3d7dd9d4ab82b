package app

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	mapimage "orienteer-map/internal/image"
)

// MapWatcher reports when the map image on disk is rewritten, for example
// after a re-export from the mapping program. Events are coalesced: the
// callback runs once the file has been quiet for the settle interval.
type MapWatcher struct {
	path    string
	settle  time.Duration
	watcher *fsnotify.Watcher

	mu       sync.Mutex
	timer    *time.Timer
	onChange func(path string)
	done     chan struct{}
}

// NewMapWatcher watches path. The directory is watched so that editors that
// replace the file atomically are seen too.
func NewMapWatcher(path string, settle time.Duration) (*MapWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	return &MapWatcher{
		path:    abs,
		settle:  settle,
		watcher: w,
		done:    make(chan struct{}),
	}, nil
}

// OnChange sets the callback. It is called from a background goroutine.
func (m *MapWatcher) OnChange(callback func(path string)) {
	m.mu.Lock()
	m.onChange = callback
	m.mu.Unlock()
}

// Path returns the watched file.
func (m *MapWatcher) Path() string {
	return m.path
}

// Start begins watching in a background goroutine.
func (m *MapWatcher) Start() {
	go m.watchLoop()
}

// Stop stops the watcher goroutine and releases the watch.
func (m *MapWatcher) Stop() error {
	close(m.done)
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
	}
	m.mu.Unlock()
	return m.watcher.Close()
}

func (m *MapWatcher) watchLoop() {
	for {
		select {
		case <-m.done:
			return
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != m.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				m.schedule()
			}
		case _, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (m *MapWatcher) schedule() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.settle, func() {
		m.mu.Lock()
		cb := m.onChange
		m.mu.Unlock()
		if cb != nil {
			cb(m.path)
		}
	})
}

// ReloadMap decodes the current map file again, keeping zoom and pan.
func (s *State) ReloadMap() error {
	s.mu.Lock()
	r := s.raster
	s.mu.Unlock()
	if r == nil || r.Path == "" {
		return ErrNoMap
	}
	next, err := mapimage.Load(r.Path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.setRaster(next)
	s.unlock()
	return nil
}

// WatchMap reloads the map whenever its file changes on disk. The returned
// watcher must be stopped by the caller.
func (s *State) WatchMap(settle time.Duration) (*MapWatcher, error) {
	s.mu.Lock()
	r := s.raster
	s.mu.Unlock()
	if r == nil || r.Path == "" {
		return nil, ErrNoMap
	}

	w, err := NewMapWatcher(r.Path, settle)
	if err != nil {
		return nil, err
	}
	w.OnChange(func(string) {
		if err := s.ReloadMap(); err != nil {
			s.log.Warn().Err(err).Str("path", r.Path).Msg("map reload failed")
		}
	})
	w.Start()
	return w, nil
}
