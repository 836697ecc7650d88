package dataset

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// CachedSource keeps the last table loaded from a file-backed source and
// drops it when the file changes. Changes are detected with an fsnotify
// watcher on the file's directory; when no watcher can be started the
// file's modification time is compared on every Load instead.
type CachedSource struct {
	inner  Source
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	table   *Table
	modTime time.Time

	watcher   *fsnotify.Watcher
	done      chan struct{}
	closeOnce sync.Once
}

// NewCachedSource wraps inner, which reads path. When watch is false the
// modification-time check is used.
func NewCachedSource(inner Source, path string, watch bool, logger *slog.Logger) *CachedSource {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cs := &CachedSource{
		inner:  inner,
		path:   filepath.Clean(path),
		logger: logger,
		done:   make(chan struct{}),
	}
	if !watch {
		return cs
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("file watcher unavailable, falling back to mtime checks", "path", path, "error", err)
		return cs
	}
	if err := watcher.Add(filepath.Dir(cs.path)); err != nil {
		logger.Warn("cannot watch data directory, falling back to mtime checks", "path", path, "error", err)
		watcher.Close()
		return cs
	}
	cs.watcher = watcher
	go cs.watch()
	return cs
}

// Describe implements Source.
func (c *CachedSource) Describe() string {
	return "cached(" + c.inner.Describe() + ")"
}

// Load implements Source. The returned table is a copy callers may modify.
func (c *CachedSource) Load(ctx context.Context) (*Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.table != nil && c.fresh() {
		return c.table.Clone(), nil
	}

	table, err := c.inner.Load(ctx)
	if err != nil {
		c.table = nil
		return nil, err
	}
	c.table = table
	if info, err := os.Stat(c.path); err == nil {
		c.modTime = info.ModTime()
	}
	c.logger.Debug("data source loaded", "source", c.inner.Describe(), "rows", table.Len())
	return table.Clone(), nil
}

// fresh reports whether the cached table can be served. Callers hold mu.
func (c *CachedSource) fresh() bool {
	if c.watcher != nil {
		return true
	}
	info, err := os.Stat(c.path)
	if err != nil {
		return false
	}
	return info.ModTime().Equal(c.modTime)
}

// Invalidate drops the cached table.
func (c *CachedSource) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table = nil
}

// Cached reports whether a table is currently held.
func (c *CachedSource) Cached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.table != nil
}

// Close stops the watcher. Safe to call more than once.
func (c *CachedSource) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		if c.watcher != nil {
			err = c.watcher.Close()
		}
	})
	return err
}

func (c *CachedSource) watch() {
	for {
		select {
		case <-c.done:
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != c.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				c.logger.Debug("data source changed", "path", c.path, "op", event.Op.String())
				c.Invalidate()
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn("data watcher error", "error", err)
		}
	}
}
