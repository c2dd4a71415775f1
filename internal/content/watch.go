package content

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Provider serves the current Site and swaps it on reload.
type Provider struct {
	path   string
	logger *zap.Logger
	site   atomic.Pointer[Site]
}

// NewProvider loads content from path (empty for the embedded content).
func NewProvider(path string, logger *zap.Logger) (*Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	site, err := Load(path)
	if err != nil {
		return nil, err
	}
	p := &Provider{path: path, logger: logger}
	p.site.Store(site)
	return p, nil
}

// Site returns the current content.
func (p *Provider) Site() *Site {
	return p.site.Load()
}

// Reload re-reads the content file. On error the current content is kept.
func (p *Provider) Reload() error {
	site, err := Load(p.path)
	if err != nil {
		return err
	}
	p.site.Store(site)
	return nil
}

// Watch reloads content whenever the file changes, until ctx is done.
// Embedded content has nothing to watch and Watch returns immediately.
func (p *Provider) Watch(ctx context.Context) error {
	if p.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create content watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace files on save, so watch the directory.
	dir := filepath.Dir(p.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(p.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := p.Reload(); err != nil {
				p.logger.Warn("content reload failed, keeping previous content", zap.Error(err))
				continue
			}
			p.logger.Info("content reloaded", zap.String("path", p.path))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Warn("content watcher error", zap.Error(err))
		}
	}
}
