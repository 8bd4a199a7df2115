package settings

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/logger"
)

const defaultDebounce = 200 * time.Millisecond

// Watcher reloads the settings file whenever it is written or recreated.
// The parent directory is watched so editors that replace the file by rename
// are picked up too.
type Watcher struct {
	loader   *Loader
	dst      Saver
	onChange func(domain.Settings)
	logger   logger.Logger
	debounce time.Duration
}

// NewWatcher creates a watcher. onChange runs after every successful reload.
func NewWatcher(loader *Loader, dst Saver, log logger.Logger, onChange func(domain.Settings)) *Watcher {
	return &Watcher{
		loader:   loader,
		dst:      dst,
		onChange: onChange,
		logger:   log,
		debounce: defaultDebounce,
	}
}

// Run watches until ctx is cancelled. Invalid files are logged and the
// previous settings stay in effect.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	path, err := filepath.Abs(w.loader.Path())
	if err != nil {
		return fmt.Errorf("failed to resolve settings path: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	w.logger.Info("👀 watching settings file", logger.String("path", path))

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			pending = time.After(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("settings watcher error", logger.Error(err))
		case <-pending:
			pending = nil
			w.reload(ctx)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	s, err := w.loader.Apply(ctx, w.dst)
	if err != nil {
		w.logger.Error("failed to reload settings file", logger.Error(err))
		return
	}
	w.logger.Info("🔄 settings reloaded",
		logger.String("repo", s.RepoOwner+"/"+s.RepoName),
		logger.String("strategy", string(s.PartitionStrategy)))
	if w.onChange != nil {
		w.onChange(s)
	}
}
