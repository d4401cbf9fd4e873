package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// settleDelay gives the capture shell time to finish writing a file
// before the watcher reads it.
const settleDelay = 200 * time.Millisecond

// InboxWatcher ingests raw captures dropped as JSON files into a
// directory by the extension or Electron shell. Each file is stored as
// a memory and then deleted; files that fail to decode are renamed
// aside so they never loop.
type InboxWatcher struct {
	svc    *MemoryService
	dir    string
	logger *zap.Logger
}

func NewInboxWatcher(svc *MemoryService, dir string, logger *zap.Logger) *InboxWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InboxWatcher{
		svc:    svc,
		dir:    dir,
		logger: logger,
	}
}

// Run sweeps the directory once, then watches it until ctx is
// cancelled.
func (w *InboxWatcher) Run(ctx context.Context) error {
	if _, err := os.Stat(w.dir); err != nil {
		return fmt.Errorf("inbox directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch inbox: %w", err)
	}

	w.sweep(ctx)
	w.logger.Info("watching inbox", zap.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !isCaptureFile(event.Name) {
				continue
			}
			time.Sleep(settleDelay)
			w.ingest(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

// sweep ingests captures that were already waiting when the watcher
// started.
func (w *InboxWatcher) sweep(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("sweep inbox", zap.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !isCaptureFile(entry.Name()) {
			continue
		}
		w.ingest(ctx, filepath.Join(w.dir, entry.Name()))
	}
}

func (w *InboxWatcher) ingest(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Warn("read capture", zap.String("file", path), zap.Error(err))
		}
		return
	}

	var raw RawCapture
	if err := json.Unmarshal(data, &raw); err != nil {
		w.logger.Warn("malformed capture", zap.String("file", path), zap.Error(err))
		w.quarantine(path)
		return
	}

	out, err := w.svc.StoreMemory(ctx, raw)
	if err != nil {
		w.logger.Warn("store capture", zap.String("file", path), zap.Error(err))
		return
	}

	if out.Skipped {
		w.logger.Info("capture skipped",
			zap.String("file", path),
			zap.String("reason", out.SkipReason),
		)
	} else {
		w.logger.Info("capture stored",
			zap.String("file", path),
			zap.String("memory_id", out.MemoryID),
			zap.Int("relationships", out.Relationships),
		)
	}

	if err := os.Remove(path); err != nil {
		w.logger.Warn("remove capture", zap.String("file", path), zap.Error(err))
	}
}

// quarantine renames an undecodable file out of the watch pattern.
func (w *InboxWatcher) quarantine(path string) {
	if err := os.Rename(path, path+".bad"); err != nil {
		w.logger.Warn("quarantine capture", zap.String("file", path), zap.Error(err))
	}
}

func isCaptureFile(name string) bool {
	return strings.HasSuffix(name, ".json")
}
