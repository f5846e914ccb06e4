// Package watcher tails a directory tree and feeds file events into the
// ingestion pipeline through a buffered queue with a single consumer.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/docdex-io/docdex/internal/domain"
	"github.com/docdex-io/docdex/internal/logger"
	"github.com/docdex-io/docdex/internal/metrics"
)

// Processor consumes file events one at a time.
type Processor interface {
	HandleEvent(ctx context.Context, event domain.FileEvent) error
}

// Config holds watcher settings.
type Config struct {
	Root       string
	Extensions []string
	Recursive  bool
	QueueSize  int
}

// Watcher owns the fsnotify subscription and the event queue. Startup
// backlog is fully processed before live watching begins, so a restart
// converges the index with the directory state first.
type Watcher struct {
	root       string
	extensions map[string]struct{}
	recursive  bool
	processor  Processor

	queue     chan item
	fsw       *fsnotify.Watcher
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// item carries either a file event or a backlog barrier. The consumer
// closes barrier to signal that everything queued before it is done.
type item struct {
	event   domain.FileEvent
	barrier chan struct{}
}

// New creates a watcher. processor is invoked for every event.
func New(cfg Config, processor Processor) *Watcher {
	exts := make(map[string]struct{}, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1024
	}

	return &Watcher{
		root:       cfg.Root,
		extensions: exts,
		recursive:  cfg.Recursive,
		processor:  processor,
		queue:      make(chan item, queueSize),
	}
}

// Start scans the existing tree, waits for that backlog to drain, then
// begins live watching. It returns once live watching is in place; event
// handling continues in the background until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	log := logger.FromContext(ctx).With(zap.String("root", w.root))

	info, err := os.Stat(w.root)
	if err != nil {
		return fmt.Errorf("stat watch root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch root %s is not a directory", w.root)
	}

	w.wg.Add(1)
	go w.consume(ctx, log)

	backlog, err := w.scanExisting(ctx)
	if err != nil {
		w.abort()
		return err
	}
	log.Info("queued existing files", zap.Int("count", backlog))

	// Block until the backlog is processed before going live.
	barrier := make(chan struct{})
	select {
	case w.queue <- item{barrier: barrier}:
	case <-ctx.Done():
		w.abort()
		return ctx.Err()
	}
	select {
	case <-barrier:
	case <-ctx.Done():
		w.abort()
		return ctx.Err()
	}
	log.Info("startup backlog drained")

	w.fsw, err = fsnotify.NewWatcher()
	if err != nil {
		w.abort()
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := w.addWatches(); err != nil {
		w.fsw.Close()
		w.fsw = nil
		w.abort()
		return err
	}

	w.wg.Add(1)
	go w.watch(ctx, log)

	log.Info("file watcher started",
		zap.Bool("recursive", w.recursive),
		zap.Strings("extensions", extensionList(w.extensions)))
	return nil
}

// Stop shuts down live watching and waits for in-flight events to finish.
func (w *Watcher) Stop() {
	if w.fsw != nil {
		w.closeOnce.Do(func() { w.fsw.Close() })
	}
	w.wg.Wait()
}

// abort tears down the consumer when Start fails before live watching.
func (w *Watcher) abort() {
	close(w.queue)
	w.wg.Wait()
}

// scanExisting walks the tree in lexical order and queues a startup event
// per matching file.
func (w *Watcher) scanExisting(ctx context.Context) (int, error) {
	count := 0
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !w.recursive && path != w.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !w.matches(path) {
			return nil
		}
		select {
		case w.queue <- item{event: domain.FileEvent{Kind: domain.EventStartup, Path: path}}:
			metrics.FileEventsTotal.WithLabelValues(string(domain.EventStartup)).Inc()
			count++
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err != nil {
		return count, fmt.Errorf("scan existing files: %w", err)
	}
	return count, nil
}

// addWatches registers the root and, in recursive mode, every subdirectory.
func (w *Watcher) addWatches() error {
	if !w.recursive {
		if err := w.fsw.Add(w.root); err != nil {
			return fmt.Errorf("watch %s: %w", w.root, err)
		}
		return nil
	}
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("register watches: %w", err)
	}
	return nil
}

// watch translates fsnotify events into queue items until the watcher
// closes, then closes the queue.
func (w *Watcher) watch(ctx context.Context, log *zap.Logger) {
	defer w.wg.Done()
	defer close(w.queue)

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFsEvent(ctx, log, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn("fsnotify error", zap.Error(err))
		case <-ctx.Done():
			w.closeOnce.Do(func() { w.fsw.Close() })
			return
		}
	}
}

func (w *Watcher) handleFsEvent(ctx context.Context, log *zap.Logger, ev fsnotify.Event) {
	var kind domain.EventKind
	switch {
	case ev.Op.Has(fsnotify.Create):
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if w.recursive {
				if err := w.fsw.Add(ev.Name); err != nil {
					log.Warn("watch new directory", zap.String("path", ev.Name), zap.Error(err))
				}
			}
			return
		}
		kind = domain.EventCreated
	case ev.Op.Has(fsnotify.Write):
		kind = domain.EventModified
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		kind = domain.EventDeleted
	default:
		return
	}

	if !w.matches(ev.Name) {
		return
	}

	select {
	case w.queue <- item{event: domain.FileEvent{Kind: kind, Path: ev.Name}}:
		metrics.FileEventsTotal.WithLabelValues(string(kind)).Inc()
	case <-ctx.Done():
	}
}

// consume is the single queue consumer. A failed event is logged and the
// loop moves on.
func (w *Watcher) consume(ctx context.Context, log *zap.Logger) {
	defer w.wg.Done()

	for it := range w.queue {
		if it.barrier != nil {
			close(it.barrier)
			continue
		}
		if err := w.processor.HandleEvent(ctx, it.event); err != nil {
			log.Error("handle file event",
				zap.String("kind", string(it.event.Kind)),
				zap.String("path", it.event.Path),
				zap.Error(err))
		}
	}
}

func (w *Watcher) matches(path string) bool {
	_, ok := w.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

func extensionList(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for ext := range set {
		out = append(out, ext)
	}
	return out
}
