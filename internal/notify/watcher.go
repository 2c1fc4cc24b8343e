package notify

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/scrypster/coref/internal/config"
	"github.com/scrypster/coref/internal/docio"
)

// Processor handles one settled document file.
type Processor interface {
	Process(ctx context.Context, path string) error
}

// DirWatcher watches a directory for document files and hands each one to
// a Processor once writes to it have been quiet for the debounce period.
type DirWatcher struct {
	dir       string
	debounce  time.Duration
	processor Processor
	logger    *slog.Logger

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	timers  map[string]*time.Timer
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewDirWatcher creates a watcher for cfg.Dir.
func NewDirWatcher(cfg config.WatchConfig, processor Processor, logger *slog.Logger) *DirWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirWatcher{
		dir:       cfg.Dir,
		debounce:  cfg.Debounce,
		processor: processor,
		logger:    logger,
		timers:    make(map[string]*time.Timer),
		done:      make(chan struct{}),
	}
}

// Start begins watching. Documents already present without an output file
// are processed first. Call Stop() to clean up.
func (dw *DirWatcher) Start(ctx context.Context) error {
	if dw.processor == nil {
		return errors.New("notify: nil processor")
	}
	if err := os.MkdirAll(dw.dir, 0o700); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(dw.dir); err != nil {
		_ = w.Close()
		return err
	}
	dw.watcher = w
	dw.ctx, dw.cancel = context.WithCancel(ctx)

	dw.drainExisting()

	go dw.loop()
	dw.logger.Info("watching for documents", "dir", dw.dir, "debounce", dw.debounce)
	return nil
}

// Stop shuts down the watcher and waits for in-flight files.
func (dw *DirWatcher) Stop() {
	if dw.watcher == nil {
		return
	}
	dw.cancel()
	_ = dw.watcher.Close()
	<-dw.done

	dw.mu.Lock()
	for path, t := range dw.timers {
		if t.Stop() {
			dw.wg.Done()
		}
		delete(dw.timers, path)
	}
	dw.mu.Unlock()
	dw.wg.Wait()
}

func (dw *DirWatcher) loop() {
	defer close(dw.done)
	for {
		select {
		case evt, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if evt.Op&(fsnotify.Create|fsnotify.Write) != 0 && docio.IsDocumentFile(evt.Name) {
				dw.schedule(evt.Name)
			}
		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.logger.Warn("watcher error", "error", err)
		case <-dw.ctx.Done():
			return
		}
	}
}

// schedule (re)arms the debounce timer for path.
func (dw *DirWatcher) schedule(path string) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if t, ok := dw.timers[path]; ok && t.Stop() {
		t.Reset(dw.debounce)
		return
	}
	dw.wg.Add(1)
	dw.timers[path] = time.AfterFunc(dw.debounce, func() {
		defer dw.wg.Done()
		dw.mu.Lock()
		delete(dw.timers, path)
		dw.mu.Unlock()
		dw.processFile(path)
	})
}

func (dw *DirWatcher) drainExisting() {
	entries, err := os.ReadDir(dw.dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		path := filepath.Join(dw.dir, entry.Name())
		if entry.IsDir() || !docio.IsDocumentFile(path) {
			continue
		}
		if _, err := os.Stat(docio.OutputPath(path)); err == nil {
			continue
		}
		dw.processFile(path)
	}
}

func (dw *DirWatcher) processFile(path string) {
	if dw.ctx.Err() != nil {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return // removed before it settled
	}
	// Errors are logged by the processor; one bad file never stops the watch.
	_ = dw.processor.Process(dw.ctx, path)
}
