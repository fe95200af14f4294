// Package filesystem keeps a directory of study material in sync with the
// document store.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// DefaultDebounce is how long a path must stay quiet before it is synced.
const DefaultDebounce = 500 * time.Millisecond

// ChangeType says what a sync did to a document.
type ChangeType string

const (
	// ChangeIngested means the file was ingested or re-ingested.
	ChangeIngested ChangeType = "ingested"
	// ChangeDeleted means documents for a vanished path were removed.
	ChangeDeleted ChangeType = "deleted"
)

// Change reports the outcome of syncing one path.
type Change struct {
	Path       string
	Type       ChangeType
	DocumentID string
	Err        error
}

// SupportFunc reports whether a file can be ingested.
type SupportFunc func(path string) bool

// Watcher ingests supported files under a directory as they change and
// deletes documents whose files disappear.
type Watcher struct {
	root     string
	docs     driving.DocumentService
	supports SupportFunc
	debounce time.Duration
	noIndex  bool
	onChange func(Change)

	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the per-path quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithNoIndex skips the vector index build on ingest.
func WithNoIndex(noIndex bool) Option {
	return func(w *Watcher) { w.noIndex = noIndex }
}

// WithChangeHook is called after every sync, including failed ones.
func WithChangeHook(fn func(Change)) Option {
	return func(w *Watcher) { w.onChange = fn }
}

// NewWatcher creates a watcher over root, which must be a directory.
func NewWatcher(root string, docs driving.DocumentService, supports SupportFunc, opts ...Option) (*Watcher, error) {
	if docs == nil {
		return nil, fmt.Errorf("%w: document service is required", domain.ErrInvalidInput)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, root)
	}
	if supports == nil {
		supports = func(string) bool { return true }
	}

	w := &Watcher{
		root:     abs,
		docs:     docs,
		supports: supports,
		debounce: DefaultDebounce,
		timers:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Root returns the absolute watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Scan ingests every supported, non-hidden file under the root once.
// It returns how many files were ingested.
func (w *Watcher) Scan(ctx context.Context) (int, error) {
	var files []string
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != w.root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && d.Type().IsRegular() && w.supports(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", w.root, err)
	}

	ingested := 0
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return ingested, err
		}
		if w.sync(ctx, path).Err == nil {
			ingested++
		}
	}
	return ingested, nil
}

// Run watches the tree until ctx is cancelled. Pending syncs are
// abandoned on return.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addTree(fsw, w.root); err != nil {
		return err
	}
	logger.Info("watching %s", w.root)

	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fsw, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return
	}
	path := filepath.Clean(event.Name)
	rel, err := filepath.Rel(w.root, path)
	if err != nil || isHidden(rel) {
		return
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addTree(fsw, path); err != nil {
				logger.Warn("watch %s: %v", path, err)
			}
			return
		}
	}
	w.schedule(ctx, path)
}

// addTree registers dir and its non-hidden subdirectories.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// schedule restarts the path's debounce timer.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok && t.Stop() {
		w.pending.Done()
	}
	w.pending.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		defer w.pending.Done()
		w.mu.Lock()
		if w.timers[path] == t {
			delete(w.timers, path)
		}
		w.mu.Unlock()
		w.sync(ctx, path)
	})
	w.timers[path] = t
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	for path, t := range w.timers {
		if t.Stop() {
			w.pending.Done()
		}
		delete(w.timers, path)
	}
	w.mu.Unlock()
	w.pending.Wait()
}

// sync brings the store in line with what is on disk at path.
func (w *Watcher) sync(ctx context.Context, path string) Change {
	var change Change
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		change = w.remove(ctx, path)
	case err != nil:
		change = Change{Path: path, Err: err}
	case !info.Mode().IsRegular() || !w.supports(path):
		return Change{Path: path}
	default:
		change = w.ingest(ctx, path)
	}

	if change.Err != nil {
		logger.Warn("sync %s: %v", path, change.Err)
	} else if change.Type != "" {
		logger.Info("%s %s", change.Type, path)
	}
	if w.onChange != nil && (change.Type != "" || change.Err != nil) {
		w.onChange(change)
	}
	return change
}

func (w *Watcher) ingest(ctx context.Context, path string) Change {
	result, err := w.docs.Ingest(ctx, driving.IngestRequest{Path: path, NoIndex: w.noIndex})
	if err != nil {
		return Change{Path: path, Type: ChangeIngested, Err: err}
	}
	if result.IndexError != "" {
		logger.Warn("index %s: %s", path, result.IndexError)
	}
	return Change{Path: path, Type: ChangeIngested, DocumentID: result.Document.ID}
}

// remove deletes the document for path, or every document beneath it when
// path was a directory.
func (w *Watcher) remove(ctx context.Context, path string) Change {
	docs, err := w.docs.List(ctx)
	if err != nil {
		return Change{Path: path, Type: ChangeDeleted, Err: err}
	}

	change := Change{Path: path}
	for i := range docs {
		doc := &docs[i].Document
		if !within(LocalPath(doc.URI), path) {
			continue
		}
		if err := w.docs.Delete(ctx, doc.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return Change{Path: path, Type: ChangeDeleted, DocumentID: doc.ID, Err: err}
		}
		change.Type = ChangeDeleted
		change.DocumentID = doc.ID
	}
	return change
}
