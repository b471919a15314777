package keywords

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"resumatch/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// FileStopwords serves a stop-word list loaded from disk. Reloads replace
// the whole set atomically, so readers never observe a partial list.
type FileStopwords struct {
	path     string
	language string
	current  atomic.Pointer[StopwordSet]
	reloads  atomic.Int64

	mu            sync.Mutex
	watcher       *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer
	stopChan      chan struct{}
	logger        *errors.Logger
}

// LoadStopwordsFile reads path and returns a provider serving its words.
func LoadStopwordsFile(path, language string, logger *errors.Logger) (*FileStopwords, error) {
	fs := &FileStopwords{
		path:          path,
		language:      language,
		debounceDelay: 500 * time.Millisecond,
		logger:        logger,
	}
	if err := fs.Reload(); err != nil {
		return nil, err
	}
	return fs, nil
}

// Reload re-reads the file. On error the previous set stays in place.
func (fs *FileStopwords) Reload() error {
	f, err := os.Open(fs.path)
	if err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("failed to open stop-word file %s", fs.path), err)
	}
	defer f.Close()

	set, err := ParseStopwords(fs.language, f)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeStopwordsInvalid,
			fmt.Sprintf("failed to parse stop-word file %s", fs.path), err)
	}

	fs.current.Store(set)
	fs.reloads.Add(1)
	if fs.logger != nil {
		fs.logger.Info("Stop words loaded", "file", fs.path, "words", set.Len())
	}
	return nil
}

func (fs *FileStopwords) IsStopword(word string) bool {
	return fs.current.Load().IsStopword(word)
}

func (fs *FileStopwords) Language() string { return fs.language }

// Snapshot returns the set currently in effect.
func (fs *FileStopwords) Snapshot() StopwordProvider {
	return fs.current.Load()
}

// Path returns the watched file path.
func (fs *FileStopwords) Path() string { return fs.path }

// Reloads returns how many times the list has been loaded.
func (fs *FileStopwords) Reloads() int64 { return fs.reloads.Load() }

// Watch starts reloading the list whenever the file changes. Events are
// debounced by delay (zero keeps the default).
func (fs *FileStopwords) Watch(delay time.Duration) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.watcher != nil {
		return fmt.Errorf("stop-word watcher is already running")
	}
	if delay > 0 {
		fs.debounceDelay = delay
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Editors and config management replace files by rename, so watch the directory.
	if err := watcher.Add(filepath.Dir(fs.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch directory of %s: %w", fs.path, err)
	}

	fs.watcher = watcher
	fs.stopChan = make(chan struct{})
	go fs.watchLoop(watcher, fs.stopChan)

	if fs.logger != nil {
		fs.logger.Info("Stop-word file watcher started", "file", fs.path, "debounce_delay", fs.debounceDelay)
	}
	return nil
}

// Close stops the watcher if it is running.
func (fs *FileStopwords) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.watcher == nil {
		return nil
	}
	close(fs.stopChan)
	if fs.debounceTimer != nil {
		fs.debounceTimer.Stop()
	}
	err := fs.watcher.Close()
	fs.watcher = nil
	return err
}

func (fs *FileStopwords) watchLoop(watcher *fsnotify.Watcher, stop <-chan struct{}) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if fs.isRelevant(event) {
				fs.scheduleReload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if fs.logger != nil {
				fs.logger.LogError(err, "Stop-word watcher error")
			}
		case <-stop:
			return
		}
	}
}

func (fs *FileStopwords) isRelevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(fs.path) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (fs *FileStopwords) scheduleReload() {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.debounceTimer != nil {
		fs.debounceTimer.Stop()
	}
	fs.debounceTimer = time.AfterFunc(fs.debounceDelay, func() {
		if err := fs.Reload(); err != nil && fs.logger != nil {
			fs.logger.LogError(err, "Failed to reload stop words, keeping previous list")
		}
	})
}
