package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultStopTimeout = 2 * time.Second

type fsObserver struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	done        chan struct{}
	stopTimeout time.Duration
	onError     func(error)
}

// NewFSObserver returns an Observer backed by fsnotify. Subdirectories are
// watched as they appear. onError may be nil.
func NewFSObserver(onError func(error)) Observer {
	return &fsObserver{stopTimeout: defaultStopTimeout, onError: onError}
}

func (o *fsObserver) Start(dir string, handler Handler) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.watcher != nil {
		return errors.New("observer already started")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := addTree(w, dir); err != nil {
		w.Close()
		return fmt.Errorf("add watch path: %w", err)
	}

	o.watcher = w
	o.done = make(chan struct{})
	go o.loop(w, o.done, handler)
	return nil
}

func (o *fsObserver) loop(w *fsnotify.Watcher, done chan struct{}, handler Handler) {
	defer close(done)
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			info, err := os.Stat(event.Name)
			isDir := err == nil && info.IsDir()
			if isDir {
				if err := addTree(w, event.Name); err != nil && o.onError != nil {
					o.onError(err)
				}
			}
			handler(event.Name, isDir)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			if o.onError != nil {
				o.onError(err)
			}
		}
	}
}

// Stop closes the watcher and waits up to stopTimeout for the loop to exit.
func (o *fsObserver) Stop() error {
	o.mu.Lock()
	w, done := o.watcher, o.done
	o.watcher, o.done = nil, nil
	o.mu.Unlock()

	if w == nil {
		return nil
	}
	closeErr := w.Close()

	t := time.NewTimer(o.stopTimeout)
	defer t.Stop()
	select {
	case <-done:
		return closeErr
	case <-t.C:
		return ErrStopTimeout
	}
}

func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
