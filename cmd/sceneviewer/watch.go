package main

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/solarlune/scenecore"
)

// sceneWatcher submits a ReloadScene command whenever the watched scene file changes on disk. The file's directory is
// watched rather than the file itself, since many editors save by replacing the file.
type sceneWatcher struct {
	watcher    *fsnotify.Watcher
	controller *scenecore.Controller
	logger     *slog.Logger
	debounce   time.Duration

	mu    sync.Mutex
	path  string
	timer *time.Timer
	done  chan struct{}
}

func newSceneWatcher(controller *scenecore.Controller, logger *slog.Logger) (*sceneWatcher, error) {

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	sw := &sceneWatcher{
		watcher:    watcher,
		controller: controller,
		logger:     logger,
		debounce:   250 * time.Millisecond,
		done:       make(chan struct{}),
	}

	go sw.run()

	return sw, nil

}

// Watch switches the watcher to the scene file at path.
func (sw *sceneWatcher) Watch(path string) error {

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	sw.mu.Lock()
	defer sw.mu.Unlock()

	if abs == sw.path {
		return nil
	}

	if sw.path != "" && filepath.Dir(sw.path) != filepath.Dir(abs) {
		if err := sw.watcher.Remove(filepath.Dir(sw.path)); err != nil {
			sw.logger.Warn("couldn't stop watching directory", "dir", filepath.Dir(sw.path), "error", err)
		}
	}

	if err := sw.watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	sw.path = abs

	return nil

}

func (sw *sceneWatcher) run() {

	for {

		select {

		case <-sw.done:
			return

		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			sw.mu.Lock()
			if name == sw.path {
				sw.schedule()
			}
			sw.mu.Unlock()

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			sw.logger.Warn("file watcher error", "error", err)

		}

	}

}

// schedule queues a reload once the file has stopped changing for the debounce duration. sw.mu must be held.
func (sw *sceneWatcher) schedule() {
	if sw.timer != nil {
		sw.timer.Stop()
	}
	path := sw.path
	sw.timer = time.AfterFunc(sw.debounce, func() {
		if sw.controller.TrySubmit(scenecore.ReloadScene{}) {
			sw.logger.Info("scene file changed; reloading", "path", path)
		} else {
			sw.logger.Warn("command queue full; dropping reload", "path", path)
		}
	})
}

// Close stops watching.
func (sw *sceneWatcher) Close() error {
	sw.mu.Lock()
	if sw.timer != nil {
		sw.timer.Stop()
	}
	sw.mu.Unlock()
	close(sw.done)
	return sw.watcher.Close()
}
