package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/chrisd/bautagebuch/internal/checksum"
	"github.com/chrisd/bautagebuch/internal/diary"
	"github.com/chrisd/bautagebuch/internal/storage"
)

// ReloadCallback is called after an external file change has been loaded
// and reindexed.
type ReloadCallback func()

// Watch starts an fsnotify watcher on the data directory and reloads the
// document when its file changes outside this process, until ctx is
// cancelled. Events are debounced because editors typically fire several
// writes per save, and writes made by the store itself are recognised by
// checksum and skipped.
func Watch(ctx context.Context, db DiaryIndex, store *diary.Store, files storage.Provider, dataDir string, logger *slog.Logger, cb ReloadCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dataDir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("dir", dataDir))

	// reloadTimer debounces bursts of write events on the document file.
	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(200 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reloadCh:
			reloadExternal(db, store, files, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != diary.DocumentFile {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			scheduleReload()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reloadExternal re-reads the document file if its content differs from
// what the store last wrote, then reindexes.
func reloadExternal(db DiaryIndex, store *diary.Store, files storage.Provider, logger *slog.Logger, cb ReloadCallback) {
	data, err := files.Read(diary.DocumentFile)
	if err != nil {
		logger.Warn("watcher: read failed", slog.String("error", err.Error()))
		return
	}
	if checksum.Sum(data) == store.LastSavedChecksum() {
		// Our own save; nothing to do.
		return
	}
	if err := store.Reload(); err != nil {
		logger.Warn("watcher: reload failed", slog.String("error", err.Error()))
		return
	}
	if err := Sync(db, store, logger); err != nil {
		logger.Warn("watcher: reindex failed", slog.String("error", err.Error()))
	}
	logger.Info("watcher: external change loaded")
	if cb != nil {
		cb()
	}
}
