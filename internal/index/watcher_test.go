package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chrisd/bautagebuch/internal/diary"
	"github.com/chrisd/bautagebuch/internal/storage"
)

type watcherTestEnv struct {
	store   *diary.Store
	db      *DB
	dataDir string
	reloads atomic.Int32
	cancel  context.CancelFunc
	done    chan struct{}
}

func startWatcher(t *testing.T) *watcherTestEnv {
	t.Helper()
	dataDir := t.TempDir()
	files, err := storage.NewFS(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	store := diary.NewStore(files, logger)
	store.Load()
	if err := store.Save(); err != nil {
		t.Fatal(err)
	}

	env := &watcherTestEnv{store: store, db: testDB(t), dataDir: dataDir, done: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	env.cancel = cancel
	go func() {
		defer close(env.done)
		_ = Watch(ctx, env.db, store, files, dataDir, logger, func() { env.reloads.Add(1) })
	}()
	t.Cleanup(func() {
		cancel()
		<-env.done
	})

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	return env
}

func eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestWatchReloadsOnExternalWrite(t *testing.T) {
	env := startWatcher(t)

	external := []byte(`{"milestones":[{"id":"ext","title":"Von außen","date":"2024-03-15"}]}`)
	if err := os.WriteFile(filepath.Join(env.dataDir, diary.DocumentFile), external, 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 3*time.Second, func() bool {
		return env.reloads.Load() >= 1
	}, "external write never triggered a reload")

	if got := env.store.ListMilestones(); len(got) != 1 || got[0].ID != "ext" {
		t.Errorf("store after reload = %+v", got)
	}
	eventually(t, 3*time.Second, func() bool {
		n, err := env.db.Count()
		return err == nil && n == 1
	}, "index not rebuilt after reload")
}

func TestWatchIgnoresOwnSaves(t *testing.T) {
	env := startWatcher(t)

	if _, err := env.store.CreateMilestone(diary.CreateMilestoneInput{Title: "Eigener", Date: "2024-01-01"}); err != nil {
		t.Fatal(err)
	}

	// Own writes are recognised by checksum; the callback must stay quiet.
	time.Sleep(600 * time.Millisecond)
	if got := env.reloads.Load(); got != 0 {
		t.Errorf("own save triggered %d reloads", got)
	}
	if got := env.store.ListMilestones(); len(got) != 1 || got[0].Title != "Eigener" {
		t.Errorf("store state clobbered: %+v", got)
	}
}
