package index

import (
	"log/slog"

	"github.com/chrisd/bautagebuch/internal/diary"
)

// Sync rebuilds the index from the store's current document. Called after
// load, import, external reloads, and on every successful save.
func Sync(db DiaryIndex, store *diary.Store, logger *slog.Logger) error {
	records := DocumentRecords(store.Snapshot())
	if err := db.Rebuild(records); err != nil {
		return err
	}
	logger.Debug("index: synced", slog.Int("records", len(records)))
	return nil
}
