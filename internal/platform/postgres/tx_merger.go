package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/handset/internal/contacts"
	"github.com/phrazzld/handset/internal/store"
)

// TxMerger imports each contact in its own transaction, so the duplicate
// lookup and the following insert or update commit together.
type TxMerger struct {
	db     store.TxBeginner
	logger *slog.Logger
}

// NewTxMerger creates a TxMerger over db.
func NewTxMerger(db store.TxBeginner, logger *slog.Logger) *TxMerger {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TxMerger{db: db, logger: logger}
}

// Import implements importer.Merger.
func (m *TxMerger) Import(ctx context.Context, c contacts.Contact) (contacts.ImportResult, error) {
	var result contacts.ImportResult
	err := store.RunInTransaction(ctx, m.db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		result, err = contacts.NewService(NewContactStore(tx, m.logger), m.logger).Import(ctx, c)
		return err
	})
	return result, err
}
