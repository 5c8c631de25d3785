package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/handset/internal/platform/logger"
)

// TxFn is a function that executes within a database transaction.
// It receives the context and the transaction for its statements.
// Returning nil commits; returning an error rolls back.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// TxBeginner is satisfied by *sql.DB. Stores and the import merger take it
// instead of *sql.DB so tests can substitute sqlmock.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// RunInTransaction executes fn within a database transaction.
// If fn returns an error the transaction is rolled back and the error
// returned unchanged; otherwise the transaction is committed.
// A panic inside fn rolls back too and is re-raised afterwards.
func RunInTransaction(ctx context.Context, db TxBeginner, fn TxFn) error {
	// Request- or import-scoped logger when one is attached
	log := logger.FromContext(ctx)

	// Begin the transaction with driver defaults
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction",
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Roll back on panic, then let the panic continue
	defer func() {
		if p := recover(); p != nil {
			if txErr := tx.Rollback(); txErr != nil {
				log.Error("failed to roll back transaction after panic",
					slog.String("error", txErr.Error()),
					slog.Any("panic", p))
			} else {
				log.Error("rolled back transaction after panic",
					slog.Any("panic", p))
			}
			panic(p)
		}
	}()

	// Run the caller's statements
	if err := fn(ctx, tx); err != nil {
		// Undo everything fn wrote
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			log.Error("failed to roll back transaction",
				slog.String("rollback_error", rollbackErr.Error()),
				slog.String("original_error", err.Error()))
			// Keep the original error matchable with errors.Is
			return fmt.Errorf(
				"error rolling back transaction: %v (original error: %w)",
				rollbackErr,
				err,
			)
		}
		log.Debug("rolled back transaction due to error",
			slog.String("error", err.Error()))
		// Callers map this error themselves
		return err
	}

	// fn succeeded, make its writes visible
	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction",
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}

	log.Debug("transaction committed")
	return nil
}
