package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"edutech-backend-go/internal/observability"
)

// WithTx runs fn inside a single transaction. The transaction is committed
// when fn returns nil and rolled back otherwise; the connection goes back to
// the pool in both cases. A panic inside fn rolls back and re-panics.
func WithTx(ctx context.Context, db *sqlx.DB, name string, fn func(tx *sqlx.Tx) error) (err error) {
	ctx, span := observability.Tracer().Start(ctx, "tx."+name)
	defer span.End()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "begin")
		return fmt.Errorf("begin %s: %w", name, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		span.SetAttributes(attribute.Bool("tx.rolled_back", true))
		span.RecordError(err)
		span.SetStatus(codes.Error, "rollback")
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, context.Canceled) {
			return errors.Join(err, fmt.Errorf("rollback %s: %w", name, rbErr))
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit")
		return fmt.Errorf("commit %s: %w", name, err)
	}
	return nil
}
