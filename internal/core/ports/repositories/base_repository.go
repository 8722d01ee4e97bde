package repositories

import (
	"context"
)

// TransactionManager runs units of work inside a database transaction.
type TransactionManager interface {
	// WithinTransaction runs fn inside a transaction. When ctx already carries a transaction,
	// fn joins it and WithinTransaction neither commits nor rolls back; otherwise a new
	// transaction is started, committed when fn returns nil and rolled back otherwise.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// InTransaction reports whether ctx carries an ambient transaction.
	InTransaction(ctx context.Context) bool
}
