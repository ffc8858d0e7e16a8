package providers

import "context"

// TransactionProvider runs a function inside a storage transaction. The
// transaction travels in the context; repository implementations pick it up
// so the mutations of one booking or cancellation commit together or not at
// all.
type TransactionProvider interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
