package memory

import "context"

// TxProvider satisfies providers.TransactionProvider for the in-memory
// stores. Mutations apply directly; the per-slot lock held by the caller
// already makes the pair of writes appear atomic to other operations.
type TxProvider struct{}

// NewTxProvider creates a pass-through transaction provider
func NewTxProvider() *TxProvider {
	return &TxProvider{}
}

// WithinTransaction runs fn with the unmodified context
func (p *TxProvider) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
