package repositories

import "context"

// TxFn is a function that runs within a transaction. It must use the
// context it is given so repositories find the transaction.
type TxFn func(ctx context.Context) error

// TransactionManager handles database transactions
type TransactionManager interface {
	// ExecTx runs fn in a transaction, committing if it returns nil
	ExecTx(ctx context.Context, fn TxFn) error
}
