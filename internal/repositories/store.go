package repositories

import "context"

// Repositories gives access to every repository bound to one storage scope.
type Repositories interface {
	Products() ProductRepository
	Orders() OrderRepository
	Payments() PaymentRepository
	Users() UserRepository
	Categories() CategoryRepository
}

// Tx is a scoped transaction. Repositories obtained from it read and write
// inside the transaction. Rollback is a no-op once Commit or Rollback has run,
// so callers can always defer it.
type Tx interface {
	Repositories
	Commit() error
	Rollback() error
}

// Store is the storage handle injected into services.
type Store interface {
	Repositories
	Begin(ctx context.Context) (Tx, error)
}
