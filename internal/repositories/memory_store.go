package repositories

import (
	"context"
	"sync"

	"tokocommerce/internal/apperrors"
	"tokocommerce/internal/models"
)

// memoryState is the full data set of a MemoryStore. Slices of IDs keep
// insertion order for listings.
type memoryState struct {
	products   map[string]models.Product
	productIDs []string
	orders     map[string]models.Order
	orderIDs   []string
	payments   map[string]models.Payment // keyed by order ID
	users      map[string]models.User
	categories map[string]models.Category
}

func newMemoryState() *memoryState {
	return &memoryState{
		products:   make(map[string]models.Product),
		orders:     make(map[string]models.Order),
		payments:   make(map[string]models.Payment),
		users:      make(map[string]models.User),
		categories: make(map[string]models.Category),
	}
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		products:   make(map[string]models.Product, len(s.products)),
		productIDs: append([]string(nil), s.productIDs...),
		orders:     make(map[string]models.Order, len(s.orders)),
		orderIDs:   append([]string(nil), s.orderIDs...),
		payments:   make(map[string]models.Payment, len(s.payments)),
		users:      make(map[string]models.User, len(s.users)),
		categories: make(map[string]models.Category, len(s.categories)),
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		v.Items = append([]models.OrderItem(nil), v.Items...)
		c.orders[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	return c
}

// memoryScope runs repository operations against either the committed state
// or a transaction's private copy.
type memoryScope interface {
	read(fn func(st *memoryState) error) error
	write(fn func(st *memoryState) error) error
}

// MemoryStore is an in-memory Store. Transactions take the store-wide write
// lock for their whole life and work on a private copy of the state, so they
// are serializable and invisible to other callers until Commit.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memoryState
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState()}
}

func (s *MemoryStore) read(fn func(st *memoryState) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

func (s *MemoryStore) write(fn func(st *memoryState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

func (s *MemoryStore) Products() ProductRepository     { return &memoryProductRepository{scope: s} }
func (s *MemoryStore) Orders() OrderRepository         { return &memoryOrderRepository{scope: s} }
func (s *MemoryStore) Payments() PaymentRepository     { return &memoryPaymentRepository{scope: s} }
func (s *MemoryStore) Users() UserRepository           { return &memoryUserRepository{scope: s} }
func (s *MemoryStore) Categories() CategoryRepository { return &memoryCategoryRepository{scope: s} }

// Begin blocks until no other transaction or write is active.
func (s *MemoryStore) Begin(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Internal(err, "failed to begin transaction")
	}
	s.mu.Lock()
	return &memoryTx{store: s, state: s.state.clone()}, nil
}

type memoryTx struct {
	store *MemoryStore
	state *memoryState
	done  bool
}

var errTxDone = apperrors.New(apperrors.KindInternal, "transaction already finished")

func (t *memoryTx) read(fn func(st *memoryState) error) error {
	if t.done {
		return errTxDone
	}
	return fn(t.state)
}

func (t *memoryTx) write(fn func(st *memoryState) error) error {
	if t.done {
		return errTxDone
	}
	return fn(t.state)
}

func (t *memoryTx) Products() ProductRepository     { return &memoryProductRepository{scope: t} }
func (t *memoryTx) Orders() OrderRepository         { return &memoryOrderRepository{scope: t} }
func (t *memoryTx) Payments() PaymentRepository     { return &memoryPaymentRepository{scope: t} }
func (t *memoryTx) Users() UserRepository           { return &memoryUserRepository{scope: t} }
func (t *memoryTx) Categories() CategoryRepository { return &memoryCategoryRepository{scope: t} }

func (t *memoryTx) Commit() error {
	if t.done {
		return errTxDone
	}
	t.done = true
	t.store.state = t.state
	t.store.mu.Unlock()
	return nil
}

func (t *memoryTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
