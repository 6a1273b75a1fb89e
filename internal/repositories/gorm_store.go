package repositories

import (
	"context"
	"errors"

	"tokocommerce/internal/apperrors"

	"gorm.io/gorm"
)

// GORMStore is a Store backed by a GORM database handle.
type GORMStore struct {
	db   *gorm.DB
	inTx bool
}

// NewGORMStore creates a new GORMStore. The handle should be opened with
// TranslateError enabled so duplicate keys surface as gorm.ErrDuplicatedKey.
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{db: db}
}

func (s *GORMStore) Products() ProductRepository {
	return &GORMProductRepository{db: s.db, lockRows: s.inTx}
}

func (s *GORMStore) Orders() OrderRepository { return NewGORMOrderRepository(s.db) }

func (s *GORMStore) Payments() PaymentRepository { return NewGORMPaymentRepository(s.db) }

func (s *GORMStore) Users() UserRepository { return NewGORMUserRepository(s.db) }

func (s *GORMStore) Categories() CategoryRepository { return NewGORMCategoryRepository(s.db) }

// Begin starts a database transaction.
func (s *GORMStore) Begin(ctx context.Context) (Tx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, apperrors.Internal(tx.Error, "failed to begin transaction")
	}
	return &gormTx{GORMStore: GORMStore{db: tx, inTx: true}}, nil
}

type gormTx struct {
	GORMStore
	done bool
}

func (t *gormTx) Commit() error {
	if t.done {
		return apperrors.Internal(gorm.ErrInvalidTransaction, "transaction already finished")
	}
	t.done = true
	if err := t.db.Commit().Error; err != nil {
		return apperrors.Internal(err, "failed to commit transaction")
	}
	return nil
}

func (t *gormTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.db.Rollback().Error; err != nil {
		return apperrors.Internal(err, "failed to roll back transaction")
	}
	return nil
}

// translateError maps GORM errors onto the application error taxonomy.
func translateError(err error, format string, args ...any) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.Wrap(apperrors.KindNotFound, err, format, args...)
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperrors.Wrap(apperrors.KindConflict, err, format, args...)
	default:
		return apperrors.Internal(err, format, args...)
	}
}
