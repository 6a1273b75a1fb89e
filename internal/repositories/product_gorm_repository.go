package repositories

import (
	"context"
	"errors"
	"time"

	"tokocommerce/internal/apperrors"
	"tokocommerce/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
	// lockRows adds SELECT ... FOR UPDATE to FindByIDs. Set inside transactions.
	lockRows bool
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products with their seller and category.
func (r *GORMProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).
		Preload("Seller").
		Preload("Category").
		Order("created_at, id").
		Find(&products).Error; err != nil {
		return nil, apperrors.Internal(err, "failed to get all products")
	}
	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("Seller").
		Preload("Category").
		First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product with ID %s not found", id)
		}
		return nil, apperrors.Internal(err, "failed to get product by ID %s", id)
	}
	return &product, nil
}

// FindByIDs retrieves the products whose ID is in ids.
func (r *GORMProductRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	q := r.db.WithContext(ctx)
	if r.lockRows {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var products []models.Product
	if err := q.Where("id IN ?", ids).Order("id").Find(&products).Error; err != nil {
		return nil, apperrors.Internal(err, "failed to find products")
	}
	return products, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		return translateError(err, "failed to create product")
	}
	return nil
}

// Update updates the mutable columns of an existing product.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":           product.Name,
			"price":          product.Price,
			"stock_quantity": product.StockQuantity,
			"category_id":    product.CategoryID,
			"updated_at":     product.UpdatedAt,
		})
	if res.Error != nil {
		return translateError(res.Error, "failed to update product")
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("product with ID %s not found for update", product.ID)
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return translateError(res.Error, "failed to delete product")
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("product with ID %s not found for deletion", id)
	}
	return nil
}

// DecrementStock conditionally decrements the product stock in one statement.
func (r *GORMProductRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity - ?", qty),
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.KindConflict, res.Error, "failed to decrement stock for product %s", id)
	}
	if res.RowsAffected == 0 {
		return apperrors.Conflict("stock for product %s changed concurrently, cannot take %d", id, qty)
	}
	return nil
}

// IncrementStock returns qty units to the product stock.
func (r *GORMProductRepository) IncrementStock(ctx context.Context, id string, qty int) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity + ?", qty),
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return apperrors.Internal(res.Error, "failed to increment stock for product %s", id)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("product with ID %s not found for restock", id)
	}
	return nil
}
