package services

import (
	"context"

	"tokocommerce/internal/apperrors"
	"tokocommerce/internal/auth"
	"tokocommerce/internal/models"
	"tokocommerce/internal/repositories"
)

// ProductService handles business logic related to products.
type ProductService struct {
	repo       repositories.ProductRepository
	categories repositories.CategoryRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, categories repositories.CategoryRepository) *ProductService {
	return &ProductService{
		repo:       repo,
		categories: categories,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ProductService) checkProduct(ctx context.Context, product *models.Product) error {
	if product.Price.IsNegative() {
		return apperrors.Validation("price must not be negative")
	}
	if product.StockQuantity < 0 {
		return apperrors.Validation("stock_quantity must not be negative")
	}
	if product.CategoryID != nil && *product.CategoryID == "" {
		product.CategoryID = nil
	}
	if product.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *product.CategoryID); err != nil {
			if apperrors.Is(err, apperrors.KindNotFound) {
				return apperrors.Validation("category %s does not exist", *product.CategoryID)
			}
			return err
		}
	}
	return nil
}

// CreateProduct creates a new product sold by the caller.
func (s *ProductService) CreateProduct(ctx context.Context, identity auth.Identity, product *models.Product) error {
	if err := s.checkProduct(ctx, product); err != nil {
		return err
	}
	product.ID = ""
	product.SellerID = identity.UserID
	return s.repo.Create(ctx, product)
}

// UpdateProduct updates name, price, stock and category of an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := s.checkProduct(ctx, product); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, product.ID)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
