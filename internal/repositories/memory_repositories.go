package repositories

import (
	"context"
	"sort"
	"time"

	"tokocommerce/internal/apperrors"
	"tokocommerce/internal/models"

	"github.com/google/uuid"
)

type memoryProductRepository struct{ scope memoryScope }

// productView attaches seller and category the way the GORM preloads do.
func (st *memoryState) productView(p models.Product) models.Product {
	if u, ok := st.users[p.SellerID]; ok {
		p.Seller = &u
	}
	if p.CategoryID != nil {
		if c, ok := st.categories[*p.CategoryID]; ok {
			p.Category = &c
		}
	}
	return p
}

func (r *memoryProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := r.scope.read(func(st *memoryState) error {
		out = make([]models.Product, 0, len(st.productIDs))
		for _, id := range st.productIDs {
			out = append(out, st.productView(st.products[id]))
		}
		return nil
	})
	return out, err
}

func (r *memoryProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var out models.Product
	err := r.scope.read(func(st *memoryState) error {
		p, ok := st.products[id]
		if !ok {
			return apperrors.NotFound("product with ID %s not found", id)
		}
		out = st.productView(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *memoryProductRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	var out []models.Product
	err := r.scope.read(func(st *memoryState) error {
		out = make([]models.Product, 0, len(ids))
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			if p, ok := st.products[id]; ok {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}

func (r *memoryProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.scope.write(func(st *memoryState) error {
		if product.ID == "" {
			product.ID = uuid.New().String()
		}
		if _, exists := st.products[product.ID]; exists {
			return apperrors.Conflict("product with ID %s already exists", product.ID)
		}
		now := time.Now()
		product.CreatedAt, product.UpdatedAt = now, now
		stored := *product
		stored.Seller, stored.Category = nil, nil
		st.products[product.ID] = stored
		st.productIDs = append(st.productIDs, product.ID)
		return nil
	})
}

func (r *memoryProductRepository) Update(ctx context.Context, product *models.Product) error {
	return r.scope.write(func(st *memoryState) error {
		existing, ok := st.products[product.ID]
		if !ok {
			return apperrors.NotFound("product with ID %s not found for update", product.ID)
		}
		existing.Name = product.Name
		existing.Price = product.Price
		existing.StockQuantity = product.StockQuantity
		existing.CategoryID = product.CategoryID
		existing.UpdatedAt = time.Now()
		product.UpdatedAt = existing.UpdatedAt
		st.products[product.ID] = existing
		return nil
	})
}

func (r *memoryProductRepository) Delete(ctx context.Context, id string) error {
	return r.scope.write(func(st *memoryState) error {
		if _, ok := st.products[id]; !ok {
			return apperrors.NotFound("product with ID %s not found for deletion", id)
		}
		delete(st.products, id)
		st.productIDs = removeID(st.productIDs, id)
		return nil
	})
}

func (r *memoryProductRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	return r.scope.write(func(st *memoryState) error {
		p, ok := st.products[id]
		if !ok || p.StockQuantity < qty {
			return apperrors.Conflict("stock for product %s changed concurrently, cannot take %d", id, qty)
		}
		p.StockQuantity -= qty
		p.UpdatedAt = time.Now()
		st.products[id] = p
		return nil
	})
}

func (r *memoryProductRepository) IncrementStock(ctx context.Context, id string, qty int) error {
	return r.scope.write(func(st *memoryState) error {
		p, ok := st.products[id]
		if !ok {
			return apperrors.NotFound("product with ID %s not found for restock", id)
		}
		p.StockQuantity += qty
		p.UpdatedAt = time.Now()
		st.products[id] = p
		return nil
	})
}

type memoryOrderRepository struct{ scope memoryScope }

func (st *memoryState) orderView(o models.Order) models.Order {
	items := make([]models.OrderItem, len(o.Items))
	for i, item := range o.Items {
		if p, ok := st.products[item.ProductID]; ok {
			item.Product = &p
		}
		items[i] = item
	}
	o.Items = items
	if pay, ok := st.payments[o.ID]; ok {
		o.Payment = &pay
	}
	return o
}

func (r *memoryOrderRepository) GetAll(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := r.scope.read(func(st *memoryState) error {
		out = make([]models.Order, 0, len(st.orderIDs))
		for _, id := range st.orderIDs {
			out = append(out, st.orderView(st.orders[id]))
		}
		return nil
	})
	return out, err
}

func (r *memoryOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var out models.Order
	err := r.scope.read(func(st *memoryState) error {
		o, ok := st.orders[id]
		if !ok {
			return apperrors.NotFound("order with ID %s not found", id)
		}
		out = st.orderView(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *memoryOrderRepository) GetByUser(ctx context.Context, userID string) ([]models.Order, error) {
	out := []models.Order{}
	err := r.scope.read(func(st *memoryState) error {
		for _, id := range st.orderIDs {
			if o := st.orders[id]; o.UserID == userID {
				out = append(out, st.orderView(o))
			}
		}
		return nil
	})
	return out, err
}

func (r *memoryOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.scope.write(func(st *memoryState) error {
		if order.ID == "" {
			order.ID = uuid.New().String()
		}
		if _, exists := st.orders[order.ID]; exists {
			return apperrors.Conflict("order with ID %s already exists", order.ID)
		}
		now := time.Now()
		order.CreatedAt, order.UpdatedAt = now, now
		for i := range order.Items {
			item := &order.Items[i]
			if item.ID == "" {
				item.ID = uuid.New().String()
			}
			item.OrderID = order.ID
			item.LineNo = i + 1
		}
		stored := *order
		stored.Payment = nil
		stored.Items = make([]models.OrderItem, len(order.Items))
		for i, item := range order.Items {
			item.Product = nil
			stored.Items[i] = item
		}
		st.orders[order.ID] = stored
		st.orderIDs = append(st.orderIDs, order.ID)
		return nil
	})
}

func (r *memoryOrderRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	return r.scope.write(func(st *memoryState) error {
		o, ok := st.orders[id]
		if !ok {
			return apperrors.NotFound("order with ID %s not found for status update", id)
		}
		o.Status = status
		o.UpdatedAt = time.Now()
		st.orders[id] = o
		return nil
	})
}

type memoryPaymentRepository struct{ scope memoryScope }

func (r *memoryPaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var out models.Payment
	err := r.scope.read(func(st *memoryState) error {
		p, ok := st.payments[orderID]
		if !ok {
			return apperrors.NotFound("payment for order %s not found", orderID)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *memoryPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.scope.write(func(st *memoryState) error {
		if _, exists := st.payments[payment.OrderID]; exists {
			return apperrors.Conflict("payment for order %s already exists", payment.OrderID)
		}
		if payment.ID == "" {
			payment.ID = uuid.New().String()
		}
		payment.CreatedAt = time.Now()
		st.payments[payment.OrderID] = *payment
		return nil
	})
}

type memoryUserRepository struct{ scope memoryScope }

func (r *memoryUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.scope.write(func(st *memoryState) error {
		for _, u := range st.users {
			if u.Email == user.Email {
				return apperrors.Conflict("email '%s' already registered", user.Email)
			}
		}
		if user.ID == "" {
			user.ID = uuid.New().String()
		}
		now := time.Now()
		user.CreatedAt, user.UpdatedAt = now, now
		st.users[user.ID] = *user
		return nil
	})
}

func (r *memoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var out *models.User
	err := r.scope.read(func(st *memoryState) error {
		for _, u := range st.users {
			if u.Email == email {
				u := u
				out = &u
				return nil
			}
		}
		return apperrors.NotFound("user with email %s not found", email)
	})
	return out, err
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var out models.User
	err := r.scope.read(func(st *memoryState) error {
		u, ok := st.users[id]
		if !ok {
			return apperrors.NotFound("user with ID %s not found", id)
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type memoryCategoryRepository struct{ scope memoryScope }

func (r *memoryCategoryRepository) GetAll(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := r.scope.read(func(st *memoryState) error {
		out = make([]models.Category, 0, len(st.categories))
		for _, c := range st.categories {
			out = append(out, c)
		}
		return nil
	})
	sortCategories(out)
	return out, err
}

func (r *memoryCategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	var out models.Category
	err := r.scope.read(func(st *memoryState) error {
		c, ok := st.categories[id]
		if !ok {
			return apperrors.NotFound("category with ID %s not found", id)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *memoryCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.scope.write(func(st *memoryState) error {
		for _, c := range st.categories {
			if c.Name == category.Name {
				return apperrors.Conflict("category %q already exists", category.Name)
			}
		}
		if category.ID == "" {
			category.ID = uuid.New().String()
		}
		now := time.Now()
		category.CreatedAt, category.UpdatedAt = now, now
		st.categories[category.ID] = *category
		return nil
	})
}

func sortCategories(cs []models.Category) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Name < cs[j].Name })
}
