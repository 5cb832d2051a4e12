package partner

import (
	"context"

	"github.com/sultan/backend/internal/domain/shared"
)

// CustomerRepository defines the interface for customer persistence.
// Lookups of missing or soft-deleted rows return shared.ErrNotFound.
type CustomerRepository interface {
	// Create inserts a customer under a pre-allocated id
	Create(ctx context.Context, id int64, customer *CustomerCreate) error

	// Update writes the columns the update touches and bumps updated_at
	Update(ctx context.Context, id int64, customer *CustomerUpdate) error

	// Delete soft deletes a customer
	Delete(ctx context.Context, id int64) error

	FindByID(ctx context.Context, id int64) (*Customer, error)

	FindByNumber(ctx context.Context, number string) (*Customer, error)

	// FindAll lists live customers, newest first unless the pagination says otherwise
	FindAll(ctx context.Context, filter CustomerFilter, page shared.PageRequest) ([]Customer, error)

	Count(ctx context.Context, filter CustomerFilter) (int64, error)
}
