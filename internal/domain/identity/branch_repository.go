package identity

import "context"

// BranchRepository defines the interface for branch persistence.
// Missing or soft-deleted rows yield shared.ErrNotFound.
type BranchRepository interface {
	Create(ctx context.Context, id int64, branch *BranchCreate) error
	Update(ctx context.Context, id int64, branch *BranchUpdate) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Branch, error)

	// FindAll returns every live branch, main branch first
	FindAll(ctx context.Context) ([]Branch, error)
}
