package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sultan/backend/internal/domain/identity"
	"github.com/sultan/backend/internal/domain/shared/update"
	"github.com/sultan/backend/internal/infrastructure/persistence/models"
)

// GormBranchRepository implements identity.BranchRepository using GORM
type GormBranchRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormBranchRepository creates a new GormBranchRepository
func NewGormBranchRepository(db *gorm.DB) *GormBranchRepository {
	return &GormBranchRepository{db: db, now: time.Now}
}

// Create inserts a branch under the given id
func (r *GormBranchRepository) Create(ctx context.Context, id int64, branch *identity.BranchCreate) error {
	if err := r.db.WithContext(ctx).Create(models.BranchModelFromCreate(id, branch)).Error; err != nil {
		return fmt.Errorf("create branch: %w", translateError(err))
	}
	return nil
}

// Update writes the touched columns and bumps updated_at
func (r *GormBranchRepository) Update(ctx context.Context, id int64, b *identity.BranchUpdate) error {
	values := update.Assignments{"updated_at": r.now()}
	update.PutPtr(values, "is_main", b.IsMain)
	update.PutPtr(values, "name", b.Name)
	update.PutPtr(values, "code", b.Code)
	values.
		Put("address", b.Address).
		Put("phone", b.Phone).
		Put("tax_number", b.TaxNumber).
		Put("image", b.Image)

	return affectedOne(r.db.WithContext(ctx).
		Model(&models.BranchModel{}).
		Where("id = ?", id).
		Updates(map[string]any(values)))
}

// Delete soft deletes a branch
func (r *GormBranchRepository) Delete(ctx context.Context, id int64) error {
	return affectedOne(r.db.WithContext(ctx).Delete(&models.BranchModel{}, "id = ?", id))
}

// FindByID finds a live branch by its ID
func (r *GormBranchRepository) FindByID(ctx context.Context, id int64) (*identity.Branch, error) {
	var model models.BranchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns every live branch, main branch first
func (r *GormBranchRepository) FindAll(ctx context.Context) ([]identity.Branch, error) {
	var branchModels []models.BranchModel
	if err := r.db.WithContext(ctx).
		Order("is_main DESC").
		Order("id ASC").
		Find(&branchModels).Error; err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}

	branches := make([]identity.Branch, len(branchModels))
	for i := range branchModels {
		branches[i] = *branchModels[i].ToDomain()
	}
	return branches, nil
}
