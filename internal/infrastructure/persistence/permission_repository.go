package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/sultan/backend/internal/domain/identity"
	"github.com/sultan/backend/internal/domain/shared/access"
	"github.com/sultan/backend/internal/infrastructure/persistence/models"
)

// GormPermissionRepository implements identity.PermissionRepository using GORM
type GormPermissionRepository struct {
	db *gorm.DB
}

// NewGormPermissionRepository creates a new GormPermissionRepository
func NewGormPermissionRepository(db *gorm.DB) *GormPermissionRepository {
	return &GormPermissionRepository{db: db}
}

// ListByUser returns every grant of a user
func (r *GormPermissionRepository) ListByUser(ctx context.Context, userID int64) ([]identity.Permission, error) {
	var rows []models.PermissionModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("branch_id ASC").
		Order("permission ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}

	grants := make([]identity.Permission, len(rows))
	for i := range rows {
		grants[i] = rows[i].ToDomain()
	}
	return grants, nil
}

// Save replaces the grant for (user, branch, resource) in one transaction
func (r *GormPermissionRepository) Save(ctx context.Context, p identity.Permission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := scopedPermission(tx, p.UserID, p.Scope(), p.Resource).Delete(&models.PermissionModel{})
		if del.Error != nil {
			return fmt.Errorf("replace permission: %w", del.Error)
		}
		if err := tx.Create(models.PermissionModelFromDomain(p)).Error; err != nil {
			return fmt.Errorf("insert permission: %w", translateError(err))
		}
		return nil
	})
}

// Delete removes the grant for (user, branch, resource)
func (r *GormPermissionRepository) Delete(ctx context.Context, userID int64, scope access.Scope, resource access.Resource) error {
	return affectedOne(scopedPermission(r.db.WithContext(ctx), userID, scope, resource).
		Delete(&models.PermissionModel{}))
}

// scopedPermission matches one grant. A global scope must match NULL,
// which "branch_id = ?" never does.
func scopedPermission(db *gorm.DB, userID int64, scope access.Scope, resource access.Resource) *gorm.DB {
	q := db.Where("user_id = ? AND permission = ?", userID, int32(resource))
	if branchID, ok := scope.BranchID(); ok {
		return q.Where("branch_id = ?", branchID)
	}
	return q.Where("branch_id IS NULL")
}
