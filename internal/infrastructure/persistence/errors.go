package persistence

import (
	"errors"

	"gorm.io/gorm"

	"github.com/sultan/backend/internal/domain/shared"
)

// translateError maps GORM sentinel errors to domain errors. TranslateError
// must be enabled on the gorm.Config for duplicate keys to be recognised.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	default:
		return err
	}
}

// affectedOne turns an UPDATE/DELETE result into ErrNotFound when no live
// row matched
func affectedOne(result *gorm.DB) error {
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
