package identity

import (
	"strings"
	"time"

	"github.com/sultan/backend/internal/domain/shared"
	"github.com/sultan/backend/internal/domain/shared/update"
)

// Branch is a store or office location. Permissions can be scoped to one.
type Branch struct {
	ID        int64
	IsMain    bool
	Name      string
	Code      string
	Address   *string
	Phone     *string
	TaxNumber *string
	Image     *string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// BranchCreate holds the fields of a new branch
type BranchCreate struct {
	IsMain    bool
	Name      string
	Code      string
	Address   *string
	Phone     *string
	TaxNumber *string
	Image     *string
}

// Validate checks the create request
func (b *BranchCreate) Validate() error {
	if err := validateBranchName(b.Name); err != nil {
		return err
	}
	if err := validateBranchCode(b.Code); err != nil {
		return err
	}
	if b.TaxNumber != nil {
		return validateTaxNumber(*b.TaxNumber)
	}
	return nil
}

// Normalize upper-cases the branch code
func (b *BranchCreate) Normalize() {
	b.Code = strings.ToUpper(strings.TrimSpace(b.Code))
}

// BranchUpdate is a partial update of a branch
type BranchUpdate struct {
	IsMain    *bool
	Name      *string
	Code      *string
	Address   update.Field[string]
	Phone     update.Field[string]
	TaxNumber update.Field[string]
	Image     update.Field[string]
}

// HasChanges reports whether the update touches any column
func (u *BranchUpdate) HasChanges() bool {
	return u.IsMain != nil || u.Name != nil || u.Code != nil ||
		u.Address.ShouldUpdate() || u.Phone.ShouldUpdate() ||
		u.TaxNumber.ShouldUpdate() || u.Image.ShouldUpdate()
}

// Validate checks the values that are about to be written
func (u *BranchUpdate) Validate() error {
	if u.Name != nil {
		if err := validateBranchName(*u.Name); err != nil {
			return err
		}
	}
	if u.Code != nil {
		if err := validateBranchCode(*u.Code); err != nil {
			return err
		}
	}
	if tax, ok := u.TaxNumber.Value(); ok {
		return validateTaxNumber(tax)
	}
	return nil
}

// Normalize upper-cases the branch code when it is set
func (u *BranchUpdate) Normalize() {
	if u.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*u.Code))
		u.Code = &code
	}
}

func validateBranchName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Branch name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Branch name cannot exceed 100 characters")
	}
	return nil
}

func validateBranchCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Branch code cannot be empty")
	}
	if len(code) > 20 {
		return shared.NewDomainError("INVALID_CODE", "Branch code cannot exceed 20 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Branch code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateTaxNumber(tax string) error {
	if len(tax) > 30 {
		return shared.NewDomainError("INVALID_TAX_NUMBER", "Tax number cannot exceed 30 characters")
	}
	return nil
}
