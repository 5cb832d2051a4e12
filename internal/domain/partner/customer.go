package partner

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sultan/backend/internal/domain/shared"
	"github.com/sultan/backend/internal/domain/shared/update"
)

var (
	phonePattern = regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// Customer is a buying partner. Optional contact fields are nil when unset.
type Customer struct {
	ID          int64
	Number      string
	Name        string
	Address     *string
	Email       *string
	Phone       *string
	Level       int32
	CreditLimit decimal.Decimal
	Metadata    json.RawMessage
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// IsDeleted reports whether the customer was soft deleted
func (c *Customer) IsDeleted() bool {
	return c.DeletedAt != nil
}

// CustomerCreate holds the fields of a new customer
type CustomerCreate struct {
	Number      string
	Name        string
	Address     *string
	Email       *string
	Phone       *string
	Level       int32
	CreditLimit decimal.Decimal
	Metadata    json.RawMessage
}

// Validate checks the create request
func (c *CustomerCreate) Validate() error {
	if err := validateCustomerNumber(c.Number); err != nil {
		return err
	}
	if err := validateCustomerName(c.Name); err != nil {
		return err
	}
	if c.Email != nil {
		if err := validateEmail(*c.Email); err != nil {
			return err
		}
	}
	if c.Phone != nil {
		if err := validatePhone(*c.Phone); err != nil {
			return err
		}
	}
	if err := validateLevel(c.Level); err != nil {
		return err
	}
	if err := validateCreditLimit(c.CreditLimit); err != nil {
		return err
	}
	return validateMetadata(c.Metadata)
}

// Normalize upper-cases the number and lower-cases the email
func (c *CustomerCreate) Normalize() {
	c.Number = strings.ToUpper(strings.TrimSpace(c.Number))
	if c.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*c.Email))
		c.Email = &email
	}
}

// CustomerUpdate is a partial update. Nil plain fields and Unchanged
// tri-state fields are left alone.
type CustomerUpdate struct {
	Number      *string
	Name        *string
	Address     update.Field[string]
	Email       update.Field[string]
	Phone       update.Field[string]
	Level       *int32
	CreditLimit *decimal.Decimal
	Metadata    update.Field[json.RawMessage]
}

// HasChanges reports whether the update touches any column
func (u *CustomerUpdate) HasChanges() bool {
	return u.Number != nil || u.Name != nil || u.Level != nil || u.CreditLimit != nil ||
		u.Address.ShouldUpdate() || u.Email.ShouldUpdate() || u.Phone.ShouldUpdate() ||
		u.Metadata.ShouldUpdate()
}

// Validate checks the values that are about to be written
func (u *CustomerUpdate) Validate() error {
	if u.Number != nil {
		if err := validateCustomerNumber(*u.Number); err != nil {
			return err
		}
	}
	if u.Name != nil {
		if err := validateCustomerName(*u.Name); err != nil {
			return err
		}
	}
	if email, ok := u.Email.Value(); ok {
		if err := validateEmail(email); err != nil {
			return err
		}
	}
	if phone, ok := u.Phone.Value(); ok {
		if err := validatePhone(phone); err != nil {
			return err
		}
	}
	if u.Level != nil {
		if err := validateLevel(*u.Level); err != nil {
			return err
		}
	}
	if u.CreditLimit != nil {
		if err := validateCreditLimit(*u.CreditLimit); err != nil {
			return err
		}
	}
	if meta, ok := u.Metadata.Value(); ok {
		return validateMetadata(meta)
	}
	return nil
}

// Normalize applies the same casing rules as CustomerCreate.Normalize
func (u *CustomerUpdate) Normalize() {
	if u.Number != nil {
		number := strings.ToUpper(strings.TrimSpace(*u.Number))
		u.Number = &number
	}
	u.Email = update.Map(u.Email, func(email string) string {
		return strings.ToLower(strings.TrimSpace(email))
	})
}

// ApplyTo copies the update onto c, used to return the fresh state
// without a second read.
func (u *CustomerUpdate) ApplyTo(c *Customer) {
	if u.Number != nil {
		c.Number = *u.Number
	}
	if u.Name != nil {
		c.Name = *u.Name
	}
	u.Address.Apply(&c.Address)
	u.Email.Apply(&c.Email)
	u.Phone.Apply(&c.Phone)
	if u.Level != nil {
		c.Level = *u.Level
	}
	if u.CreditLimit != nil {
		c.CreditLimit = *u.CreditLimit
	}
	if u.Metadata.ShouldUpdate() {
		meta, _ := u.Metadata.Value()
		c.Metadata = meta
	}
}

// CustomerFilter narrows a customer listing. String filters match by
// substring; nil fields are ignored.
type CustomerFilter struct {
	Number *string
	Name   *string
	Phone  *string
	Email  *string
	Level  *int32
}

func validateCustomerNumber(number string) error {
	if strings.TrimSpace(number) == "" {
		return shared.NewDomainError("INVALID_NUMBER", "Customer number cannot be empty")
	}
	if len(number) > 50 {
		return shared.NewDomainError("INVALID_NUMBER", "Customer number cannot exceed 50 characters")
	}
	return nil
}

func validateCustomerName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot exceed 200 characters")
	}
	return nil
}

func validateLevel(level int32) error {
	if level < 0 {
		return shared.NewDomainError("INVALID_LEVEL", "Customer level cannot be negative")
	}
	return nil
}

func validateCreditLimit(limit decimal.Decimal) error {
	if limit.IsNegative() {
		return shared.NewDomainError("INVALID_CREDIT_LIMIT", "Credit limit cannot be negative")
	}
	return nil
}

func validateMetadata(meta json.RawMessage) error {
	if len(meta) == 0 {
		return nil
	}
	if !json.Valid(meta) {
		return shared.NewDomainError("INVALID_METADATA", "Metadata must be valid JSON")
	}
	return nil
}

func validatePhone(phone string) error {
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone number cannot exceed 50 characters")
	}
	if !phonePattern.MatchString(phone) {
		return shared.NewDomainError("INVALID_PHONE", "Invalid phone number format")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailPattern.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
