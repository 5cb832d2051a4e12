package partner

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sultan/backend/internal/domain/partner"
	"github.com/sultan/backend/internal/domain/shared"
	"github.com/sultan/backend/internal/domain/shared/update"
)

// =============================================================================
// Customer DTOs
// =============================================================================

// CreateCustomerRequest represents a request to create a new customer
type CreateCustomerRequest struct {
	Number      string           `json:"number" binding:"required,min=1,max=50"`
	Name        string           `json:"name" binding:"required,min=1,max=200"`
	Address     *string          `json:"address" binding:"omitempty,max=500"`
	Email       *string          `json:"email" binding:"omitempty,email,max=200"`
	Phone       *string          `json:"phone" binding:"omitempty,max=50"`
	Level       int32            `json:"level" binding:"gte=0"`
	CreditLimit *decimal.Decimal `json:"credit_limit"`
	Metadata    json.RawMessage  `json:"metadata"`
}

// ToDomain converts the request to a domain create value
func (r CreateCustomerRequest) ToDomain() *partner.CustomerCreate {
	c := &partner.CustomerCreate{
		Number:      r.Number,
		Name:        r.Name,
		Address:     r.Address,
		Email:       r.Email,
		Phone:       r.Phone,
		Level:       r.Level,
		CreditLimit: decimal.Zero,
		Metadata:    r.Metadata,
	}
	if r.CreditLimit != nil {
		c.CreditLimit = *r.CreditLimit
	}
	return c
}

// UpdateCustomerRequest represents a partial update. Nullable fields accept
// null to clear the stored value; absent keys are left unchanged.
type UpdateCustomerRequest struct {
	Number      *string                       `json:"number" binding:"omitempty,min=1,max=50"`
	Name        *string                       `json:"name" binding:"omitempty,min=1,max=200"`
	Address     update.Field[string]          `json:"address" binding:"omitempty,max=500"`
	Email       update.Field[string]          `json:"email" binding:"omitempty,email,max=200"`
	Phone       update.Field[string]          `json:"phone" binding:"omitempty,max=50"`
	Level       *int32                        `json:"level" binding:"omitempty,gte=0"`
	CreditLimit *decimal.Decimal              `json:"credit_limit"`
	Metadata    update.Field[json.RawMessage] `json:"metadata"`
}

// ToDomain converts the request to a domain update value
func (r UpdateCustomerRequest) ToDomain() *partner.CustomerUpdate {
	return &partner.CustomerUpdate{
		Number:      r.Number,
		Name:        r.Name,
		Address:     r.Address,
		Email:       r.Email,
		Phone:       r.Phone,
		Level:       r.Level,
		CreditLimit: r.CreditLimit,
		Metadata:    r.Metadata,
	}
}

// CustomerListQuery holds the list filters and pagination from the query string
type CustomerListQuery struct {
	Number   string `form:"number" binding:"max=50"`
	Name     string `form:"name" binding:"max=200"`
	Phone    string `form:"phone" binding:"max=50"`
	Email    string `form:"email" binding:"max=200"`
	Level    *int32 `form:"level" binding:"omitempty,gte=0"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=id number name level created_at updated_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToFilter splits the query into the domain filter and the page request
func (q CustomerListQuery) ToFilter() (partner.CustomerFilter, shared.PageRequest) {
	filter := partner.CustomerFilter{Level: q.Level}
	if q.Number != "" {
		filter.Number = &q.Number
	}
	if q.Name != "" {
		filter.Name = &q.Name
	}
	if q.Phone != "" {
		filter.Phone = &q.Phone
	}
	if q.Email != "" {
		filter.Email = &q.Email
	}

	page := shared.FirstPage()
	if q.Page > 0 {
		page.Page = q.Page
	}
	if q.PageSize > 0 {
		page.PageSize = q.PageSize
	}
	if q.OrderBy != "" {
		page.OrderBy = q.OrderBy
	}
	if q.OrderDir != "" {
		page.Desc = q.OrderDir == "desc"
	}
	return filter, page
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID          int64           `json:"id,string"`
	Number      string          `json:"number"`
	Name        string          `json:"name"`
	Address     *string         `json:"address"`
	Email       *string         `json:"email"`
	Phone       *string         `json:"phone"`
	Level       int32           `json:"level"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ToCustomerResponse converts a domain Customer to a response
func ToCustomerResponse(c *partner.Customer) CustomerResponse {
	return CustomerResponse{
		ID:          c.ID,
		Number:      c.Number,
		Name:        c.Name,
		Address:     c.Address,
		Email:       c.Email,
		Phone:       c.Phone,
		Level:       c.Level,
		CreditLimit: c.CreditLimit,
		Metadata:    c.Metadata,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// ToCustomerResponses converts a slice of domain customers
func ToCustomerResponses(customers []partner.Customer) []CustomerResponse {
	out := make([]CustomerResponse, len(customers))
	for i := range customers {
		out[i] = ToCustomerResponse(&customers[i])
	}
	return out
}
