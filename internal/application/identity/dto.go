package identity

import (
	"time"

	"github.com/sultan/backend/internal/domain/identity"
	"github.com/sultan/backend/internal/domain/shared/access"
	"github.com/sultan/backend/internal/domain/shared/update"
)

// =============================================================================
// Branch DTOs
// =============================================================================

// CreateBranchRequest represents a request to create a branch
type CreateBranchRequest struct {
	IsMain    bool    `json:"is_main"`
	Name      string  `json:"name" binding:"required,min=1,max=100"`
	Code      string  `json:"code" binding:"required,min=1,max=20"`
	Address   *string `json:"address" binding:"omitempty,max=500"`
	Phone     *string `json:"phone" binding:"omitempty,max=50"`
	TaxNumber *string `json:"tax_number" binding:"omitempty,max=30"`
	Image     *string `json:"image" binding:"omitempty,max=500"`
}

// ToDomain converts the request to a domain create value
func (r CreateBranchRequest) ToDomain() *identity.BranchCreate {
	return &identity.BranchCreate{
		IsMain:    r.IsMain,
		Name:      r.Name,
		Code:      r.Code,
		Address:   r.Address,
		Phone:     r.Phone,
		TaxNumber: r.TaxNumber,
		Image:     r.Image,
	}
}

// UpdateBranchRequest is a partial update; null clears a nullable column
type UpdateBranchRequest struct {
	IsMain    *bool                `json:"is_main"`
	Name      *string              `json:"name" binding:"omitempty,min=1,max=100"`
	Code      *string              `json:"code" binding:"omitempty,min=1,max=20"`
	Address   update.Field[string] `json:"address" binding:"omitempty,max=500"`
	Phone     update.Field[string] `json:"phone" binding:"omitempty,max=50"`
	TaxNumber update.Field[string] `json:"tax_number" binding:"omitempty,max=30"`
	Image     update.Field[string] `json:"image" binding:"omitempty,max=500"`
}

// ToDomain converts the request to a domain update value
func (r UpdateBranchRequest) ToDomain() *identity.BranchUpdate {
	return &identity.BranchUpdate{
		IsMain:    r.IsMain,
		Name:      r.Name,
		Code:      r.Code,
		Address:   r.Address,
		Phone:     r.Phone,
		TaxNumber: r.TaxNumber,
		Image:     r.Image,
	}
}

// BranchResponse represents a branch in API responses
type BranchResponse struct {
	ID        int64     `json:"id,string"`
	IsMain    bool      `json:"is_main"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Address   *string   `json:"address"`
	Phone     *string   `json:"phone"`
	TaxNumber *string   `json:"tax_number"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToBranchResponse converts a domain Branch to a response
func ToBranchResponse(b *identity.Branch) BranchResponse {
	return BranchResponse{
		ID:        b.ID,
		IsMain:    b.IsMain,
		Name:      b.Name,
		Code:      b.Code,
		Address:   b.Address,
		Phone:     b.Phone,
		TaxNumber: b.TaxNumber,
		Image:     b.Image,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// =============================================================================
// Permission DTOs
// =============================================================================

// GrantPermissionRequest sets the action mask a user has on a resource,
// globally or on one branch
type GrantPermissionRequest struct {
	BranchID *int64          `json:"branch_id,string"`
	Resource access.Resource `json:"resource" binding:"required,gt=0"`
	Action   access.Action   `json:"action" binding:"required,gt=0,lte=15"`
}

// RevokePermissionRequest removes one grant
type RevokePermissionRequest struct {
	BranchID *int64          `json:"branch_id,string"`
	Resource access.Resource `json:"resource" binding:"required,gt=0"`
}

// PermissionResponse represents one stored grant
type PermissionResponse struct {
	UserID       int64  `json:"user_id,string"`
	BranchID     *int64 `json:"branch_id,string"`
	Resource     int32  `json:"resource"`
	ResourceName string `json:"resource_name"`
	Action       int32  `json:"action"`
	ActionNames  string `json:"action_names"`
}

// ToPermissionResponse converts a stored grant to a response
func ToPermissionResponse(p identity.Permission) PermissionResponse {
	return PermissionResponse{
		UserID:       p.UserID,
		BranchID:     p.BranchID,
		Resource:     int32(p.Resource),
		ResourceName: p.Resource.String(),
		Action:       int32(p.Action),
		ActionNames:  p.Action.String(),
	}
}
