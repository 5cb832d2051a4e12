package models

import (
	"github.com/sultan/backend/internal/domain/identity"
	"github.com/sultan/backend/internal/domain/shared/access"
)

// BranchModel is the persistence model for the Branch domain entity.
type BranchModel struct {
	BaseModel
	IsMain    bool    `gorm:"not null;default:false"`
	Name      string  `gorm:"type:varchar(100);not null"`
	Code      string  `gorm:"type:varchar(20);not null;uniqueIndex"`
	Address   *string `gorm:"type:text"`
	Phone     *string `gorm:"type:varchar(50)"`
	TaxNumber *string `gorm:"type:varchar(30)"`
	Image     *string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (BranchModel) TableName() string {
	return "branches"
}

// ToDomain converts the persistence model to a domain Branch
func (m *BranchModel) ToDomain() *identity.Branch {
	return &identity.Branch{
		ID:        m.ID,
		IsMain:    m.IsMain,
		Name:      m.Name,
		Code:      m.Code,
		Address:   m.Address,
		Phone:     m.Phone,
		TaxNumber: m.TaxNumber,
		Image:     m.Image,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		DeletedAt: m.DeletedAtPtr(),
	}
}

// BranchModelFromCreate builds the row inserted for a new branch
func BranchModelFromCreate(id int64, b *identity.BranchCreate) *BranchModel {
	return &BranchModel{
		BaseModel: BaseModel{ID: id},
		IsMain:    b.IsMain,
		Name:      b.Name,
		Code:      b.Code,
		Address:   b.Address,
		Phone:     b.Phone,
		TaxNumber: b.TaxNumber,
		Image:     b.Image,
	}
}

// PermissionModel is one row of the permissions table. A NULL branch_id
// is a global grant. Rows are hard deleted.
type PermissionModel struct {
	UserID     int64  `gorm:"not null;index"`
	BranchID   *int64 `gorm:"index"`
	Permission int32  `gorm:"not null"`
	Action     int32  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PermissionModel) TableName() string {
	return "permissions"
}

// ToDomain converts the row to a domain Permission
func (m *PermissionModel) ToDomain() identity.Permission {
	return identity.Permission{
		UserID:   m.UserID,
		BranchID: m.BranchID,
		Resource: access.Resource(m.Permission),
		Action:   access.Action(m.Action),
	}
}

// PermissionModelFromDomain converts a domain Permission to a row
func PermissionModelFromDomain(p identity.Permission) *PermissionModel {
	return &PermissionModel{
		UserID:     p.UserID,
		BranchID:   p.BranchID,
		Permission: int32(p.Resource),
		Action:     int32(p.Action),
	}
}
