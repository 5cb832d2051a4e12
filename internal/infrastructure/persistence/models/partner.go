package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/sultan/backend/internal/domain/partner"
)

// CustomerModel is the persistence model for the Customer domain entity.
type CustomerModel struct {
	BaseModel
	Number      string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Address     *string         `gorm:"type:text"`
	Email       *string         `gorm:"type:varchar(200);index"`
	Phone       *string         `gorm:"type:varchar(50);index"`
	Level       int32           `gorm:"not null;default:0"`
	CreditLimit decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Metadata    *string         `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *partner.Customer {
	c := &partner.Customer{
		ID:          m.ID,
		Number:      m.Number,
		Name:        m.Name,
		Address:     m.Address,
		Email:       m.Email,
		Phone:       m.Phone,
		Level:       m.Level,
		CreditLimit: m.CreditLimit,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		DeletedAt:   m.DeletedAtPtr(),
	}
	if m.Metadata != nil {
		c.Metadata = json.RawMessage(*m.Metadata)
	}
	return c
}

// CustomerModelFromCreate builds the row inserted for a new customer
func CustomerModelFromCreate(id int64, c *partner.CustomerCreate) *CustomerModel {
	return &CustomerModel{
		BaseModel:   BaseModel{ID: id},
		Number:      c.Number,
		Name:        c.Name,
		Address:     c.Address,
		Email:       c.Email,
		Phone:       c.Phone,
		Level:       c.Level,
		CreditLimit: c.CreditLimit,
		Metadata:    MetadataColumn(c.Metadata),
	}
}

// MetadataColumn converts raw JSON to the nullable column value
func MetadataColumn(meta json.RawMessage) *string {
	if len(meta) == 0 {
		return nil
	}
	s := string(meta)
	return &s
}
