package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel provides the common columns of soft-deletable tables. Ids are
// allocated by the application before insert, never by the database.
type BaseModel struct {
	ID        int64          `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// DeletedAtPtr converts the soft delete column for the domain layer
func (m *BaseModel) DeletedAtPtr() *time.Time {
	if !m.DeletedAt.Valid {
		return nil
	}
	t := m.DeletedAt.Time
	return &t
}
