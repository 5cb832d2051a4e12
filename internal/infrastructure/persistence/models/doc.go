// Package models contains GORM persistence models that map to database tables.
// They are kept apart from the domain entities so the domain layer stays free
// of ORM tags; repositories convert with ToDomain.
//
// Soft deletion uses gorm.DeletedAt, so every query through these models is
// scoped to live rows unless Unscoped is called.
package models
