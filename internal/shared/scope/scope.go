// Package scope holds reusable gorm query scopes.
package scope

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Unreleased keeps assignment rows that are still active.
func Unreleased(table string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(table + ".released_at IS NULL")
	}
}

// Status filters on a status column.
func Status(table, status string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(table+".status = ?", status)
	}
}

// ReportsTo keeps rows whose employee has managerID as direct manager.
// The query must join employee_profiles as ep.
func ReportsTo(managerID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("ep.manager_id = ?", managerID)
	}
}
