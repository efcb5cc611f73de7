package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/team-checklist-api/internal/utils"
)

// Paginate limits a query to one page. A zero page or limit leaves the query
// unbounded.
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if params.Page < 1 || params.Limit < 1 {
			return db
		}
		return db.Offset((params.Page - 1) * params.Limit).Limit(params.Limit)
	}
}

// DayRange keeps rows whose day column falls within [from, to]. Days are
// YYYY-MM-DD strings, so lexical order is calendar order. Empty bounds are
// open.
func DayRange(from, to string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if from != "" {
			db = db.Where("day >= ?", from)
		}
		if to != "" {
			db = db.Where("day <= ?", to)
		}
		return db
	}
}
