package persistence

import (
	"slices"
	"strings"

	"gorm.io/gorm/clause"

	"github.com/sultan/backend/internal/domain/shared"
)

// sortColumns whitelists the columns a listing may be ordered by. The first
// entry is used when the request names anything else.
type sortColumns []string

var customerSortColumns = sortColumns{"id", "number", "name", "level", "credit_limit", "created_at", "updated_at"}

// orderBy builds the ORDER BY clause for page. Non-id orderings get id as a
// tiebreaker so pages stay stable.
func (s sortColumns) orderBy(page shared.PageRequest) clause.OrderBy {
	column := s[0]
	if want := strings.TrimSpace(page.OrderBy); slices.Contains(s, want) {
		column = want
	}
	order := clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: column}, Desc: page.Desc},
	}}
	if column != "id" {
		order.Columns = append(order.Columns, clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: page.Desc})
	}
	return order
}
