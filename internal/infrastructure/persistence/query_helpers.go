package persistence

import (
	"errors"
	"strings"
	"time"

	"github.com/clearbook/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// translateError maps gorm sentinel errors onto domain errors.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	}
	return err
}

// paginate applies offset and limit when the filter asks for a page.
func paginate(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	return query
}

// orderBy applies a whitelisted ordering followed by a stable tiebreaker.
func orderBy(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField, defaultDir string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	dir := defaultDir
	if filter.OrderBy != "" {
		dir = ValidateSortOrder(filter.OrderDir)
	}
	return query.Order(clause.OrderByColumn{Column: clause.Column{Name: field}, Desc: dir == "DESC"}).Order("id")
}

// searchLike matches the term case-insensitively against every column.
// LOWER()/LIKE keeps the query portable to SQLite.
func searchLike(query *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return query
	}
	pattern := "%" + strings.ToLower(term) + "%"
	conds := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, c := range columns {
		conds[i] = "LOWER(" + c + ") LIKE ?"
		args[i] = pattern
	}
	return query.Where("("+strings.Join(conds, " OR ")+")", args...)
}

// dateBounds restricts column to the "from"/"to" filter values.
func dateBounds(query *gorm.DB, filter shared.Filter, column string) *gorm.DB {
	if from, ok := filterTime(filter, "from"); ok {
		query = query.Where(column+" >= ?", shared.DateOnly(from))
	}
	if to, ok := filterTime(filter, "to"); ok {
		query = query.Where(column+" <= ?", shared.DateOnly(to))
	}
	return query
}

func rangeBounds(query *gorm.DB, r shared.DateRange, column string) *gorm.DB {
	if !r.From.IsZero() {
		query = query.Where(column+" >= ?", shared.DateOnly(r.From))
	}
	if !r.To.IsZero() {
		query = query.Where(column+" <= ?", shared.DateOnly(r.To))
	}
	return query
}

func filterTime(filter shared.Filter, key string) (time.Time, bool) {
	v, ok := filter.Filters[key]
	if !ok {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t != nil && !t.IsZero() {
			return *t, true
		}
	}
	return time.Time{}, false
}

// filterValue returns a non-empty filter value.
func filterValue(filter shared.Filter, key string) (any, bool) {
	v, ok := filter.Filters[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

// forUpdate adds SELECT ... FOR UPDATE. SQLite ignores the clause.
func forUpdate(query *gorm.DB) *gorm.DB {
	return query.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
}

// replaceChildren upserts rows and removes the ones no longer present.
// children must be a pointer to a slice of models with an ID column.
func replaceChildren(tx *gorm.DB, model any, parentColumn string, parentID any, ids []any, children any, count int) error {
	del := tx.Where(parentColumn+" = ?", parentID)
	if len(ids) > 0 {
		del = del.Where("id NOT IN ?", ids)
	}
	if err := del.Delete(model).Error; err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(children).Error
}
