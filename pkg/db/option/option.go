package option

import (
	"strconv"
	"time"

	"github.com/smallbiznis/atelier/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement.
type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type QueryOptionFunc func(*gorm.DB) *gorm.DB

func (f QueryOptionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// ApplyPaginationOn applies keyset pagination over (created_at desc, id desc)
// on the given table alias. It fetches one extra row so callers can detect a
// following page.
func ApplyPaginationOn(table string, page pagination.Pagination) QueryOption {
	page = page.Normalize()
	prefix := ""
	if table != "" {
		prefix = table + "."
	}
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if page.PageToken != "" {
			cursor, err := pagination.DecodeCursor(page.PageToken)
			if err == nil {
				createdAt, timeErr := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
				id, idErr := strconv.ParseInt(cursor.ID, 10, 64)
				if timeErr == nil && idErr == nil {
					db = db.Where(
						"("+prefix+"created_at < ?) OR ("+prefix+"created_at = ? AND "+prefix+"id < ?)",
						createdAt, createdAt, id,
					)
				}
			}
		}
		return db.Order(prefix + "created_at desc").Order(prefix + "id desc").Limit(page.PageSize + 1)
	})
}
