package services

import (
	"context"

	"gorm.io/gorm"
)

// transact runs fn inside a database transaction. A nil handle passes a nil
// tx through, which the repos treat as the pool; fixtures built on faked
// repos run services without a database.
func transact(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}
