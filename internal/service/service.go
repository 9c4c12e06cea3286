// Package service implements the business rules on top of the repositories.
// Business failures are returned as *apierror.Error; anything else is an
// infrastructure error wrapped with the failing operation.
package service

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// businessDate formats t as the YYYY-MM-DD calendar date in loc.
func businessDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(fechaLayout)
}

const fechaLayout = "2006-01-02"
