// Package repository holds the gorm data access layer. Services depend on the
// interfaces declared here; methods taking a *gorm.DB run on the caller's
// transaction.
package repository

import "gorm.io/gorm"

// conn returns tx when the caller runs inside a transaction, db otherwise.
func conn(tx, db *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
