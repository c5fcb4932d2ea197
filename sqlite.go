//go:build sqlite

package main

// sqlite support

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newDialector(dsn string) gorm.Dialector {
	return &sqlite.Dialector{
		DSN: dsn,
	}
}

func configureDB(db *gorm.DB) error {
	// identities, posts and reactions are linked by foreign keys; sqlite
	// does not enforce them unless asked
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return err
	}
	// inbound callbacks and the admin surface write concurrently
	return db.Exec("PRAGMA busy_timeout = 5000").Error
}
