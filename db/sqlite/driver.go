package sqlite

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open creates a GORM *DB backed by SQLite. WAL mode plus a busy timeout
// lets concurrent writers queue instead of failing with a lock error, and
// immediate transactions take the write lock up front so a read-then-write
// transaction cannot hit an unretryable snapshot upgrade conflict.
func Open(path string) (*gorm.DB, error) {
	dsn := path + "?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}
