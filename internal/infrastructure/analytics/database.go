// Package analytics implements the append-only analytics sink.
package analytics

import (
	"fmt"
	"strings"
	"unicode"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDatabase connects to PostgreSQL, or to SQLite for a sqlite:// URL
func OpenDatabase(databaseURL string, logLevel logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(databaseURL, "sqlite://") {
		dialector = sqlite.Open(strings.TrimPrefix(databaseURL, "sqlite://"))
	} else {
		dialector = postgres.Open(databaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to analytics database: %w", err)
	}
	return db, nil
}

// Namespace turns a project id into a table or topic prefix, "" when unset
func Namespace(projectID string) string {
	if projectID == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range strings.ToLower(projectID) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String() + "_"
}
