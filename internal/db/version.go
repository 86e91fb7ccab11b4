package db

import (
	"github.com/adminkit/toggle/internal/db/migrations"
)

// SchemaVersion returns the number of embedded SQL migration files, which
// equals the schema version this binary expects.
func SchemaVersion() int {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return 0
	}

	count := 0
	for _, e := range entries {
		if !e.IsDir() {
			count++
		}
	}

	return count
}

// OwnedTables lists the tables created by the embedded migrations.
var OwnedTables = []string{"api_keys", "toggle_audit_log"}
