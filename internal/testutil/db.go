package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/codr1/fieldbook/internal/db"
	dbgen "github.com/codr1/fieldbook/internal/db/generated"
)

// NewTestDB creates a temporary SQLite database with migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

var seedCounter atomic.Int64

// CreateField inserts a field and returns its id.
func CreateField(t *testing.T, database *db.DB) int64 {
	t.Helper()

	n := seedCounter.Add(1)
	field, err := database.Queries.CreateField(context.Background(), dbgen.CreateFieldParams{
		Name:     fmt.Sprintf("Field %d", n),
		Surface:  "turf",
		Timezone: "UTC",
	})
	if err != nil {
		t.Fatalf("create field: %v", err)
	}
	return field.ID
}

// CreateUser inserts a user with a unique email and returns its id.
func CreateUser(t *testing.T, database *db.DB) int64 {
	t.Helper()

	n := seedCounter.Add(1)
	user, err := database.Queries.CreateUser(context.Background(), dbgen.CreateUserParams{
		FirstName: "Player",
		LastName:  fmt.Sprintf("%d", n),
		Email:     sql.NullString{String: fmt.Sprintf("player%d@example.com", n), Valid: true},
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user.ID
}

// CreateUsers inserts n users and returns their ids in insertion order.
func CreateUsers(t *testing.T, database *db.DB, n int) []int64 {
	t.Helper()

	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, CreateUser(t, database))
	}
	return ids
}
