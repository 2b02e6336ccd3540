package db

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	dbgen "github.com/codr1/fieldbook/internal/db/generated"
)

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "bare path",
			in:   "data/fieldbook.db",
			want: []string{"data/fieldbook.db?", "_fk=1", "_txlock=immediate", "_busy_timeout=5000"},
		},
		{
			name: "existing query",
			in:   "file:test.db?cache=shared",
			want: []string{"cache=shared&", "_fk=1", "_txlock=immediate"},
		},
		{
			name: "caller overrides kept",
			in:   "test.db?_busy_timeout=100&_fk=0",
			want: []string{"_busy_timeout=100", "_fk=0", "_txlock=immediate"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SQLiteDSN(tt.in)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Fatalf("SQLiteDSN(%q) = %q, missing %q", tt.in, got, want)
				}
			}
			if strings.Count(got, "?") != 1 {
				t.Fatalf("SQLiteDSN(%q) = %q, want exactly one '?'", tt.in, got)
			}
		})
	}

	if got := SQLiteDSN("test.db?_busy_timeout=100"); strings.Contains(got, "_busy_timeout=5000") {
		t.Fatalf("busy timeout overridden: %q", got)
	}
}

func TestNewAppliesMigrations(t *testing.T) {
	database, err := New(filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer database.Close()

	for _, table := range []string{"users", "teams", "fields", "reservations", "waitlist_entries"} {
		var name string
		err := database.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}

	var fk int
	if err := database.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("read foreign_keys pragma: %v", err)
	}
	if fk != 1 {
		t.Fatalf("foreign_keys = %d, want 1", fk)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	database, err := New(filepath.Join(t.TempDir(), "fk.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer database.Close()

	_, err = database.Queries.CreateReservation(context.Background(), dbgen.CreateReservationParams{
		FieldID:     999,
		UserID:      999,
		SlotDate:    "2024-03-01",
		StartMinute: 600,
		EndMinute:   660,
		Status:      "pending",
	})
	if err == nil {
		t.Fatal("expected foreign key violation")
	}
}

func TestActiveWaitlistEntryIsUnique(t *testing.T) {
	database, err := New(filepath.Join(t.TempDir(), "unique.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	field, err := database.Queries.CreateField(ctx, dbgen.CreateFieldParams{Name: "North", Timezone: "UTC"})
	if err != nil {
		t.Fatalf("create field: %v", err)
	}
	user, err := database.Queries.CreateUser(ctx, dbgen.CreateUserParams{FirstName: "Ada", LastName: "L"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	params := dbgen.CreateWaitlistEntryParams{
		UserID:      user.ID,
		FieldID:     field.ID,
		SlotDate:    "2024-03-01",
		StartMinute: 600,
		EndMinute:   660,
		Status:      "pending",
	}
	if _, err := database.Queries.CreateWaitlistEntry(ctx, params); err != nil {
		t.Fatalf("first entry: %v", err)
	}
	_, err = database.Queries.CreateWaitlistEntry(ctx, params)
	if !IsUniqueViolation(err) {
		t.Fatalf("second entry err = %v, want unique violation", err)
	}

	params.Status = "expired"
	if _, err := database.Queries.CreateWaitlistEntry(ctx, params); err != nil {
		t.Fatalf("inactive duplicate should be allowed: %v", err)
	}
}

func TestRunInTxRollsBack(t *testing.T) {
	database, err := New(filepath.Join(t.TempDir(), "tx.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	err = database.RunInTx(ctx, func(tx *DB) error {
		if _, err := tx.Queries.CreateField(ctx, dbgen.CreateFieldParams{Name: "Rollback", Timezone: "UTC"}); err != nil {
			return err
		}
		return context.Canceled
	})
	if err != context.Canceled {
		t.Fatalf("RunInTx err = %v, want context.Canceled", err)
	}

	fields, err := database.Queries.ListFields(ctx)
	if err != nil {
		t.Fatalf("list fields: %v", err)
	}
	if len(fields) != 0 {
		t.Fatalf("fields = %d, want 0 after rollback", len(fields))
	}
}
