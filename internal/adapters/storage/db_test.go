package storage

import (
	"database/sql"
	"errors"
	"sort"
	"testing"
	"time"
)

// openTestDB creates an in-memory database with the schema applied.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// getTableNames returns sorted table names from sqlite_master, excluding internal tables.
func getTableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan table name: %v", err)
		}
		names = append(names, name)
	}
	return names
}

// TestInitDB_Tables verifies every collection is created.
func TestInitDB_Tables(t *testing.T) {
	db := openTestDB(t)

	want := append([]string(nil), Collections...)
	sort.Strings(want)
	got := getTableNames(t, db)
	if len(got) != len(want) {
		t.Fatalf("got tables %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("table[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestInitDB_Idempotent verifies the schema can be applied twice.
func TestInitDB_Idempotent(t *testing.T) {
	db := openTestDB(t)
	if err := InitDB(db); err != nil {
		t.Fatalf("second InitDB failed: %v", err)
	}
}

// TestInitDB_CompositeUniqueIndex verifies (user_id, class_id) is unique on
// bookings and waitlist, and that the violation maps to ErrDuplicateKey.
func TestInitDB_CompositeUniqueIndex(t *testing.T) {
	db := openTestDB(t)

	for _, table := range []string{"bookings", "waitlist"} {
		t.Run(table, func(t *testing.T) {
			cols := "id, user_id, class_id, booked_at, status"
			extra := ", 'confirmed'"
			if table == "waitlist" {
				cols = "id, user_id, class_id, joined_at"
				extra = ""
			}
			insert := "INSERT INTO " + table + " (" + cols + ") VALUES (?, 'u1', 'c1', '2026-01-01T00:00:00Z'" + extra + ")"
			if _, err := db.Exec(insert, "first"); err != nil {
				t.Fatalf("first insert: %v", err)
			}
			_, err := db.Exec(insert, "second")
			if err == nil {
				t.Fatal("expected unique violation for same (user, class)")
			}
			if !errors.Is(TranslateError(err, table, "second"), ErrDuplicateKey) {
				t.Errorf("TranslateError(%v) is not ErrDuplicateKey", err)
			}
		})
	}
}

// TestInitDB_CapacityCheck verifies non-positive capacity is rejected by the schema.
func TestInitDB_CapacityCheck(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec(`INSERT INTO classes (id, type, name, instructor, date_time, duration_minutes, capacity)
		VALUES ('c1', 'yoga', 'Yoga Class', 'Sarah Chen', '2026-01-01T07:00:00Z', 60, 0)`)
	if err == nil {
		t.Fatal("expected CHECK failure for zero capacity")
	}
}

func TestTranslateError(t *testing.T) {
	if TranslateError(nil, "x", "k") != nil {
		t.Error("nil must stay nil")
	}
	if err := TranslateError(sql.ErrNoRows, "classes", "c1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ErrNoRows should map to ErrNotFound, got %v", err)
	}
	other := errors.New("disk I/O error")
	if err := TranslateError(other, "classes", "c1"); !errors.Is(err, other) || errors.Is(err, ErrNotFound) {
		t.Errorf("unrelated errors must pass through, got %v", err)
	}
}

func TestParseTime(t *testing.T) {
	want := time.Date(2026, 1, 5, 7, 0, 0, 0, time.UTC)
	for _, s := range []string{
		"2026-01-05T07:00:00Z",
		"2026-01-05T07:00:00.000Z",
		"2026-01-05T09:00:00+02:00",
		"2026-01-05 07:00:00",
	} {
		got, err := ParseTime(s)
		if err != nil {
			t.Errorf("ParseTime(%q): %v", s, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseTime(%q) = %v, want %v", s, got, want)
		}
	}
	if _, err := ParseTime("yesterday"); err == nil {
		t.Error("expected error for garbage timestamp")
	}

	round, err := ParseTime(FormatTime(want.Add(123 * time.Millisecond)))
	if err != nil || !round.Equal(want.Add(123*time.Millisecond)) {
		t.Errorf("FormatTime/ParseTime lost precision: %v %v", round, err)
	}

	zero, err := ParseNullTime(FormatNullTime(time.Time{}))
	if err != nil || !zero.IsZero() {
		t.Errorf("null time round trip = %v, %v", zero, err)
	}
}
