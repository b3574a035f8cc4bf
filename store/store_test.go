package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vinizap/lumi-notes/domain"
)

// newTestStore opens a migrated SQLite database in a temp dir. The clock
// advances one second per call so ordering by updated_at is deterministic.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data", "notes.db")
	s, err := Open(context.Background(), "sqlite://"+path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		wantDialect Dialect
		wantDSN     string
		wantErr     bool
	}{
		{name: "postgres", url: "postgres://u:p@localhost/db", wantDialect: Postgres, wantDSN: "postgres://u:p@localhost/db"},
		{name: "postgresql", url: "postgresql://localhost/db", wantDialect: Postgres, wantDSN: "postgresql://localhost/db"},
		{name: "sqlite scheme", url: "sqlite:///tmp/n.db", wantDialect: SQLite, wantDSN: "file:/tmp/n.db?_busy_timeout=5000&_foreign_keys=on"},
		{name: "bare path", url: "./data/n.db", wantDialect: SQLite, wantDSN: "file:./data/n.db?_busy_timeout=5000&_foreign_keys=on"},
		{name: "existing params", url: "file:n.db?cache=shared", wantDialect: SQLite, wantDSN: "file:n.db?cache=shared&_busy_timeout=5000&_foreign_keys=on"},
		{name: "empty", url: "  ", wantErr: true},
		{name: "scheme only", url: "sqlite://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialect, dsn, err := ParseURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if dialect != tt.wantDialect || dsn != tt.wantDSN {
				t.Errorf("ParseURL(%q) = %q, %q; want %q, %q", tt.url, dialect, dsn, tt.wantDialect, tt.wantDSN)
			}
		})
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: Postgres}
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Errorf("rebind() = %q", got)
	}
	lite := &Store{dialect: SQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("rebind() = %q", got)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.Migrate(); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if s.Dialect().Name() != "SQLite" {
		t.Errorf("Dialect().Name() = %q", s.Dialect().Name())
	}
}

func TestMigrateDown(t *testing.T) {
	s := newTestStore(t)
	if err := s.MigrateDown(); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
	if _, err := s.ListNotes(context.Background()); err == nil {
		t.Error("ListNotes() after MigrateDown should fail")
	}
}

func TestUnmigratedSchemaIsUnavailable(t *testing.T) {
	s, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "fresh.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if _, err := s.ListNotes(context.Background()); domain.KindOf(err) != domain.KindUnavailable {
		t.Errorf("ListNotes() error = %v (kind %v), want unavailable", err, domain.KindOf(err))
	}
	if _, err := s.GetUser(context.Background(), 1); domain.KindOf(err) != domain.KindUnavailable {
		t.Errorf("GetUser() error = %v (kind %v), want unavailable", err, domain.KindOf(err))
	}
}

func TestMigrateWhenReady(t *testing.T) {
	// A regular file where the database directory should be keeps SQLite
	// from opening until it is replaced by a directory.
	dir := filepath.Join(t.TempDir(), "data")
	if err := os.WriteFile(dir, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := New("sqlite://" + filepath.Join(dir, "notes.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	if err := s.Ping(ctx); domain.KindOf(err) != domain.KindUnavailable {
		t.Fatalf("Ping() error = %v, want unavailable", err)
	}
	if _, err := s.ListNotes(ctx); domain.KindOf(err) != domain.KindUnavailable {
		t.Fatalf("ListNotes() error = %v, want unavailable", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.MigrateWhenReady(ctx, 10*time.Millisecond) }()

	time.Sleep(50 * time.Millisecond)
	if err := os.Remove(dir); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := <-done; err != nil {
		t.Fatalf("MigrateWhenReady() error = %v", err)
	}
	notes, err := s.ListNotes(ctx)
	if err != nil || len(notes) != 0 {
		t.Errorf("ListNotes() = %v, %v, want empty list", notes, err)
	}
}

func TestMigrateWhenReadyStopsWithContext(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := New("sqlite://" + filepath.Join(blocker, "notes.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := s.MigrateWhenReady(ctx, 10*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("MigrateWhenReady() error = %v, want deadline exceeded", err)
	}
}
