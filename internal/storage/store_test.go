package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func openTemp(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, path, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s
}

func TestStoreDefaultLayerSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "keyweave.db")

	s := openTemp(t, path)
	if _, ok, err := s.DefaultLayer(ctx); err != nil || ok {
		t.Fatalf("fresh DefaultLayer() = ok %v, err %v", ok, err)
	}
	if err := s.SetDefaultLayer(ctx, 1); err != nil {
		t.Fatalf("SetDefaultLayer() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s = openTemp(t, path)
	defer s.Close()
	id, ok, err := s.DefaultLayer(ctx)
	if err != nil || !ok || id != 1 {
		t.Errorf("reopened DefaultLayer() = %d, %v, %v, want 1, true, nil", id, ok, err)
	}
}

func TestStoreHistory(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t, ":memory:")
	defer s.Close()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for _, id := range []int{1, 0, 1} {
		if err := s.SetDefaultLayer(ctx, id); err != nil {
			t.Fatalf("SetDefaultLayer(%d) error = %v", id, err)
		}
	}

	all, err := s.History(ctx, 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("History() returned %d rows, want 3", len(all))
	}
	want := []int{1, 0, 1}
	for i, sel := range all {
		if sel.Layer != want[len(want)-1-i] {
			t.Errorf("History()[%d].Layer = %d", i, sel.Layer)
		}
		if _, err := uuid.Parse(sel.ID); err != nil {
			t.Errorf("History()[%d].ID = %q is not a uuid", i, sel.ID)
		}
	}
	if !all[0].SelectedAt.After(all[2].SelectedAt) {
		t.Error("History() not newest first")
	}

	last, err := s.History(ctx, 1)
	if err != nil || len(last) != 1 {
		t.Errorf("History(1) = %v, %v", last, err)
	}

	id, _, _ := s.DefaultLayer(ctx)
	if id != 1 {
		t.Errorf("DefaultLayer() = %d, want 1", id)
	}
}

func TestStoreClosed(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t, ":memory:")
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if _, _, err := s.DefaultLayer(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("DefaultLayer() error = %v, want ErrClosed", err)
	}
	if err := s.SetDefaultLayer(ctx, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("SetDefaultLayer() error = %v, want ErrClosed", err)
	}
	if _, err := s.History(ctx, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("History() error = %v, want ErrClosed", err)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open("oracle", "x", nil); !errors.Is(err, ErrUnsupportedDriver) {
		t.Errorf("Open(oracle) error = %v, want ErrUnsupportedDriver", err)
	}
	if _, err := New(nil, "oracle", nil); !errors.Is(err, ErrUnsupportedDriver) {
		t.Errorf("New(oracle) error = %v, want ErrUnsupportedDriver", err)
	}
}

func TestSQLDriverName(t *testing.T) {
	tests := map[string]string{
		DriverSQLite:   "sqlite",
		DriverPostgres: "pgx",
		DriverMySQL:    "mysql",
	}
	for driver, want := range tests {
		got, err := sqlDriverName(driver)
		if err != nil || got != want {
			t.Errorf("sqlDriverName(%q) = %q, %v, want %q", driver, got, err, want)
		}
	}
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	s, err := New(db, DriverSQLite, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s, mock
}

func TestStoreReadFailure(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("disk gone")
	mock.ExpectQuery("SELECT").WillReturnError(boom)

	if _, ok, err := s.DefaultLayer(context.Background()); err == nil || ok {
		t.Errorf("DefaultLayer() = ok %v, err %v, want error", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestStoreBadStoredValue(t *testing.T) {
	s, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"name", "value", "updated_at"}).
		AddRow(keyDefaultLayer, "hack", time.Now())
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	if _, _, err := s.DefaultLayer(context.Background()); !errors.Is(err, ErrBadValue) {
		t.Errorf("DefaultLayer() error = %v, want ErrBadValue", err)
	}
}

func TestStoreWriteFailureRollsBack(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT").WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	if err := s.SetDefaultLayer(context.Background(), 1); err == nil {
		t.Error("SetDefaultLayer() succeeded, want error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestOpenMigrationFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer func() { _ = db.Close() }()

	orig := sqlOpenFunc
	sqlOpenFunc = func(driverName, dsn string) (*sql.DB, error) { return db, nil }
	defer func() { sqlOpenFunc = orig }()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("read-only"))

	if _, err := Open(DriverSQLite, "whatever", nil); err == nil {
		t.Error("Open() succeeded despite migration failure")
	}
}
