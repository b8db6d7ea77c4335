package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/dshills/keyweave/internal/logging"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// keyDefaultLayer is the settings row holding the default layer id.
const keyDefaultLayer = "default_layer"

// sqlOpenFunc allows tests to override database opening.
var sqlOpenFunc = sql.Open

// Backend reads and writes the default layer.
type Backend interface {
	DefaultLayer(ctx context.Context) (int, bool, error)
	SetDefaultLayer(ctx context.Context, id int) error
}

// Selection is one entry of the selection history.
type Selection struct {
	ID         string
	Layer      int
	SelectedAt time.Time
}

type settingModel struct {
	bun.BaseModel `bun:"table:settings"`
	Name          string    `bun:"name,pk"`
	Value         string    `bun:"value,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,notnull"`
}

type selectionModel struct {
	bun.BaseModel `bun:"table:selections"`
	ID            string    `bun:"id,pk"`
	Layer         int       `bun:"layer,notnull"`
	SelectedAt    time.Time `bun:"selected_at,notnull"`
}

// Store is a bun-backed Backend.
type Store struct {
	mu     sync.Mutex
	db     *bun.DB
	driver string
	logger *logging.Logger
	now    func() time.Time
	closed bool
}

// Open connects to the database, creates missing tables and returns a Store.
func Open(driver, dsn string, logger *logging.Logger) (*Store, error) {
	driverName, err := sqlDriverName(driver)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	sqlDB, err := sqlOpenFunc(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One writer; :memory: databases are per connection.
		sqlDB.SetMaxOpenConns(1)
	}

	s, err := New(sqlDB, driver, logger)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	s.logger.Debug("opened store", "driver", driver, "took", time.Since(start))
	return s, nil
}

// New wraps an open database. It does not create tables.
func New(sqlDB *sql.DB, driver string, logger *logging.Logger) (*Store, error) {
	db, err := createBunDB(sqlDB, driver)
	if err != nil {
		return nil, err
	}
	return &Store{
		db:     db,
		driver: driver,
		logger: logging.OrDiscard(logger).WithComponent("storage"),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func sqlDriverName(driver string) (string, error) {
	switch driver {
	case DriverSQLite, DriverMySQL:
		return driver, nil
	case DriverPostgres:
		// pgx stdlib registers as "pgx".
		return "pgx", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

func createBunDB(sqlDB *sql.DB, driver string) (*bun.DB, error) {
	switch driver {
	case DriverSQLite:
		return bun.NewDB(sqlDB, sqlitedialect.New()), nil
	case DriverPostgres:
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	case DriverMySQL:
		return bun.NewDB(sqlDB, mysqldialect.New()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// Driver returns the configured driver name.
func (s *Store) Driver() string {
	return s.driver
}

// Migrate creates the settings and selections tables if they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	models := []any{(*settingModel)(nil), (*selectionModel)(nil)}
	for _, m := range models {
		if _, err := s.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("creating table: %w", err)
		}
	}
	return nil
}

// DefaultLayer returns the stored default layer id. ok is false when
// nothing has been stored yet.
func (s *Store) DefaultLayer(ctx context.Context) (id int, ok bool, err error) {
	if s.isClosed() {
		return 0, false, ErrClosed
	}

	var m settingModel
	err = s.db.NewSelect().Model(&m).Where("name = ?", keyDefaultLayer).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading default layer: %w", err)
	}

	id, err = strconv.Atoi(m.Value)
	if err != nil || id < 0 {
		return 0, false, fmt.Errorf("%w: %q", ErrBadValue, m.Value)
	}
	return id, true, nil
}

// SetDefaultLayer stores id as the default layer and appends it to the
// selection history in one transaction.
func (s *Store) SetDefaultLayer(ctx context.Context, id int) error {
	if s.isClosed() {
		return ErrClosed
	}

	now := s.now()
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*settingModel)(nil)).
			Where("name = ?", keyDefaultLayer).Exec(ctx); err != nil {
			return err
		}
		setting := &settingModel{Name: keyDefaultLayer, Value: strconv.Itoa(id), UpdatedAt: now}
		if _, err := tx.NewInsert().Model(setting).Exec(ctx); err != nil {
			return err
		}
		sel := &selectionModel{ID: uuid.NewString(), Layer: id, SelectedAt: now}
		_, err := tx.NewInsert().Model(sel).Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("writing default layer: %w", err)
	}
	return nil
}

// History returns up to limit selections, newest first. A limit of zero
// or less returns every selection.
func (s *Store) History(ctx context.Context, limit int) ([]Selection, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}

	var rows []selectionModel
	q := s.db.NewSelect().Model(&rows).Order("selected_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	out := make([]Selection, len(rows))
	for i, r := range rows {
		out[i] = Selection{ID: r.ID, Layer: r.Layer, SelectedAt: r.SelectedAt}
	}
	return out, nil
}

// Close closes the database. It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
