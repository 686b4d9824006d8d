package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/meltforce/liftlog/internal/models"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

//go:embed migrations
var migrationFS embed.FS

// Backend is the read surface shared by the SQLite and Postgres stores.
type Backend interface {
	FinishedSessions(ctx context.Context, f SessionFilter) ([]models.WorkoutSession, error)
	GetSession(ctx context.Context, id string) (*models.WorkoutSession, error)
	QuerySetFacts(ctx context.Context, f SetFilter) ([]models.SetFact, error)
	QueryExerciseUsage(ctx context.Context, f SetFilter) ([]ExerciseUsage, error)
	ListExercises(ctx context.Context) ([]models.Exercise, error)
	GetDataStats(ctx context.Context) (*DataStats, error)
	Backups
	Close() error
}

// Backups is the write surface used by backup imports. It is the only path
// through which this module writes workout data.
type Backups interface {
	ImportBackup(ctx context.Context, data *models.Export, mode ImportMode) (*ImportResult, error)
	ExportBackup(ctx context.Context, now time.Time) (*models.Export, error)
	InsertImportLog(ctx context.Context, l ImportLog) (int64, error)
	UpdateImportLog(ctx context.Context, id int64, l ImportLog) error
	QueryImportLogs(ctx context.Context, limit int) ([]ImportLog, error)
}

var (
	_ Backend = (*DB)(nil)
	_ Backend = (*SQLite)(nil)
)

// SessionFilter narrows FinishedSessions. Zero values mean "no constraint".
type SessionFilter struct {
	Since  *time.Time // started_at >= Since
	Until  *time.Time // started_at < Until
	Type   models.WorkoutType
	Limit  int
	Newest bool // order newest first instead of oldest first
}

// SetFilter narrows QuerySetFacts. Only sets of finished sessions are
// returned unless IncludeUnfinished is set.
type SetFilter struct {
	Since             *time.Time
	Until             *time.Time
	Type              models.WorkoutType
	ExerciseID        string
	SessionID         string
	IncludeUnfinished bool
}

// ExerciseUsage is the number of exercise logs of one exercise matching a
// SetFilter, whether or not the logs have sets.
type ExerciseUsage struct {
	ExerciseID   string
	ExerciseName string
	MuscleGroup  *models.MuscleGroup
	Logs         int
}

// Open connects to the configured backend. For sqlite the dsn is a file path
// (an optional sqlite:// prefix is stripped).
func Open(ctx context.Context, driver, dsn string) (Backend, error) {
	switch driver {
	case DriverSQLite:
		return OpenSQLite(strings.TrimPrefix(dsn, "sqlite://"))
	case DriverPostgres:
		return New(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// RunMigrations applies all pending embedded migrations for driver.
func RunMigrations(driver, dsn string) error {
	var url string
	switch driver {
	case DriverSQLite:
		url = "sqlite://" + strings.TrimPrefix(dsn, "sqlite://")
	case DriverPostgres:
		url = dsn
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	src, err := iofs.New(migrationFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
