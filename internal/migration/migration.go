package migration

import (
	"context"
	"fmt"

	"studentperf/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Dialect selects the DDL flavour
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DialectFor maps a database/sql driver name to its dialect
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", driver)
}

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
	dialect Dialect
}

// NewRunner creates a new migration runner
func NewRunner(dialect Dialect) *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
		dialect: dialect,
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order. Every step is
// idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	steps := []struct {
		name string
		ddl  string
	}{
		{"directions table", r.directionsTable()},
		{"student table", r.studentTable()},
		{"ml_model table", r.modelTable()},
		{"prediction table", r.predictionTable()},
		{"student direction index", `CREATE INDEX IF NOT EXISTS idx_student_direction ON student(direction_id)`},
		{"ml_model direction index", `CREATE INDEX IF NOT EXISTS idx_ml_model_direction ON ml_model(direction_id)`},
		{"prediction model index", `CREATE INDEX IF NOT EXISTS idx_prediction_model ON prediction(model_id)`},
	}
	for _, step := range steps {
		if _, err := db.ExecContext(ctx, step.ddl); err != nil {
			return errors.Wrapf(err, "failed to create %s", step.name)
		}
	}
	return nil
}

func (r *MigrationRunner) serial() string {
	if r.dialect == SQLite {
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return "BIGSERIAL PRIMARY KEY"
}

func (r *MigrationRunner) ref() string {
	if r.dialect == SQLite {
		return "INTEGER"
	}
	return "BIGINT"
}

func (r *MigrationRunner) directionsTable() string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS directions (
			id %s,
			name TEXT NOT NULL UNIQUE
		)`, r.serial())
}

func (r *MigrationRunner) studentTable() string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS student (
			id %s,
			full_name TEXT NOT NULL,
			math_score INTEGER NOT NULL,
			russian_score INTEGER NOT NULL,
			ege_score INTEGER NOT NULL,
			session_1_passed BOOLEAN NOT NULL DEFAULT FALSE,
			session_2_passed BOOLEAN NOT NULL DEFAULT FALSE,
			session_3_passed BOOLEAN NOT NULL DEFAULT FALSE,
			session_4_passed BOOLEAN NOT NULL DEFAULT FALSE,
			direction_id %s NOT NULL REFERENCES directions(id) ON DELETE CASCADE
		)`, r.serial(), r.ref())
}

func (r *MigrationRunner) modelTable() string {
	features := "JSONB"
	if r.dialect == SQLite {
		features = "TEXT"
	}
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS ml_model (
			id %s,
			name TEXT NOT NULL UNIQUE,
			features %s NOT NULL,
			direction_id %s REFERENCES directions(id) ON DELETE SET NULL
		)`, r.serial(), features, r.ref())
}

func (r *MigrationRunner) predictionTable() string {
	prob := "DOUBLE PRECISION"
	if r.dialect == SQLite {
		prob = "REAL"
	}
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS prediction (
			id %s,
			student_id %s NOT NULL REFERENCES student(id) ON DELETE CASCADE,
			predicted_class INTEGER NOT NULL,
			predicted_prob %s NOT NULL,
			model_id %s NOT NULL REFERENCES ml_model(id) ON DELETE CASCADE,
			UNIQUE (student_id, model_id)
		)`, r.serial(), r.ref(), prob, r.ref())
}
