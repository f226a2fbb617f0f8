// Package sqlite implements the repository interfaces on an embedded
// SQLite database.
//
// modernc.org/sqlite is a pure-Go translation of SQLite — no CGo, no C
// toolchain, cross-compiles anywhere Go does. The database is a single
// file (or ":memory:" in tests), which fits a single-server deployment
// of this API with no extra infrastructure.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool. The per-entity repositories
// (UserDB, ExerciseDB, WorkoutDB) share it, so the whole store runs on
// one connection pool and one set of pragmas.
type DB struct {
	conn *sql.DB
}

// UserDB implements repository.UserRepository on the shared pool.
type UserDB struct {
	db *DB
}

// ExerciseDB implements repository.ExerciseRepository on the shared pool.
type ExerciseDB struct {
	db *DB
}

// WorkoutDB implements repository.WorkoutRepository on the shared pool.
type WorkoutDB struct {
	db *DB
}

// Users returns the user repository view of the database.
func (db *DB) Users() *UserDB {
	return &UserDB{db: db}
}

// Exercises returns the exercise repository view of the database.
func (db *DB) Exercises() *ExerciseDB {
	return &ExerciseDB{db: db}
}

// Workouts returns the workout repository view of the database.
func (db *DB) Workouts() *WorkoutDB {
	return &WorkoutDB{db: db}
}

// New opens the database at dbPath (":memory:" for tests), verifies the
// connection, configures pragmas, and runs migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in flight — necessary
	// for a web server where requests overlap.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite; the workout_exercises
	// join table relies on them.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it
// idempotent, so startup is safe against an existing database file.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                TEXT PRIMARY KEY,
			name              TEXT NOT NULL,
			email             TEXT NOT NULL UNIQUE,
			role              TEXT NOT NULL DEFAULT 'user',
			password_hash     TEXT NOT NULL,
			reset_token_hash  TEXT,
			reset_expires_at  DATETIME,
			formatted_address TEXT NOT NULL DEFAULT '',
			city              TEXT NOT NULL DEFAULT '',
			state             TEXT NOT NULL DEFAULT '',
			zip_code          TEXT NOT NULL DEFAULT '',
			country           TEXT NOT NULL DEFAULT '',
			longitude         REAL NOT NULL DEFAULT 0,
			latitude          REAL NOT NULL DEFAULT 0,
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_users_reset_token_hash ON users(reset_token_hash);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// List-valued exercise fields (aliases, muscles, instructions, tips)
	// are stored as JSON text — SQLite has no array type and the lists
	// are only ever read back whole.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS exercises (
			id                TEXT PRIMARY KEY,
			name              TEXT NOT NULL,
			aliases           TEXT NOT NULL DEFAULT '[]',
			primary_muscles   TEXT NOT NULL DEFAULT '[]',
			secondary_muscles TEXT NOT NULL DEFAULT '[]',
			force             TEXT NOT NULL DEFAULT '',
			level             TEXT NOT NULL DEFAULT '',
			mechanic          TEXT NOT NULL DEFAULT '',
			equipment         TEXT NOT NULL DEFAULT '',
			category          TEXT NOT NULL,
			instructions      TEXT NOT NULL DEFAULT '[]',
			description       TEXT NOT NULL DEFAULT '',
			tips              TEXT NOT NULL DEFAULT '[]',
			sets              INTEGER NOT NULL DEFAULT 3,
			reps_per_set      INTEGER NOT NULL DEFAULT 10,
			weighted          INTEGER NOT NULL DEFAULT 1,
			weight_per_rep    REAL NOT NULL DEFAULT 45,
			weight_units      TEXT NOT NULL DEFAULT 'lbs',
			owner_user_id     TEXT REFERENCES users(id),
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_exercises_created_at ON exercises(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating exercises table: %w", err)
	}

	// workout_exercises keeps the exercise list ordered via position and
	// permits duplicates (the same exercise twice in one workout).
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS workouts (
			id            TEXT PRIMARY KEY,
			owner_user_id TEXT NOT NULL REFERENCES users(id),
			title         TEXT NOT NULL,
			privacy       TEXT NOT NULL DEFAULT 'public',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_workouts_owner ON workouts(owner_user_id);
		CREATE INDEX IF NOT EXISTS idx_workouts_privacy_created ON workouts(privacy, created_at);

		CREATE TABLE IF NOT EXISTS workout_exercises (
			workout_id  TEXT NOT NULL REFERENCES workouts(id) ON DELETE CASCADE,
			position    INTEGER NOT NULL,
			exercise_id TEXT NOT NULL REFERENCES exercises(id),
			PRIMARY KEY (workout_id, position)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating workouts tables: %w", err)
	}

	return nil
}
