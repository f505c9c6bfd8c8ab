package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ndvornikov/job_apply_bot/internal/config"
)

// ErrNotFound reports that the referenced row does not exist (or was already
// moved to a terminal status by a conditional update).
var ErrNotFound = errors.New("db: not found")

// ErrDuplicate reports a uniqueness violation. Callers treat it as a benign
// race, not a failure.
var ErrDuplicate = errors.New("db: duplicate")

type DB struct {
	Conn *sqlx.DB
}

func New(cfg *config.Config) (*DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)

	dbConn, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("db.New: cannot connect to database: %w", err)
	}

	dbConn.SetMaxOpenConns(20)
	dbConn.SetMaxIdleConns(5)
	dbConn.SetConnMaxLifetime(60 * time.Minute)

	return &DB{Conn: dbConn}, nil
}

func (db *DB) Close() error {
	return db.Conn.Close()
}

// InitSchema creates the tables if they do not exist yet.
func (db *DB) InitSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS applications (
		    id BIGSERIAL PRIMARY KEY,
		    user_id BIGINT NOT NULL UNIQUE,
		    username TEXT,
		    full_name TEXT,
		    age INTEGER,
		    citizenship TEXT,
		    region_name TEXT,
		    address TEXT,
		    phone TEXT,
		    status TEXT DEFAULT 'new',
		    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS blocked_users (
		    user_id BIGINT NOT NULL UNIQUE,
		    reason TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Conn.Exec(stmt); err != nil {
			return fmt.Errorf("db.InitSchema: %w", err)
		}
	}

	return nil
}

// isUniqueViolation reports whether err is the Postgres unique_violation error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
