package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver for tests and local dev

	"github.com/copylens/analyzer/models"
)

// ErrNotFound is returned by write operations targeting a missing record.
// Lookups return (nil, nil) instead so callers can distinguish "no result"
// from a query failure without unwrapping.
var ErrNotFound = errors.New("db: analysis not found")

// DB wraps the database connection and provides data access methods
type DB struct {
	conn   *sql.DB
	driver string
}

// Config contains database configuration
type Config struct {
	Driver string // "postgres" or "sqlite"
	DSN    string // connection string, or file path for sqlite
}

// New creates a new database connection and runs migrations
func New(config Config) (*DB, error) {
	driver := config.Driver
	if driver == "" {
		driver = "postgres"
	}
	if driver != "postgres" && driver != "sqlite" {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	conn, err := sql.Open(driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Configure connection pool. SQLite gets a single connection to avoid
	// table-lock contention between the API handlers and the workers.
	if driver == "sqlite" {
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(5)
		conn.SetConnMaxLifetime(5 * time.Minute)
	}

	db := &DB{conn: conn, driver: driver}

	if err := Migrate(conn, driver); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// DB returns the underlying database connection for metrics collection
func (db *DB) DB() *sql.DB {
	return db.conn
}

// Save inserts a new analysis record.
func (db *DB) Save(a *models.Analysis) error {
	jsonData, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	query := `
		INSERT INTO copy_analyses (id, url, slug, status, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = db.conn.Exec(
		query,
		a.ID,
		a.URL,
		a.Slug,
		string(a.Status),
		string(jsonData),
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// Update writes the full analysis record back. This is the single terminal
// write the workers make when a job finishes or fails.
func (db *DB) Update(a *models.Analysis) error {
	a.UpdatedAt = time.Now().UTC()

	jsonData, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	query := `
		UPDATE copy_analyses
		SET slug = $1, status = $2, data = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := db.conn.Exec(query, a.Slug, string(a.Status), string(jsonData), a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("failed to update analysis: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, a.ID)
	}
	return nil
}

// UpdateStatus transitions an analysis to a new status, recording the error
// message for failed jobs.
func (db *DB) UpdateStatus(id string, status models.Status, errMsg string) error {
	a, err := db.GetByID(id)
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	a.Status = status
	a.Error = errMsg
	return db.Update(a)
}

// GetByID retrieves an analysis by ID
func (db *DB) GetByID(id string) (*models.Analysis, error) {
	return db.queryOne("SELECT data FROM copy_analyses WHERE id = $1", id)
}

// GetBySlug retrieves an analysis by its slug
func (db *DB) GetBySlug(slug string) (*models.Analysis, error) {
	return db.queryOne("SELECT data FROM copy_analyses WHERE slug = $1 LIMIT 1", slug)
}

// GetByURL retrieves the most recent completed analysis for a URL
func (db *DB) GetByURL(url string) (*models.Analysis, error) {
	query := `
		SELECT data FROM copy_analyses
		WHERE url = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	return db.queryOne(query, url, string(models.StatusCompleted))
}

func (db *DB) queryOne(query string, args ...any) (*models.Analysis, error) {
	var jsonData string
	err := db.conn.QueryRow(query, args...).Scan(&jsonData)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis: %w", err)
	}

	var a models.Analysis
	if err := json.Unmarshal([]byte(jsonData), &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
	}
	return &a, nil
}

// DeleteByID deletes an analysis by ID
func (db *DB) DeleteByID(id string) error {
	result, err := db.conn.Exec("DELETE FROM copy_analyses WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// List returns analyses ordered newest-first with pagination
func (db *DB) List(limit, offset int) ([]*models.Analysis, error) {
	query := `
		SELECT data FROM copy_analyses
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := db.conn.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var results []*models.Analysis
	for rows.Next() {
		var jsonData string
		if err := rows.Scan(&jsonData); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		var a models.Analysis
		if err := json.Unmarshal([]byte(jsonData), &a); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
		}
		results = append(results, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return results, nil
}

// Count returns the total number of analyses
func (db *DB) Count() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM copy_analyses").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return count, nil
}

// SlugExists reports whether any analysis already uses the slug
func (db *DB) SlugExists(slug string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM copy_analyses WHERE slug = $1)"
	err := db.conn.QueryRow(query, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug existence: %w", err)
	}
	return exists, nil
}
