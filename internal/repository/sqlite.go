// Package repository implements persistence on SQLite via sqlx. The
// repository is a long-lived dependency constructed once at startup and
// injected into consumers.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/tribalbenefits/backend/internal/models"
)

// SQLiteRepository implements user and directory storage using SQLite.
type SQLiteRepository struct {
	db *sqlx.DB
}

// NewSQLiteRepository opens (or creates) the database at dbPath.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// RunMigrations executes schema migration SQL.
func (r *SQLiteRepository) RunMigrations(migrationSQL string) error {
	_, err := r.db.Exec(migrationSQL)
	return err
}

// Users

// GetUserBySubject returns the user mapped to an identity-provider subject,
// or nil when none exists. Soft-deleted rows are returned as-is; the caller
// decides how to treat them.
func (r *SQLiteRepository) GetUserBySubject(ctx context.Context, subject string) (*models.User, error) {
	var user models.User
	query := `SELECT * FROM users WHERE auth_subject = ?`
	err := r.db.GetContext(ctx, &user, query, subject)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID returns the user with the given id, or nil.
func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	query := `SELECT * FROM users WHERE id = ?`
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a user row. Used by provisioning and tests.
func (r *SQLiteRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = "user"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO users (id, auth_subject, email, role, tribe_id, state, created_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.AuthSubject, user.Email, user.Role,
		user.TribeID, user.State, user.CreatedAt, user.DeletedAt,
	)
	return err
}

// SoftDeleteUser marks a user as deleted without removing the row.
func (r *SQLiteRepository) SoftDeleteUser(ctx context.Context, id string) error {
	query := `UPDATE users SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	return err
}

// Resources

func (r *SQLiteRepository) CreateResource(ctx context.Context, res *models.Resource) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	now := time.Now()
	res.CreatedAt = now
	res.UpdatedAt = now
	query := `
		INSERT INTO resources (id, title, description, category, url, state, tribe_specific, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		res.ID, res.Title, res.Description, res.Category, res.URL,
		res.State, res.TribeSpecific, res.CreatedAt, res.UpdatedAt,
	)
	return err
}

// GetResource returns the resource with the given id, or nil.
func (r *SQLiteRepository) GetResource(ctx context.Context, id string) (*models.Resource, error) {
	var res models.Resource
	query := `SELECT * FROM resources WHERE id = ?`
	err := r.db.GetContext(ctx, &res, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ListResources returns resources filtered by category and state (either may
// be empty), newest first.
func (r *SQLiteRepository) ListResources(ctx context.Context, category, state string, limit, offset int) ([]*models.Resource, error) {
	var resources []*models.Resource
	query := `
		SELECT * FROM resources
		WHERE (? = '' OR category = ?)
		  AND (? = '' OR state = '' OR state = ?)
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	err := r.db.SelectContext(ctx, &resources, query, category, category, state, state, limit, offset)
	return resources, err
}

func (r *SQLiteRepository) UpdateResource(ctx context.Context, res *models.Resource) error {
	res.UpdatedAt = time.Now()
	query := `
		UPDATE resources
		SET title = ?, description = ?, category = ?, url = ?, state = ?, tribe_specific = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		res.Title, res.Description, res.Category, res.URL,
		res.State, res.TribeSpecific, res.UpdatedAt, res.ID,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("resource not found: %s", res.ID)
	}
	return nil
}

func (r *SQLiteRepository) DeleteResource(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("resource not found: %s", id)
	}
	return nil
}

// Scholarships

func (r *SQLiteRepository) CreateScholarship(ctx context.Context, s *models.Scholarship) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO scholarships (id, title, sponsor, amount_usd, url, deadline, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Title, s.Sponsor, s.AmountUSD, s.URL, s.Deadline, s.CreatedAt,
	)
	return err
}

// ListScholarships returns scholarships ordered by nearest deadline first;
// rows without a deadline sort last.
func (r *SQLiteRepository) ListScholarships(ctx context.Context, limit, offset int) ([]*models.Scholarship, error) {
	var scholarships []*models.Scholarship
	query := `
		SELECT * FROM scholarships
		ORDER BY deadline IS NULL, deadline ASC, created_at DESC
		LIMIT ? OFFSET ?
	`
	err := r.db.SelectContext(ctx, &scholarships, query, limit, offset)
	return scholarships, err
}
