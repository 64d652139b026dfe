package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ypg-admin-api/internal/models"
)

const supervisorColumns = `id, username, password_hash, last_login_ip, last_login_at,
	created_at, updated_at`

// UpsertSupervisor creates a supervisor or resets the password of an
// existing one, and returns the stored row.
func (db *DB) UpsertSupervisor(ctx context.Context, username, passwordHash string, now time.Time) (models.Supervisor, error) {
	query := `INSERT INTO supervisors (username, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			password_hash = excluded.password_hash,
			updated_at = excluded.updated_at`

	ts := formatTime(now)
	if _, err := db.conn.ExecContext(ctx, query, username, passwordHash, ts, ts); err != nil {
		return models.Supervisor{}, fmt.Errorf("failed to upsert supervisor: %w", err)
	}
	return db.GetSupervisorByUsername(ctx, username)
}

// GetSupervisorByUsername returns the supervisor with username.
func (db *DB) GetSupervisorByUsername(ctx context.Context, username string) (models.Supervisor, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+supervisorColumns+` FROM supervisors WHERE username = ?`, username)
	s, err := scanSupervisor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Supervisor{}, ErrNotFound
	}
	if err != nil {
		return models.Supervisor{}, fmt.Errorf("failed to get supervisor %s: %w", username, err)
	}
	return s, nil
}

// RecordSupervisorLogin stamps the address and time of a successful login.
func (db *DB) RecordSupervisorLogin(ctx context.Context, id int64, ip string, at time.Time) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE supervisors
		SET last_login_ip = ?, last_login_at = ?, updated_at = ?
		WHERE id = ?`, ip, formatTime(at), formatTime(at), id)
	if err != nil {
		return fmt.Errorf("failed to record login for supervisor %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateSupervisorCredentials replaces the username and password hash. A
// username held by another supervisor yields ErrDuplicate.
func (db *DB) UpdateSupervisorCredentials(ctx context.Context, id int64, username, passwordHash string, now time.Time) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE supervisors
		SET username = ?, password_hash = ?, updated_at = ?
		WHERE id = ?`, username, passwordHash, formatTime(now), id)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("username %s: %w", username, ErrDuplicate)
		}
		return fmt.Errorf("failed to update supervisor %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSupervisor(s rowScanner) (models.Supervisor, error) {
	var (
		sup                  models.Supervisor
		lastLoginAt          sql.NullString
		createdAt, updatedAt string
	)

	err := s.Scan(
		&sup.ID,
		&sup.Username,
		&sup.PasswordHash,
		&sup.LastLoginIP,
		&lastLoginAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return models.Supervisor{}, err
	}

	if sup.LastLoginAt, err = parseNullTime(lastLoginAt); err != nil {
		return models.Supervisor{}, fmt.Errorf("failed to parse last_login_at: %w", err)
	}
	if sup.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Supervisor{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if sup.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.Supervisor{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return sup, nil
}
