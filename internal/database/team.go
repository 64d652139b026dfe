package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ypg-admin-api/internal/models"
)

const teamColumns = `id, name, position, congregation, quote, is_active, is_council,
	position_order, created_at, updated_at`

// InsertTeamMember stores m and sets its ID.
func (db *DB) InsertTeamMember(ctx context.Context, m *models.TeamMember) error {
	query := `INSERT INTO team_members (
		name, position, congregation, quote, is_active, is_council, position_order,
		created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := db.conn.ExecContext(ctx, query,
		m.Name,
		m.Position,
		m.Congregation,
		m.Quote,
		boolInt(m.IsActive),
		boolInt(m.IsCouncil),
		m.PositionOrder,
		formatTime(m.CreatedAt),
		formatTime(m.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert team member: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read team member id: %w", err)
	}
	m.ID = id
	return nil
}

// GetTeamMember returns the member with the given id.
func (db *DB) GetTeamMember(ctx context.Context, id int64) (models.TeamMember, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM team_members WHERE id = ?`, id)
	m, err := scanTeamMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TeamMember{}, ErrNotFound
	}
	if err != nil {
		return models.TeamMember{}, fmt.Errorf("failed to get team member %d: %w", id, err)
	}
	return m, nil
}

// ListTeamMembers returns members ordered by rank and then name.
func (db *DB) ListTeamMembers(ctx context.Context, filter models.TeamFilter) ([]models.TeamMember, error) {
	query := `SELECT ` + teamColumns + ` FROM team_members WHERE 1 = 1`
	if !filter.IncludeInactive {
		query += ` AND is_active = 1`
	}
	if filter.CouncilOnly {
		query += ` AND is_council = 1`
	}
	query += ` ORDER BY position_order, name COLLATE NOCASE, id`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query team members: %w", err)
	}
	defer rows.Close()

	members := []models.TeamMember{}
	for rows.Next() {
		m, err := scanTeamMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team members: %w", err)
	}

	return members, nil
}

// UpdateTeamMember writes every editable field of m.
func (db *DB) UpdateTeamMember(ctx context.Context, m models.TeamMember) error {
	query := `UPDATE team_members SET
		name = ?, position = ?, congregation = ?, quote = ?, is_active = ?,
		is_council = ?, position_order = ?, updated_at = ?
		WHERE id = ?`

	res, err := db.conn.ExecContext(ctx, query,
		m.Name,
		m.Position,
		m.Congregation,
		m.Quote,
		boolInt(m.IsActive),
		boolInt(m.IsCouncil),
		m.PositionOrder,
		formatTime(m.UpdatedAt),
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update team member %d: %w", m.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTeamMember removes a member permanently.
func (db *DB) DeleteTeamMember(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM team_members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team member %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTeamMember(s rowScanner) (models.TeamMember, error) {
	var (
		m                    models.TeamMember
		createdAt, updatedAt string
	)

	err := s.Scan(
		&m.ID,
		&m.Name,
		&m.Position,
		&m.Congregation,
		&m.Quote,
		&m.IsActive,
		&m.IsCouncil,
		&m.PositionOrder,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return models.TeamMember{}, err
	}

	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.TeamMember{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.TeamMember{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return m, nil
}
