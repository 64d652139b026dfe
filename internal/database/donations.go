package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"ypg-admin-api/internal/models"
)

const donationColumns = `id, donor_name, email, phone, amount, currency, payment_method,
	status, purpose, message, is_recurring, frequency, receipt_code, transaction_id,
	verified_by, verified_at, created_at, updated_at`

// InsertDonation stores d and sets its ID. A receipt code already in use
// yields ErrDuplicate.
func (db *DB) InsertDonation(ctx context.Context, d *models.Donation) error {
	query := `INSERT INTO donations (
		donor_name, email, phone, amount, currency, payment_method, status, purpose,
		message, is_recurring, frequency, receipt_code, transaction_id,
		verified_by, verified_at, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := db.conn.ExecContext(ctx, query,
		d.DonorName,
		d.Email,
		d.Phone,
		d.Amount.String(),
		d.Currency,
		string(d.PaymentMethod),
		string(d.Status),
		string(d.Purpose),
		d.Message,
		boolInt(d.IsRecurring),
		d.Frequency,
		d.ReceiptCode,
		d.TransactionID,
		nullString(d.VerifiedBy),
		formatNullTime(d.VerifiedAt),
		formatTime(d.CreatedAt),
		formatTime(d.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("receipt code %s: %w", d.ReceiptCode, ErrDuplicate)
		}
		return fmt.Errorf("failed to insert donation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read donation id: %w", err)
	}
	d.ID = id
	return nil
}

// GetDonation returns the donation with the given id.
func (db *DB) GetDonation(ctx context.Context, id int64) (models.Donation, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+donationColumns+` FROM donations WHERE id = ?`, id)
	d, err := scanDonation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Donation{}, ErrNotFound
	}
	if err != nil {
		return models.Donation{}, fmt.Errorf("failed to get donation %d: %w", id, err)
	}
	return d, nil
}

// ListDonations returns donations matching filter, newest first.
func (db *DB) ListDonations(ctx context.Context, filter models.DonationFilter) ([]models.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations`

	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Purpose != "" {
		conds = append(conds, "purpose = ?")
		args = append(args, filter.Purpose)
	}
	if filter.PaymentMethod != "" {
		conds = append(conds, "payment_method = ?")
		args = append(args, filter.PaymentMethod)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query donations: %w", err)
	}
	defer rows.Close()

	donations := []models.Donation{}
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donation: %w", err)
		}
		donations = append(donations, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating donations: %w", err)
	}

	return donations, nil
}

// UpdateDonationStatus writes d's status, verifier, verification time and
// transaction id, but only while the stored status still equals from. It
// returns ErrNotFound for an unknown id and ErrStatusConflict when the row
// moved on in the meantime.
func (db *DB) UpdateDonationStatus(ctx context.Context, d models.Donation, from models.DonationStatus) error {
	query := `UPDATE donations SET
		status = ?, verified_by = ?, verified_at = ?, transaction_id = ?, updated_at = ?
		WHERE id = ? AND status = ?`

	res, err := db.conn.ExecContext(ctx, query,
		string(d.Status),
		nullString(d.VerifiedBy),
		formatNullTime(d.VerifiedAt),
		d.TransactionID,
		formatTime(d.UpdatedAt),
		d.ID,
		string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to update donation %d: %w", d.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update donation %d: %w", d.ID, err)
	}
	if n == 0 {
		if _, err := db.GetDonation(ctx, d.ID); err != nil {
			return err
		}
		return ErrStatusConflict
	}
	return nil
}

// DeleteDonation removes a donation permanently.
func (db *DB) DeleteDonation(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM donations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete donation %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDonation(s rowScanner) (models.Donation, error) {
	var (
		d                    models.Donation
		amount               string
		method, status, purp string
		verifiedBy           sql.NullString
		verifiedAt           sql.NullString
		createdAt, updatedAt string
	)

	err := s.Scan(
		&d.ID,
		&d.DonorName,
		&d.Email,
		&d.Phone,
		&amount,
		&d.Currency,
		&method,
		&status,
		&purp,
		&d.Message,
		&d.IsRecurring,
		&d.Frequency,
		&d.ReceiptCode,
		&d.TransactionID,
		&verifiedBy,
		&verifiedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return models.Donation{}, err
	}

	d.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return models.Donation{}, fmt.Errorf("failed to parse amount: %w", err)
	}
	d.PaymentMethod = models.PaymentMethod(method)
	d.Status = models.DonationStatus(status)
	d.Purpose = models.Purpose(purp)

	if verifiedBy.Valid {
		by := verifiedBy.String
		d.VerifiedBy = &by
	}
	if d.VerifiedAt, err = parseNullTime(verifiedAt); err != nil {
		return models.Donation{}, fmt.Errorf("failed to parse verified_at: %w", err)
	}
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Donation{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if d.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.Donation{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return d, nil
}
