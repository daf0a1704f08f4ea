package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ltran/procurement/internal/model"
)

// AppendEmailLog inserts a ledger entry. Entries are never updated or
// deleted afterwards, except by the RFP delete cascade.
func (s *SQLiteStore) AppendEmailLog(ctx context.Context, entry *model.EmailLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Outcome == "" {
		entry.Outcome = model.OutcomeSuccess
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO email_logs (
			id, rfp_id, vendor_id, direction, subject, body,
			from_addr, to_addr, message_id, outcome, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, nullIfEmpty(entry.RFPID), nullIfEmpty(entry.VendorID),
		string(entry.Direction), entry.Subject, entry.Body,
		entry.From, entry.To, entry.MessageID,
		string(entry.Outcome), entry.Error, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("appending email log: %w", err)
	}

	return nil
}

// LatestSentSuccessToVendor returns the most recent successful sent
// entry for a vendor. Its RFP reference is the vendor's active
// solicitation context; most-recent-by-timestamp wins when several
// RFPs were sent to the same vendor.
func (s *SQLiteStore) LatestSentSuccessToVendor(ctx context.Context, vendorID string) (*model.EmailLog, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT * FROM email_logs
		WHERE vendor_id = ? AND direction = ? AND outcome = ?
		ORDER BY created_at DESC
		LIMIT 1`,
		vendorID, string(model.DirectionSent), string(model.OutcomeSuccess),
	)
	if err != nil {
		return nil, fmt.Errorf("querying latest sent log for vendor %s: %w", vendorID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying latest sent log for vendor %s: %w", vendorID, err)
		}
		return nil, ErrNotFound
	}

	entry, err := scanEmailLog(rows)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListEmailLogs retrieves ledger entries matching the filter, newest
// first. This is the audit query, distinct from the routing query
// above so ledger retention changes cannot silently break correlation.
func (s *SQLiteStore) ListEmailLogs(ctx context.Context, filter EmailLogFilter) ([]model.EmailLog, error) {
	var conditions []string
	var args []interface{}

	if filter.RFPID != nil {
		conditions = append(conditions, "rfp_id = ?")
		args = append(args, *filter.RFPID)
	}
	if filter.VendorID != nil {
		conditions = append(conditions, "vendor_id = ?")
		args = append(args, *filter.VendorID)
	}
	if filter.Direction != nil {
		conditions = append(conditions, "direction = ?")
		args = append(args, string(*filter.Direction))
	}

	query := "SELECT * FROM email_logs"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying email logs: %w", err)
	}
	defer rows.Close()

	var entries []model.EmailLog
	for rows.Next() {
		entry, err := scanEmailLog(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// scanEmailLog scans a ledger row from a sqlx.Rows result set.
func scanEmailLog(rows *sqlx.Rows) (model.EmailLog, error) {
	var (
		entry     model.EmailLog
		rfpID     sql.NullString
		vendorID  sql.NullString
		direction string
		outcome   string
		createdAt time.Time
	)

	err := rows.Scan(
		&entry.ID, &rfpID, &vendorID, &direction,
		&entry.Subject, &entry.Body, &entry.From, &entry.To,
		&entry.MessageID, &outcome, &entry.Error, &createdAt,
	)
	if err != nil {
		return model.EmailLog{}, fmt.Errorf("scanning email log row: %w", err)
	}

	entry.RFPID = rfpID.String
	entry.VendorID = vendorID.String
	entry.Direction = model.LogDirection(direction)
	entry.Outcome = model.LogOutcome(outcome)
	entry.CreatedAt = createdAt

	return entry, nil
}

// nullIfEmpty maps an empty string to a SQL NULL so optional
// references stay queryable as NULL rather than ''.
func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
