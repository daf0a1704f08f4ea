package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ltran/procurement/internal/model"
)

// CreateRFP inserts a new RFP. A missing ID is minted, a missing
// status defaults to draft.
func (s *SQLiteStore) CreateRFP(ctx context.Context, rfp *model.RFP) error {
	if rfp.ID == "" {
		rfp.ID = uuid.New().String()
	}
	if rfp.Status == "" {
		rfp.Status = model.RFPStatusDraft
	}

	now := time.Now().UTC()
	if rfp.CreatedAt.IsZero() {
		rfp.CreatedAt = now
	}
	rfp.UpdatedAt = now

	items, err := json.Marshal(rfp.Items)
	if err != nil {
		return fmt.Errorf("marshaling rfp items: %w", err)
	}
	sentTo, err := json.Marshal(rfp.SentTo)
	if err != nil {
		return fmt.Errorf("marshaling rfp sent_to: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rfps (
			id, title, description, budget, delivery_timeline,
			items, payment_terms, warranty_requirements,
			additional_requirements, status, sent_to,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rfp.ID, rfp.Title, rfp.Description, rfp.Budget, rfp.DeliveryTimeline,
		string(items), rfp.PaymentTerms, rfp.WarrantyRequirements,
		rfp.AdditionalRequirements, string(rfp.Status), string(sentTo),
		rfp.CreatedAt, rfp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting rfp %s: %w", rfp.ID, err)
	}

	return nil
}

// ListRFPs retrieves all RFPs, newest first.
func (s *SQLiteStore) ListRFPs(ctx context.Context) ([]model.RFP, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM rfps ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("querying rfps: %w", err)
	}
	defer rows.Close()

	var rfps []model.RFP
	for rows.Next() {
		rfp, err := scanRFP(rows)
		if err != nil {
			return nil, err
		}
		rfps = append(rfps, rfp)
	}

	return rfps, rows.Err()
}

// GetRFPByID retrieves a single RFP by its ID.
func (s *SQLiteStore) GetRFPByID(ctx context.Context, id string) (*model.RFP, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM rfps WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("querying rfp %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying rfp %s: %w", id, err)
		}
		return nil, ErrNotFound
	}

	rfp, err := scanRFP(rows)
	if err != nil {
		return nil, err
	}
	return &rfp, nil
}

// UpdateRFP rewrites the mutable fields of an RFP.
func (s *SQLiteStore) UpdateRFP(ctx context.Context, rfp *model.RFP) error {
	rfp.UpdatedAt = time.Now().UTC()

	items, err := json.Marshal(rfp.Items)
	if err != nil {
		return fmt.Errorf("marshaling rfp items: %w", err)
	}
	sentTo, err := json.Marshal(rfp.SentTo)
	if err != nil {
		return fmt.Errorf("marshaling rfp sent_to: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE rfps SET
			title = ?, description = ?, budget = ?, delivery_timeline = ?,
			items = ?, payment_terms = ?, warranty_requirements = ?,
			additional_requirements = ?, status = ?, sent_to = ?,
			updated_at = ?
		WHERE id = ?`,
		rfp.Title, rfp.Description, rfp.Budget, rfp.DeliveryTimeline,
		string(items), rfp.PaymentTerms, rfp.WarrantyRequirements,
		rfp.AdditionalRequirements, string(rfp.Status), string(sentTo),
		rfp.UpdatedAt, rfp.ID,
	)
	if err != nil {
		return fmt.Errorf("updating rfp %s: %w", rfp.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating rfp %s: %w", rfp.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteRFP removes an RFP together with its proposals and ledger
// entries in one transaction.
func (s *SQLiteStore) DeleteRFP(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM proposals WHERE rfp_id = ?", id,
	); err != nil {
		return fmt.Errorf("deleting proposals for rfp %s: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM email_logs WHERE rfp_id = ?", id,
	); err != nil {
		return fmt.Errorf("deleting email logs for rfp %s: %w", id, err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM rfps WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting rfp %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting rfp %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// MarkRFPSent flips the RFP to sent and records the vendors it was
// dispatched to.
func (s *SQLiteStore) MarkRFPSent(ctx context.Context, id string, vendorIDs []string) error {
	sentTo, err := json.Marshal(vendorIDs)
	if err != nil {
		return fmt.Errorf("marshaling sent_to: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE rfps SET status = ?, sent_to = ?, updated_at = ? WHERE id = ?",
		string(model.RFPStatusSent), string(sentTo), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("marking rfp %s sent: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("marking rfp %s sent: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// scanRFP scans an RFP row from a sqlx.Rows result set.
func scanRFP(rows *sqlx.Rows) (model.RFP, error) {
	var (
		rfp       model.RFP
		status    string
		items     string
		sentTo    string
		createdAt time.Time
		updatedAt time.Time
	)

	err := rows.Scan(
		&rfp.ID, &rfp.Title, &rfp.Description, &rfp.Budget,
		&rfp.DeliveryTimeline, &items, &rfp.PaymentTerms,
		&rfp.WarrantyRequirements, &rfp.AdditionalRequirements,
		&status, &sentTo, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RFP{}, ErrNotFound
		}
		return model.RFP{}, fmt.Errorf("scanning rfp row: %w", err)
	}

	rfp.Status = model.RFPStatus(status)
	rfp.CreatedAt = createdAt
	rfp.UpdatedAt = updatedAt

	if items != "" {
		if err := json.Unmarshal([]byte(items), &rfp.Items); err != nil {
			return model.RFP{}, fmt.Errorf("unmarshaling rfp items: %w", err)
		}
	}
	if sentTo != "" {
		if err := json.Unmarshal([]byte(sentTo), &rfp.SentTo); err != nil {
			return model.RFP{}, fmt.Errorf("unmarshaling rfp sent_to: %w", err)
		}
	}

	return rfp, nil
}
