package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ltran/procurement/internal/model"
)

// CreateProposal inserts a proposal in the parsed state. The
// UNIQUE(rfp_id, vendor_id) constraint is the idempotency guard: if a
// proposal already exists for the pair, ErrDuplicateProposal is
// returned and nothing is written.
func (s *SQLiteStore) CreateProposal(ctx context.Context, p *model.Proposal) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = model.ProposalStatusParsed
	}

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	parsed, err := json.Marshal(p.ParsedData)
	if err != nil {
		return fmt.Errorf("marshaling parsed data: %w", err)
	}
	attachments, err := json.Marshal(p.Attachments)
	if err != nil {
		return fmt.Errorf("marshaling attachments: %w", err)
	}

	var analysis sql.NullString
	if p.AIAnalysis != nil {
		raw, err := json.Marshal(p.AIAnalysis)
		if err != nil {
			return fmt.Errorf("marshaling ai analysis: %w", err)
		}
		analysis = sql.NullString{String: string(raw), Valid: true}
	}

	var receivedAt sql.NullTime
	if !p.EmailMetadata.ReceivedAt.IsZero() {
		receivedAt = sql.NullTime{Time: p.EmailMetadata.ReceivedAt.UTC(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO proposals (
			id, rfp_id, vendor_id, raw_content, parsed_data, ai_analysis,
			message_id, received_at, email_subject, email_from,
			attachments, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.RFPID, p.VendorID, p.RawContent, string(parsed), analysis,
		p.EmailMetadata.MessageID, receivedAt, p.EmailMetadata.Subject,
		p.EmailMetadata.From, string(attachments), string(p.Status),
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateProposal
		}
		return fmt.Errorf("inserting proposal %s: %w", p.ID, err)
	}

	return nil
}

// GetProposalByID retrieves a single proposal by its ID.
func (s *SQLiteStore) GetProposalByID(ctx context.Context, id string) (*model.Proposal, error) {
	return s.getProposalWhere(ctx, "id = ?", id)
}

// GetProposalByVendorAndRFP retrieves the proposal for a
// (vendor, RFP) pair, or ErrNotFound when none exists. This is the
// correlation engine's duplicate check.
func (s *SQLiteStore) GetProposalByVendorAndRFP(ctx context.Context, vendorID, rfpID string) (*model.Proposal, error) {
	return s.getProposalWhere(ctx, "vendor_id = ? AND rfp_id = ?", vendorID, rfpID)
}

// ListProposalsByRFP retrieves all proposals for an RFP, newest first.
func (s *SQLiteStore) ListProposalsByRFP(ctx context.Context, rfpID string) ([]model.Proposal, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM proposals WHERE rfp_id = ? ORDER BY created_at DESC",
		rfpID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying proposals for rfp %s: %w", rfpID, err)
	}
	defer rows.Close()

	var proposals []model.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, p)
	}

	return proposals, rows.Err()
}

// SetProposalAnalysis attaches the scoring result and advances the
// proposal to analyzed. All other fields are left untouched.
func (s *SQLiteStore) SetProposalAnalysis(ctx context.Context, id string, analysis *model.AIAnalysis) error {
	raw, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshaling ai analysis: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE proposals SET ai_analysis = ?, status = ?, updated_at = ? WHERE id = ?",
		string(raw), string(model.ProposalStatusAnalyzed), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting analysis on proposal %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("setting analysis on proposal %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *SQLiteStore) getProposalWhere(ctx context.Context, where string, args ...interface{}) (*model.Proposal, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM proposals WHERE "+where, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("querying proposal: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying proposal: %w", err)
		}
		return nil, ErrNotFound
	}

	p, err := scanProposal(rows)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// scanProposal scans a proposal row from a sqlx.Rows result set.
func scanProposal(rows *sqlx.Rows) (model.Proposal, error) {
	var (
		p           model.Proposal
		parsed      string
		analysis    sql.NullString
		receivedAt  sql.NullTime
		attachments string
		status      string
		createdAt   time.Time
		updatedAt   time.Time
	)

	err := rows.Scan(
		&p.ID, &p.RFPID, &p.VendorID, &p.RawContent, &parsed, &analysis,
		&p.EmailMetadata.MessageID, &receivedAt, &p.EmailMetadata.Subject,
		&p.EmailMetadata.From, &attachments, &status,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return model.Proposal{}, fmt.Errorf("scanning proposal row: %w", err)
	}

	p.Status = model.ProposalStatus(status)
	p.CreatedAt = createdAt
	p.UpdatedAt = updatedAt

	if receivedAt.Valid {
		p.EmailMetadata.ReceivedAt = receivedAt.Time
	}

	if parsed != "" {
		if err := json.Unmarshal([]byte(parsed), &p.ParsedData); err != nil {
			return model.Proposal{}, fmt.Errorf("unmarshaling parsed data: %w", err)
		}
	}
	if analysis.Valid && analysis.String != "" {
		var a model.AIAnalysis
		if err := json.Unmarshal([]byte(analysis.String), &a); err != nil {
			return model.Proposal{}, fmt.Errorf("unmarshaling ai analysis: %w", err)
		}
		p.AIAnalysis = &a
	}
	if attachments != "" {
		if err := json.Unmarshal([]byte(attachments), &p.Attachments); err != nil {
			return model.Proposal{}, fmt.Errorf("unmarshaling attachments: %w", err)
		}
	}

	return p, nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint
// failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
