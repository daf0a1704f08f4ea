package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ltran/procurement/internal/model"
)

// CreateVendor inserts a new vendor. The email address must be unique;
// it is the key inbound replies are correlated on.
func (s *SQLiteStore) CreateVendor(ctx context.Context, v *model.Vendor) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vendors (
			id, name, email, phone, address, category, rating, notes,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Name, normalizeEmail(v.Email), v.Phone, v.Address,
		v.Category, v.Rating, v.Notes, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting vendor %s: %w", v.ID, err)
	}

	return nil
}

// ListVendors retrieves all vendors, newest first.
func (s *SQLiteStore) ListVendors(ctx context.Context) ([]model.Vendor, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM vendors ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("querying vendors: %w", err)
	}
	defer rows.Close()

	return collectVendors(rows)
}

// GetVendorByID retrieves a single vendor by its ID.
func (s *SQLiteStore) GetVendorByID(ctx context.Context, id string) (*model.Vendor, error) {
	return s.getVendorWhere(ctx, "id = ?", id)
}

// GetVendorByEmail resolves a sender address to a vendor. The address
// is compared case-insensitively.
func (s *SQLiteStore) GetVendorByEmail(ctx context.Context, email string) (*model.Vendor, error) {
	return s.getVendorWhere(ctx, "email = ?", normalizeEmail(email))
}

// GetVendorsByIDs retrieves the vendors whose IDs appear in ids,
// preserving the requested order. Unknown IDs are skipped.
func (s *SQLiteStore) GetVendorsByIDs(ctx context.Context, ids []string) ([]model.Vendor, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In("SELECT * FROM vendors WHERE id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("building vendors query: %w", err)
	}

	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying vendors by ids: %w", err)
	}
	defer rows.Close()

	vendors, err := collectVendors(rows)
	if err != nil {
		return nil, err
	}

	// Return vendors in the order the IDs were requested.
	byID := make(map[string]model.Vendor, len(vendors))
	for _, v := range vendors {
		byID[v.ID] = v
	}
	ordered := make([]model.Vendor, 0, len(vendors))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			ordered = append(ordered, v)
		}
	}

	return ordered, nil
}

// UpdateVendor rewrites the mutable fields of a vendor.
func (s *SQLiteStore) UpdateVendor(ctx context.Context, v *model.Vendor) error {
	v.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE vendors SET
			name = ?, email = ?, phone = ?, address = ?,
			category = ?, rating = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		v.Name, normalizeEmail(v.Email), v.Phone, v.Address,
		v.Category, v.Rating, v.Notes, v.UpdatedAt, v.ID,
	)
	if err != nil {
		return fmt.Errorf("updating vendor %s: %w", v.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating vendor %s: %w", v.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteVendor removes a vendor by ID.
func (s *SQLiteStore) DeleteVendor(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM vendors WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting vendor %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting vendor %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *SQLiteStore) getVendorWhere(ctx context.Context, where string, arg interface{}) (*model.Vendor, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM vendors WHERE "+where, arg,
	)
	if err != nil {
		return nil, fmt.Errorf("querying vendor: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying vendor: %w", err)
		}
		return nil, ErrNotFound
	}

	v, err := scanVendor(rows)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func collectVendors(rows *sqlx.Rows) ([]model.Vendor, error) {
	var vendors []model.Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

// scanVendor scans a vendor row from a sqlx.Rows result set.
func scanVendor(rows *sqlx.Rows) (model.Vendor, error) {
	var (
		v         model.Vendor
		createdAt time.Time
		updatedAt time.Time
	)

	err := rows.Scan(
		&v.ID, &v.Name, &v.Email, &v.Phone, &v.Address,
		&v.Category, &v.Rating, &v.Notes, &createdAt, &updatedAt,
	)
	if err != nil {
		return model.Vendor{}, fmt.Errorf("scanning vendor row: %w", err)
	}

	v.CreatedAt = createdAt
	v.UpdatedAt = updatedAt

	return v, nil
}

// normalizeEmail lowercases and trims an address so correlation is
// insensitive to sender-side casing.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
