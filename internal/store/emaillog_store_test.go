package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ltran/procurement/internal/model"
	"github.com/ltran/procurement/internal/store"
	"github.com/ltran/procurement/tests/testutil"
)

func TestLatestSentSuccessToVendorRecency(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	vendor := &model.Vendor{Name: "Acme", Email: "sales@acme.test"}
	require.NoError(t, s.CreateVendor(ctx, vendor))

	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.AppendEmailLog(ctx, &model.EmailLog{
		RFPID: "rfp-old", VendorID: vendor.ID,
		Direction: model.DirectionSent, Outcome: model.OutcomeSuccess,
		To: vendor.Email, CreatedAt: base,
	}))
	require.NoError(t, s.AppendEmailLog(ctx, &model.EmailLog{
		RFPID: "rfp-new", VendorID: vendor.ID,
		Direction: model.DirectionSent, Outcome: model.OutcomeSuccess,
		To: vendor.Email, CreatedAt: base.Add(time.Hour),
	}))
	// A later failed send must not shadow the successful one.
	require.NoError(t, s.AppendEmailLog(ctx, &model.EmailLog{
		RFPID: "rfp-failed", VendorID: vendor.ID,
		Direction: model.DirectionSent, Outcome: model.OutcomeFailed,
		Error: "connection refused",
		To:    vendor.Email, CreatedAt: base.Add(2 * time.Hour),
	}))
	// Nor must a received entry.
	require.NoError(t, s.AppendEmailLog(ctx, &model.EmailLog{
		RFPID: "rfp-new", VendorID: vendor.ID,
		Direction: model.DirectionReceived, Outcome: model.OutcomeSuccess,
		From: vendor.Email, CreatedAt: base.Add(3 * time.Hour),
	}))

	entry, err := s.LatestSentSuccessToVendor(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, "rfp-new", entry.RFPID)
}

func TestLatestSentSuccessToVendorNone(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.LatestSentSuccessToVendor(context.Background(), "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListEmailLogsFilters(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	entries := []model.EmailLog{
		{RFPID: "r1", VendorID: "v1", Direction: model.DirectionSent, Outcome: model.OutcomeSuccess, CreatedAt: base},
		{RFPID: "r1", VendorID: "v2", Direction: model.DirectionSent, Outcome: model.OutcomeFailed, Error: "timeout", CreatedAt: base.Add(time.Minute)},
		{RFPID: "r2", VendorID: "v1", Direction: model.DirectionReceived, Outcome: model.OutcomeSuccess, CreatedAt: base.Add(2 * time.Minute)},
		// A failure recorded before vendor resolution has no refs.
		{Direction: model.DirectionReceived, Outcome: model.OutcomeFailed, From: "spoof@nowhere.test", Error: "extraction failed", CreatedAt: base.Add(3 * time.Minute)},
	}
	for i := range entries {
		require.NoError(t, s.AppendEmailLog(ctx, &entries[i]))
	}

	all, err := s.ListEmailLogs(ctx, store.EmailLogFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	// Newest first.
	assert.Equal(t, "spoof@nowhere.test", all[0].From)

	rfpID := "r1"
	byRFP, err := s.ListEmailLogs(ctx, store.EmailLogFilter{RFPID: &rfpID})
	require.NoError(t, err)
	assert.Len(t, byRFP, 2)

	vendorID := "v1"
	received := model.DirectionReceived
	byVendorDir, err := s.ListEmailLogs(ctx, store.EmailLogFilter{
		VendorID: &vendorID, Direction: &received,
	})
	require.NoError(t, err)
	require.Len(t, byVendorDir, 1)
	assert.Equal(t, "r2", byVendorDir[0].RFPID)

	limited, err := s.ListEmailLogs(ctx, store.EmailLogFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
