package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ltran/procurement/internal/model"
	"github.com/ltran/procurement/internal/store"
	"github.com/ltran/procurement/tests/testutil"
)

func seedPair(t *testing.T, s *store.SQLiteStore) (*model.RFP, *model.Vendor) {
	t.Helper()
	ctx := context.Background()

	rfp := newRFP("Seeded")
	require.NoError(t, s.CreateRFP(ctx, rfp))

	vendor := &model.Vendor{Name: "Acme", Email: "sales@acme.test"}
	require.NoError(t, s.CreateVendor(ctx, vendor))

	return rfp, vendor
}

func TestCreateAndGetProposal(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	rfp, vendor := seedPair(t, s)

	received := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	p := &model.Proposal{
		RFPID:      rfp.ID,
		VendorID:   vendor.ID,
		RawContent: "We can deliver for $12,000 in 3 weeks.",
		ParsedData: model.ParsedData{
			TotalPrice:       12000,
			DeliveryTimeline: "3 weeks",
			Breakdown: []model.BreakdownItem{
				{Item: "Laptop", UnitPrice: 1200, Quantity: 10, TotalPrice: 12000},
			},
		},
		Status: model.ProposalStatusParsed,
		EmailMetadata: model.EmailMetadata{
			MessageID:  "<abc@acme.test>",
			ReceivedAt: received,
			Subject:    "Re: RFP: Laptops",
			From:       "sales@acme.test",
		},
		Attachments: []model.AttachmentInfo{
			{Filename: "quote.pdf", ContentType: "application/pdf", Size: 5120},
		},
	}
	require.NoError(t, s.CreateProposal(ctx, p))
	require.NotEmpty(t, p.ID)

	got, err := s.GetProposalByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(12000), got.ParsedData.TotalPrice)
	assert.Equal(t, model.ProposalStatusParsed, got.Status)
	assert.Nil(t, got.AIAnalysis)
	assert.True(t, received.Equal(got.EmailMetadata.ReceivedAt))
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "quote.pdf", got.Attachments[0].Filename)

	byPair, err := s.GetProposalByVendorAndRFP(ctx, vendor.ID, rfp.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, byPair.ID)
}

func TestCreateProposalDuplicatePair(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	rfp, vendor := seedPair(t, s)

	first := &model.Proposal{
		RFPID: rfp.ID, VendorID: vendor.ID,
		ParsedData: model.ParsedData{TotalPrice: 100},
	}
	require.NoError(t, s.CreateProposal(ctx, first))

	second := &model.Proposal{
		RFPID: rfp.ID, VendorID: vendor.ID,
		ParsedData: model.ParsedData{TotalPrice: 200},
	}
	err := s.CreateProposal(ctx, second)
	assert.ErrorIs(t, err, store.ErrDuplicateProposal)

	// The first write is untouched.
	got, err := s.GetProposalByVendorAndRFP(ctx, vendor.ID, rfp.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(100), got.ParsedData.TotalPrice)
}

func TestCreateProposalConcurrentOneWinner(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	rfp, vendor := seedPair(t, s)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.CreateProposal(ctx, &model.Proposal{
				RFPID: rfp.ID, VendorID: vendor.ID,
				ParsedData: model.ParsedData{TotalPrice: float64(i)},
			})
		}(i)
	}
	wg.Wait()

	var winners, duplicates int
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		default:
			require.ErrorIs(t, err, store.ErrDuplicateProposal)
			duplicates++
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, attempts-1, duplicates)

	proposals, err := s.ListProposalsByRFP(ctx, rfp.ID)
	require.NoError(t, err)
	assert.Len(t, proposals, 1)
}

func TestSetProposalAnalysis(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	rfp, vendor := seedPair(t, s)

	p := &model.Proposal{
		RFPID: rfp.ID, VendorID: vendor.ID,
		RawContent: "offer",
		ParsedData: model.ParsedData{TotalPrice: 500},
	}
	require.NoError(t, s.CreateProposal(ctx, p))

	analysis := &model.AIAnalysis{
		Score:          82,
		Strengths:      []string{"competitive pricing"},
		Weaknesses:     []string{"long lead time"},
		Summary:        "solid offer",
		Recommendation: "shortlist",
	}
	require.NoError(t, s.SetProposalAnalysis(ctx, p.ID, analysis))

	got, err := s.GetProposalByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalStatusAnalyzed, got.Status)
	require.NotNil(t, got.AIAnalysis)
	assert.Equal(t, 82, got.AIAnalysis.Score)

	// Extraction results survive the update.
	assert.Equal(t, float64(500), got.ParsedData.TotalPrice)
	assert.Equal(t, "offer", got.RawContent)

	err = s.SetProposalAnalysis(ctx, "no-such-id", analysis)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
