package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ltran/procurement/internal/ai"
	"github.com/ltran/procurement/internal/ingest"
	"github.com/ltran/procurement/internal/logger"
	"github.com/ltran/procurement/internal/mail"
	"github.com/ltran/procurement/internal/model"
	"github.com/ltran/procurement/internal/server"
	"github.com/ltran/procurement/internal/store"
	"github.com/ltran/procurement/tests/testutil"
)

type stubOracle struct {
	rfp        *model.RFP
	parseErr   error
	comparison *ai.Comparison
}

func (s *stubOracle) ParseRFP(ctx context.Context, input string) (*model.RFP, error) {
	if s.parseErr != nil {
		return nil, s.parseErr
	}
	rfp := *s.rfp
	return &rfp, nil
}

func (s *stubOracle) CompareProposals(ctx context.Context, rfp *model.RFP, summaries []ai.ProposalSummary) (*ai.Comparison, error) {
	return s.comparison, nil
}

type okTransport struct{}

func (okTransport) From() string                                   { return "procurement@buyer.test" }
func (okTransport) Send(ctx context.Context, m mail.OutboundEmail) error { return nil }

type testEnv struct {
	store  *store.SQLiteStore
	router *gin.Engine
	oracle *stubOracle
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := testutil.NewTestStore(t)
	log := logger.NewNop()
	oracle := &stubOracle{
		rfp: &model.RFP{Title: "Parsed Title", Status: model.RFPStatusDraft},
		comparison: &ai.Comparison{
			OverallRecommendation: "Choose Acme",
		},
	}
	dispatcher := ingest.NewDispatcher(s, okTransport{}, log)

	router := server.NewRouter(server.RouterConfig{
		RFPHandler:     server.NewRFPHandler(s, oracle, dispatcher, log),
		VendorHandler:  server.NewVendorHandler(s, log),
		AllowedOrigins: []string{"http://localhost:5173"},
		MailboxHealthy: func() bool { return true },
		Log:            log,
	})

	return &testEnv{store: s, router: router, oracle: oracle}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status  string `json:"status"`
		Mailbox bool   `json:"mailbox"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Mailbox)
}

func TestVendorCreateAndFetch(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/vendors/create", gin.H{
		"name":  "Acme",
		"email": "sales@acme.test",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var created struct {
		Vendor model.Vendor `json:"vendor"`
	}
	decode(t, rec, &created)
	require.NotEmpty(t, created.Vendor.ID)

	rec = env.do(t, http.MethodPost, "/api/vendors/getById", gin.H{"id": created.Vendor.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched struct {
		Vendor model.Vendor `json:"vendor"`
	}
	decode(t, rec, &fetched)
	assert.Equal(t, "Acme", fetched.Vendor.Name)
}

func TestVendorCreateRejectsBadEmail(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/vendors/create", gin.H{
		"name":  "Acme",
		"email": "not-an-email",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRFPCreateFromNaturalLanguage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/rfps/create", gin.H{
		"naturalLanguageInput": "I need 10 laptops, budget 25k",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		RFP model.RFP `json:"rfp"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "Parsed Title", resp.RFP.Title)
	assert.NotEmpty(t, resp.RFP.ID)
	assert.Equal(t, model.RFPStatusDraft, resp.RFP.Status)
}

func TestRFPGetByIDNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/rfps/getById", gin.H{"id": "missing"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp server.ErrorEnvelope
	decode(t, rec, &resp)
	assert.Equal(t, "not_found", resp.Error.Code)
}

func TestRFPSendEndpoint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rfp := &model.RFP{Title: "Laptops"}
	require.NoError(t, env.store.CreateRFP(ctx, rfp))
	vendor := &model.Vendor{Name: "Acme", Email: "sales@acme.test"}
	require.NoError(t, env.store.CreateVendor(ctx, vendor))

	rec := env.do(t, http.MethodPost, "/api/rfps/send", gin.H{
		"id":        rfp.ID,
		"vendorIds": []string{vendor.ID},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Results []ingest.VendorSendResult `json:"results"`
	}
	decode(t, rec, &resp)
	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].Success)
	assert.Equal(t, vendor.ID, resp.Results[0].VendorID)

	got, err := env.store.GetRFPByID(ctx, rfp.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RFPStatusSent, got.Status)
}

func TestRFPGetProposalsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rfp := &model.RFP{Title: "Laptops"}
	require.NoError(t, env.store.CreateRFP(ctx, rfp))
	vendor := &model.Vendor{Name: "Acme", Email: "sales@acme.test"}
	require.NoError(t, env.store.CreateVendor(ctx, vendor))
	require.NoError(t, env.store.CreateProposal(ctx, &model.Proposal{
		RFPID: rfp.ID, VendorID: vendor.ID,
		ParsedData: model.ParsedData{TotalPrice: 9500},
	}))

	rec := env.do(t, http.MethodPost, "/api/rfps/getProposals", gin.H{"id": rfp.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Proposals []model.Proposal `json:"proposals"`
	}
	decode(t, rec, &resp)
	require.Len(t, resp.Proposals, 1)
	assert.Equal(t, vendor.ID, resp.Proposals[0].VendorID)
}

func TestRFPCompareRequiresProposals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rfp := &model.RFP{Title: "Laptops"}
	require.NoError(t, env.store.CreateRFP(ctx, rfp))

	rec := env.do(t, http.MethodPost, "/api/rfps/compare", gin.H{"id": rfp.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRFPCompare(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rfp := &model.RFP{Title: "Laptops"}
	require.NoError(t, env.store.CreateRFP(ctx, rfp))
	vendor := &model.Vendor{Name: "Acme", Email: "sales@acme.test"}
	require.NoError(t, env.store.CreateVendor(ctx, vendor))
	require.NoError(t, env.store.CreateProposal(ctx, &model.Proposal{
		RFPID: rfp.ID, VendorID: vendor.ID,
		ParsedData: model.ParsedData{TotalPrice: 9500},
	}))

	rec := env.do(t, http.MethodPost, "/api/rfps/compare", gin.H{"id": rfp.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Comparison ai.Comparison `json:"comparison"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "Choose Acme", resp.Comparison.OverallRecommendation)
}

func TestRFPDeleteEndpoint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rfp := &model.RFP{Title: "Laptops"}
	require.NoError(t, env.store.CreateRFP(ctx, rfp))

	rec := env.do(t, http.MethodPut, "/api/rfps/delete", gin.H{"id": rfp.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := env.store.GetRFPByID(ctx, rfp.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
