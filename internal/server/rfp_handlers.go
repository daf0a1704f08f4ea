package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ltran/procurement/internal/ai"
	"github.com/ltran/procurement/internal/ingest"
	"github.com/ltran/procurement/internal/logger"
	"github.com/ltran/procurement/internal/model"
	"github.com/ltran/procurement/internal/store"
)

// Oracle is the subset of the extraction service the HTTP layer needs.
type Oracle interface {
	ParseRFP(ctx context.Context, naturalLanguageInput string) (*model.RFP, error)
	CompareProposals(ctx context.Context, rfp *model.RFP, summaries []ai.ProposalSummary) (*ai.Comparison, error)
}

// RFPHandler serves the RFP lifecycle routes.
type RFPHandler struct {
	store      store.Store
	oracle     Oracle
	dispatcher *ingest.Dispatcher
	log        *logger.Logger
}

func NewRFPHandler(s store.Store, oracle Oracle, d *ingest.Dispatcher, log *logger.Logger) *RFPHandler {
	return &RFPHandler{store: s, oracle: oracle, dispatcher: d, log: log}
}

type createRFPRequest struct {
	NaturalLanguageInput string `json:"naturalLanguageInput" binding:"required"`
}

// POST /api/rfps/create
func (h *RFPHandler) Create(c *gin.Context) {
	var req createRFPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	rfp, err := h.oracle.ParseRFP(c.Request.Context(), req.NaturalLanguageInput)
	if err != nil {
		h.log.Error("rfp parsing failed", "error", err)
		RespondError(c, http.StatusBadGateway, "oracle_error", err)
		return
	}

	if err := h.store.CreateRFP(c.Request.Context(), rfp); err != nil {
		respondStoreError(c, err)
		return
	}

	h.log.Info("rfp created", "rfp_id", rfp.ID, "title", rfp.Title)
	RespondOK(c, gin.H{"rfp": rfp})
}

// POST /api/rfps/getAll
func (h *RFPHandler) GetAll(c *gin.Context) {
	rfps, err := h.store.ListRFPs(c.Request.Context())
	if err != nil {
		respondStoreError(c, err)
		return
	}
	RespondOK(c, gin.H{"rfps": rfps})
}

type idRequest struct {
	ID string `json:"id" binding:"required"`
}

// POST /api/rfps/getById
func (h *RFPHandler) GetByID(c *gin.Context) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	rfp, err := h.store.GetRFPByID(c.Request.Context(), req.ID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	RespondOK(c, gin.H{"rfp": rfp})
}

type updateRFPRequest struct {
	ID                     string           `json:"id" binding:"required"`
	Title                  string           `json:"title"`
	Description            string           `json:"description"`
	Budget                 float64          `json:"budget"`
	DeliveryTimeline       string           `json:"deliveryTimeline"`
	Items                  []model.LineItem `json:"items"`
	PaymentTerms           string           `json:"paymentTerms"`
	WarrantyRequirements   string           `json:"warrantyRequirements"`
	AdditionalRequirements string           `json:"additionalRequirements"`
}

// PUT /api/rfps/update
func (h *RFPHandler) Update(c *gin.Context) {
	var req updateRFPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	rfp, err := h.store.GetRFPByID(c.Request.Context(), req.ID)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	rfp.Title = req.Title
	rfp.Description = req.Description
	rfp.Budget = req.Budget
	rfp.DeliveryTimeline = req.DeliveryTimeline
	rfp.Items = req.Items
	rfp.PaymentTerms = req.PaymentTerms
	rfp.WarrantyRequirements = req.WarrantyRequirements
	rfp.AdditionalRequirements = req.AdditionalRequirements

	if err := h.store.UpdateRFP(c.Request.Context(), rfp); err != nil {
		respondStoreError(c, err)
		return
	}
	RespondOK(c, gin.H{"rfp": rfp})
}

// PUT /api/rfps/delete
func (h *RFPHandler) Delete(c *gin.Context) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	if err := h.store.DeleteRFP(c.Request.Context(), req.ID); err != nil {
		respondStoreError(c, err)
		return
	}
	h.log.Info("rfp deleted", "rfp_id", req.ID)
	RespondOK(c, gin.H{"deleted": true})
}

type sendRFPRequest struct {
	ID        string   `json:"id" binding:"required"`
	VendorIDs []string `json:"vendorIds" binding:"required,min=1"`
}

// POST /api/rfps/send
func (h *RFPHandler) Send(c *gin.Context) {
	var req sendRFPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	results, err := h.dispatcher.Send(c.Request.Context(), req.ID, req.VendorIDs)
	if err != nil {
		if results == nil {
			respondStoreError(c, err)
			return
		}
		// The batch ran; only the final status flip failed.
		h.log.Error("dispatch completed with error", "rfp_id", req.ID, "error", err)
	}
	RespondOK(c, gin.H{"results": results})
}

// POST /api/rfps/getProposals
func (h *RFPHandler) GetProposals(c *gin.Context) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	if _, err := h.store.GetRFPByID(c.Request.Context(), req.ID); err != nil {
		respondStoreError(c, err)
		return
	}

	proposals, err := h.store.ListProposalsByRFP(c.Request.Context(), req.ID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	RespondOK(c, gin.H{"proposals": proposals})
}

// POST /api/rfps/compare
func (h *RFPHandler) Compare(c *gin.Context) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	rfp, err := h.store.GetRFPByID(c.Request.Context(), req.ID)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	proposals, err := h.store.ListProposalsByRFP(c.Request.Context(), req.ID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if len(proposals) == 0 {
		RespondError(c, http.StatusBadRequest, "no_proposals", errNoProposals)
		return
	}

	summaries := make([]ai.ProposalSummary, 0, len(proposals))
	for _, p := range proposals {
		name := p.VendorID
		if vendor, err := h.store.GetVendorByID(c.Request.Context(), p.VendorID); err == nil {
			name = vendor.Name
		}
		summaries = append(summaries, ai.ProposalSummary{
			Vendor:           name,
			TotalPrice:       p.ParsedData.TotalPrice,
			DeliveryTimeline: p.ParsedData.DeliveryTimeline,
			PaymentTerms:     p.ParsedData.PaymentTerms,
			Warranty:         p.ParsedData.Warranty,
		})
	}

	comparison, err := h.oracle.CompareProposals(c.Request.Context(), rfp, summaries)
	if err != nil {
		h.log.Error("proposal comparison failed", "rfp_id", req.ID, "error", err)
		RespondError(c, http.StatusBadGateway, "oracle_error", err)
		return
	}
	RespondOK(c, gin.H{"comparison": comparison})
}
