package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ltran/procurement/internal/logger"
	"github.com/ltran/procurement/internal/model"
	"github.com/ltran/procurement/internal/store"
)

var errNoProposals = errors.New("no proposals received for this rfp")

// VendorHandler serves the vendor directory routes.
type VendorHandler struct {
	store store.Store
	log   *logger.Logger
}

func NewVendorHandler(s store.Store, log *logger.Logger) *VendorHandler {
	return &VendorHandler{store: s, log: log}
}

type vendorRequest struct {
	Name     string  `json:"name" binding:"required"`
	Email    string  `json:"email" binding:"required,email"`
	Phone    string  `json:"phone"`
	Address  string  `json:"address"`
	Category string  `json:"category"`
	Rating   float64 `json:"rating"`
	Notes    string  `json:"notes"`
}

// POST /api/vendors/create
func (h *VendorHandler) Create(c *gin.Context) {
	var req vendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	vendor := &model.Vendor{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Category: req.Category,
		Rating:   req.Rating,
		Notes:    req.Notes,
	}
	if err := h.store.CreateVendor(c.Request.Context(), vendor); err != nil {
		respondStoreError(c, err)
		return
	}

	h.log.Info("vendor created", "vendor_id", vendor.ID, "email", vendor.Email)
	RespondOK(c, gin.H{"vendor": vendor})
}

// POST /api/vendors/getAll
func (h *VendorHandler) GetAll(c *gin.Context) {
	vendors, err := h.store.ListVendors(c.Request.Context())
	if err != nil {
		respondStoreError(c, err)
		return
	}
	RespondOK(c, gin.H{"vendors": vendors})
}

// POST /api/vendors/getById
func (h *VendorHandler) GetByID(c *gin.Context) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	vendor, err := h.store.GetVendorByID(c.Request.Context(), req.ID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	RespondOK(c, gin.H{"vendor": vendor})
}

type updateVendorRequest struct {
	ID string `json:"id" binding:"required"`
	vendorRequest
}

// PUT /api/vendors/update
func (h *VendorHandler) Update(c *gin.Context) {
	var req updateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	vendor, err := h.store.GetVendorByID(c.Request.Context(), req.ID)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	vendor.Name = req.Name
	vendor.Email = req.Email
	vendor.Phone = req.Phone
	vendor.Address = req.Address
	vendor.Category = req.Category
	vendor.Rating = req.Rating
	vendor.Notes = req.Notes

	if err := h.store.UpdateVendor(c.Request.Context(), vendor); err != nil {
		respondStoreError(c, err)
		return
	}
	RespondOK(c, gin.H{"vendor": vendor})
}

// PUT /api/vendors/delete
func (h *VendorHandler) Delete(c *gin.Context) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	if err := h.store.DeleteVendor(c.Request.Context(), req.ID); err != nil {
		respondStoreError(c, err)
		return
	}
	h.log.Info("vendor deleted", "vendor_id", req.ID)
	RespondOK(c, gin.H{"deleted": true})
}
