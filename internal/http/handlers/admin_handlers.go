package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
)

// AdminHandlers serves moderation, credit and broadcast endpoints
type AdminHandlers struct {
	listings  domain.ListingService
	ledger    domain.LedgerService
	purchases domain.PurchaseService
	notifier  domain.NotificationService
}

// NewAdminHandlers creates new admin handlers
func NewAdminHandlers(
	listings domain.ListingService,
	ledger domain.LedgerService,
	purchases domain.PurchaseService,
	notifier domain.NotificationService,
) *AdminHandlers {
	return &AdminHandlers{
		listings:  listings,
		ledger:    ledger,
		purchases: purchases,
		notifier:  notifier,
	}
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type grantRequest struct {
	UserID   uint   `json:"user_id" binding:"required"`
	Category string `json:"category" binding:"required,oneof=spare_parts automotive"`
	Amount   int    `json:"amount" binding:"required,gt=0"`
}

type creditsSettingRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type packageRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category" binding:"required,oneof=spare_parts automotive"`
	Credits  int    `json:"credits" binding:"required,gt=0"`
	Price    int64  `json:"price" binding:"required,gt=0"`
	Currency string `json:"currency"`
}

type broadcastRequest struct {
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// Pending lists listings waiting for review, oldest first
func (h *AdminHandlers) Pending(c *gin.Context) {
	limit, offset, ok := page(c)
	if !ok {
		return
	}
	listings, err := h.listings.ListPending(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": listingsJSON(listings)})
}

func (h *AdminHandlers) Approve(c *gin.Context) {
	listing, err := h.listings.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": listingJSON(listing)})
}

func (h *AdminHandlers) Reject(c *gin.Context) {
	var req rejectRequest
	if !bindJSON(c, &req) {
		return
	}
	listing, err := h.listings.Reject(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": listingJSON(listing)})
}

// DeleteListing removes any listing. The optional reason query is passed on to the owner.
func (h *AdminHandlers) DeleteListing(c *gin.Context) {
	if err := h.listings.DeleteByAdmin(c.Request.Context(), c.Param("id"), c.Query("reason")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GrantCredits adds credits to a user's pool without payment
func (h *AdminHandlers) GrantCredits(c *gin.Context) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}
	var req grantRequest
	if !bindJSON(c, &req) {
		return
	}

	tx, err := h.ledger.GrantCredits(c.Request.Context(), admin.ID, req.UserID, domain.Category(req.Category), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": transactionJSON(tx)})
}

func (h *AdminHandlers) GetCreditsSetting(c *gin.Context) {
	enabled, err := h.ledger.CreditsEnabled(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"credits_enabled": enabled}})
}

func (h *AdminHandlers) SetCreditsSetting(c *gin.Context) {
	var req creditsSettingRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.ledger.SetCreditsEnabled(c.Request.Context(), *req.Enabled); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"credits_enabled": *req.Enabled}})
}

func (h *AdminHandlers) CreatePackage(c *gin.Context) {
	var req packageRequest
	if !bindJSON(c, &req) {
		return
	}
	pkg := &domain.CreditPackage{
		Name:     req.Name,
		Category: domain.Category(req.Category),
		Credits:  req.Credits,
		Price:    req.Price,
		Currency: req.Currency,
		Active:   true,
	}
	if err := h.purchases.CreatePackage(c.Request.Context(), pkg); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": packageJSON(pkg)})
}

func (h *AdminHandlers) DeactivatePackage(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.purchases.DeactivatePackage(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Broadcast sends a notice to every active user
func (h *AdminHandlers) Broadcast(c *gin.Context) {
	var req broadcastRequest
	if !bindJSON(c, &req) {
		return
	}
	sent, err := h.notifier.Broadcast(c.Request.Context(), req.Title, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"data": gin.H{"recipients": sent}})
}
