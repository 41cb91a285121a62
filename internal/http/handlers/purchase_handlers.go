package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
)

// PurchaseHandlers serves credit packages, balances and the card checkout flow
type PurchaseHandlers struct {
	purchases domain.PurchaseService
	ledger    domain.LedgerService
}

// NewPurchaseHandlers creates new purchase handlers
func NewPurchaseHandlers(purchases domain.PurchaseService, ledger domain.LedgerService) *PurchaseHandlers {
	return &PurchaseHandlers{purchases: purchases, ledger: ledger}
}

type checkoutRequest struct {
	PackageID uint `json:"package_id" binding:"required"`
}

type verifyRequest struct {
	Reference string `json:"reference" binding:"required"`
}

// callbackRequest accepts both the form post and the JSON variant of the gateway notification.
// Only identifiers are read; the order state is always fetched from the gateway.
type callbackRequest struct {
	CartID     string `form:"cart_id" json:"cart_id"`
	TranCartID string `form:"tran_cartid" json:"tran_cartid"`
	OrderRef   string `form:"order_ref" json:"order_ref"`
}

// Packages lists the active credit packages
func (h *PurchaseHandlers) Packages(c *gin.Context) {
	pkgs, err := h.purchases.ListPackages(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, packageJSON(p))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// Credits returns the caller's balances and whether posting costs credits
func (h *PurchaseHandlers) Credits(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	balances, err := h.ledger.GetBalances(ctx, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	enabled, err := h.ledger.CreditsEnabled(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"spare_parts_credits": balances.SparePartsCredits,
			"automotive_credits":  balances.AutomotiveCredits,
			"credits_enabled":     enabled,
		},
	})
}

// Checkout opens a gateway order for a package
func (h *PurchaseHandlers) Checkout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req checkoutRequest
	if !bindJSON(c, &req) {
		return
	}

	checkout, err := h.purchases.Initiate(c.Request.Context(), user.ID, req.PackageID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"data": gin.H{
			"reference":      checkout.Reference,
			"payment_url":    checkout.PaymentURL,
			"checkout_token": checkout.CheckoutToken,
			"status":         checkout.Status,
		},
	})
}

// Verify asks the gateway for the outcome of the caller's purchase
func (h *PurchaseHandlers) Verify(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req verifyRequest
	if !bindJSON(c, &req) {
		return
	}

	tx, err := h.purchases.Verify(c.Request.Context(), req.Reference)
	if err != nil {
		respondError(c, err)
		return
	}
	if tx.UserID != user.ID {
		respondError(c, domain.ErrTransactionNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": transactionJSON(tx)})
}

// Callback handles the gateway's server to server notification
func (h *PurchaseHandlers) Callback(c *gin.Context) {
	var req callbackRequest
	if err := c.ShouldBind(&req); err != nil {
		respondValidation(c, "body", "unreadable callback")
		return
	}

	ctx := c.Request.Context()
	var (
		tx  *domain.Transaction
		err error
	)
	switch {
	case req.TranCartID != "":
		tx, err = h.purchases.Verify(ctx, req.TranCartID)
	case req.CartID != "":
		tx, err = h.purchases.Verify(ctx, req.CartID)
	case req.OrderRef != "":
		tx, err = h.purchases.VerifyGatewayRef(ctx, req.OrderRef)
	default:
		respondValidation(c, "cart_id", "is required")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"reference": tx.Reference, "status": tx.Status}})
}

// Return is where the gateway sends the buyer's browser after payment
func (h *PurchaseHandlers) Return(c *gin.Context) {
	ctx := c.Request.Context()
	reference, err := h.purchases.ResolveCheckoutToken(ctx, c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	tx, err := h.purchases.Verify(ctx, reference)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": transactionJSON(tx)})
}

// History lists the caller's purchases and grants, newest first
func (h *PurchaseHandlers) History(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	limit, offset, ok := page(c)
	if !ok {
		return
	}
	txs, err := h.purchases.History(c.Request.Context(), user.ID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(txs))
	for _, t := range txs {
		out = append(out, transactionJSON(t))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}
