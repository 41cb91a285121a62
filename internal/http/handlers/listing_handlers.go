package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/http/middleware"
)

// ListingHandlers serves the public feed and the seller's listing operations
type ListingHandlers struct {
	listings domain.ListingService
}

// NewListingHandlers creates new listing handlers
func NewListingHandlers(listings domain.ListingService) *ListingHandlers {
	return &ListingHandlers{listings: listings}
}

// ListingRequest is the body of create and edit. Field rules live in the service.
type ListingRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	SubCategory string   `json:"sub_category"`
	Price       *float64 `json:"price"`
	Year        *int     `json:"year"`
	Mileage     *int     `json:"mileage"`
	Images      []string `json:"images"`
}

func (r ListingRequest) draft() domain.ListingDraft {
	return domain.ListingDraft{
		Title:       r.Title,
		Description: r.Description,
		Category:    domain.Category(r.Category),
		SubCategory: r.SubCategory,
		Price:       r.Price,
		Year:        r.Year,
		Mileage:     r.Mileage,
		Images:      r.Images,
	}
}

// Categories lists the category to sub-category table
func (h *ListingHandlers) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": domain.CategoryTable()})
}

// Feed lists visible listings, newest first
func (h *ListingHandlers) Feed(c *gin.Context) {
	filter := domain.FeedFilter{
		Category:    domain.Category(c.Query("category")),
		SubCategory: c.Query("sub_category"),
		Query:       c.Query("q"),
	}

	var ok bool
	if filter.Limit, filter.Offset, ok = page(c); !ok {
		return
	}
	if filter.MinPrice, ok = floatQuery(c, "min_price"); !ok {
		return
	}
	if filter.MaxPrice, ok = floatQuery(c, "max_price"); !ok {
		return
	}
	if filter.MinYear, ok = optionalIntQuery(c, "min_year"); !ok {
		return
	}
	if filter.MaxYear, ok = optionalIntQuery(c, "max_year"); !ok {
		return
	}

	listings, err := h.listings.Feed(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": listingsJSON(listings)})
}

// Get returns one listing. Owners and admins also see listings that are not public.
func (h *ListingHandlers) Get(c *gin.Context) {
	viewer, _ := middleware.CurrentUser(c)

	listing, err := h.listings.Get(c.Request.Context(), c.Param("id"), viewer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": listingJSON(listing)})
}

// Mine lists the caller's listings in every state
func (h *ListingHandlers) Mine(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	limit, offset, ok := page(c)
	if !ok {
		return
	}

	listings, err := h.listings.ListMine(c.Request.Context(), user.ID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": listingsJSON(listings)})
}

// Create submits a listing for review
func (h *ListingHandlers) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req ListingRequest
	if !bindJSON(c, &req) {
		return
	}

	listing, err := h.listings.Create(c.Request.Context(), user.ID, req.draft())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": listingJSON(listing)})
}

// Edit replaces a listing's content and sends it back to review
func (h *ListingHandlers) Edit(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req ListingRequest
	if !bindJSON(c, &req) {
		return
	}

	listing, err := h.listings.Edit(c.Request.Context(), user.ID, c.Param("id"), req.draft())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": listingJSON(listing)})
}

// Delete removes the caller's listing
func (h *ListingHandlers) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.listings.DeleteByOwner(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Renew extends an approved listing inside its renewal window
func (h *ListingHandlers) Renew(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	listing, err := h.listings.Renew(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": listingJSON(listing)})
}

// MarkSold takes an approved listing off the feed for good
func (h *ListingHandlers) MarkSold(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	listing, err := h.listings.MarkSold(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": listingJSON(listing)})
}

func floatQuery(c *gin.Context, name string) (*float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		respondValidation(c, name, "must be a non-negative number")
		return nil, false
	}
	return &v, true
}

func optionalIntQuery(c *gin.Context, name string) (*int, bool) {
	if c.Query(name) == "" {
		return nil, true
	}
	v, ok := intQuery(c, name)
	if !ok {
		return nil, false
	}
	return &v, true
}
