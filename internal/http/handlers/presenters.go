package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
)

func listingJSON(l *domain.Listing) gin.H {
	return gin.H{
		"id":               l.ID,
		"owner_id":         l.OwnerID,
		"title":            l.Title,
		"description":      l.Description,
		"category":         l.Category,
		"sub_category":     l.SubCategory,
		"price":            l.Price,
		"year":             l.Year,
		"mileage":          l.Mileage,
		"images":           l.Images,
		"status":           l.Status,
		"expires_at":       l.ExpiresAt,
		"rejection_reason": l.RejectionReason,
		"credit_charged":   l.CreditCharged,
		"created_at":       l.CreatedAt,
		"updated_at":       l.UpdatedAt,
	}
}

func listingsJSON(ls []*domain.Listing) []gin.H {
	out := make([]gin.H, 0, len(ls))
	for _, l := range ls {
		out = append(out, listingJSON(l))
	}
	return out
}

func userJSON(u *domain.User) gin.H {
	return gin.H{
		"id":        u.ID,
		"phone":     u.Phone,
		"email":     u.Email,
		"name":      u.Name,
		"role":      u.Role,
		"is_active": u.IsActive,
		"credits": domain.Balances{
			SparePartsCredits: u.SparePartsCredits,
			AutomotiveCredits: u.AutomotiveCredits,
		},
		"created_at": u.CreatedAt,
	}
}

func transactionJSON(t *domain.Transaction) gin.H {
	return gin.H{
		"reference":      t.Reference,
		"user_id":        t.UserID,
		"package_id":     t.PackageID,
		"category":       t.Category,
		"amount":         t.Amount,
		"currency":       t.Currency,
		"credits":        t.Credits,
		"status":         t.Status,
		"source":         t.Source,
		"failure_reason": t.FailureReason,
		"created_at":     t.CreatedAt,
		"updated_at":     t.UpdatedAt,
	}
}

func packageJSON(p *domain.CreditPackage) gin.H {
	return gin.H{
		"id":       p.ID,
		"name":     p.Name,
		"category": p.Category,
		"credits":  p.Credits,
		"price":    p.Price,
		"currency": p.Currency,
		"active":   p.Active,
	}
}

func notificationJSON(n *domain.Notification) gin.H {
	return gin.H{
		"id":         n.ID,
		"type":       n.Type,
		"title":      n.Title,
		"message":    n.Message,
		"read":       n.Read,
		"listing_id": n.ListingID,
		"created_at": n.CreatedAt,
	}
}
