package domain

import (
	"fmt"
	"time"
)

// NotificationType defines the kind of in-app notification
type NotificationType string

const (
	// Moderation outcomes sent to listing owners
	NotificationListingApproved NotificationType = "listing_approved"
	NotificationListingRejected NotificationType = "listing_rejected"
	NotificationListingDeleted  NotificationType = "listing_deleted"

	// Raised by the expiration sweep
	NotificationListingExpiring NotificationType = "listing_expiring"

	// Ledger events
	NotificationCreditsAdded NotificationType = "credits_added"

	// Sent to admins when a listing awaits review
	NotificationNewListing NotificationType = "new_listing"

	// Admin announcements
	NotificationBroadcast NotificationType = "broadcast"
)

// Pushable reports whether the notification type is also dispatched outside the app
func (t NotificationType) Pushable() bool {
	switch t {
	case NotificationListingApproved, NotificationListingRejected, NotificationListingExpiring,
		NotificationCreditsAdded, NotificationBroadcast:
		return true
	}
	return false
}

func listingRef(l *Listing) *string {
	if l == nil || l.ID == "" {
		return nil
	}
	id := l.ID
	return &id
}

// NewListingApprovedNotification builds the owner notice for an approval
func NewListingApprovedNotification(l *Listing) *Notification {
	msg := fmt.Sprintf("Your listing \"%s\" has been approved and is now live.", l.Title)
	if l.ExpiresAt != nil {
		msg = fmt.Sprintf("Your listing \"%s\" has been approved and is live until %s.", l.Title, l.ExpiresAt.Format("Jan 2, 2006"))
	}
	return &Notification{
		UserID:    l.OwnerID,
		Type:      NotificationListingApproved,
		Title:     "Listing approved",
		Message:   msg,
		ListingID: listingRef(l),
	}
}

// NewListingRejectedNotification builds the owner notice for a rejection
func NewListingRejectedNotification(l *Listing, refunded bool) *Notification {
	msg := fmt.Sprintf("Your listing \"%s\" was rejected: %s", l.Title, l.RejectionReason)
	if refunded {
		msg += fmt.Sprintf(" Your %s credit has been refunded.", l.Category.Label())
	}
	return &Notification{
		UserID:    l.OwnerID,
		Type:      NotificationListingRejected,
		Title:     "Listing rejected",
		Message:   msg,
		ListingID: listingRef(l),
	}
}

// NewListingDeletedNotification builds the owner notice for an admin deletion
func NewListingDeletedNotification(l *Listing, reason string) *Notification {
	msg := fmt.Sprintf("Your listing \"%s\" was removed by an administrator.", l.Title)
	if reason != "" {
		msg = fmt.Sprintf("Your listing \"%s\" was removed by an administrator: %s", l.Title, reason)
	}
	return &Notification{
		UserID:  l.OwnerID,
		Type:    NotificationListingDeleted,
		Title:   "Listing removed",
		Message: msg,
	}
}

// NewListingExpiringNotification builds the warning sent before a listing expires
func NewListingExpiringNotification(l *Listing, now time.Time) *Notification {
	left := "soon"
	if l.ExpiresAt != nil {
		hours := int(l.ExpiresAt.Sub(now).Hours())
		if hours < 1 {
			left = "in less than an hour"
		} else {
			left = fmt.Sprintf("in %d hours", hours)
		}
	}
	return &Notification{
		UserID:    l.OwnerID,
		Type:      NotificationListingExpiring,
		Title:     "Listing expiring",
		Message:   fmt.Sprintf("Your listing \"%s\" expires %s. Renew it to keep it visible.", l.Title, left),
		ListingID: listingRef(l),
	}
}

// NewCreditsAddedNotification builds the notice sent when credits land in a pool
func NewCreditsAddedNotification(userID uint, category Category, amount int) *Notification {
	unit := "credits"
	if amount == 1 {
		unit = "credit"
	}
	return &Notification{
		UserID:  userID,
		Type:    NotificationCreditsAdded,
		Title:   "Credits added",
		Message: fmt.Sprintf("%d %s %s added to your account.", amount, category.Label(), unit),
	}
}

// NewPendingListingNotification builds the admin notice for a listing awaiting review
func NewPendingListingNotification(adminID uint, l *Listing) *Notification {
	return &Notification{
		UserID:    adminID,
		Type:      NotificationNewListing,
		Title:     "New listing awaiting review",
		Message:   fmt.Sprintf("%s listing \"%s\" is waiting for approval.", l.Category.Label(), l.Title),
		ListingID: listingRef(l),
	}
}
