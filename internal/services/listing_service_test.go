package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingServiceImpl_Create(t *testing.T) {
	f := newFixture(t)
	ctx := createTestContext(t)
	admin := f.seedUser(t, "+971500000009", domain.RoleAdmin, 0, 0)
	owner := f.seedUser(t, "+971500000001", domain.RoleUser, 2, 0)

	listing, err := f.listings.Create(ctx, owner.ID, validDraft())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, listing.Status)
	assert.True(t, listing.CreditCharged)
	assert.Nil(t, listing.ExpiresAt, "expiry is only set on approval")
	assert.Equal(t, 1, f.balances(t, owner.ID).SparePartsCredits)

	stored, err := f.listingRepo.FindByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Brake pads", stored.Title)
	assert.Equal(t, []string{"uploads/brakes-1.jpg"}, stored.Images)

	f.listings.Wait()
	assert.Equal(t, int64(1), f.countNotifications(t, listing.ID, domain.NotificationNewListing))
	sent := f.sms.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, admin.Phone, sent[0].To)
}

func TestListingServiceImpl_Create_InsufficientCredits(t *testing.T) {
	f := newFixture(t)
	ctx := createTestContext(t)
	owner := f.seedUser(t, "+971500000001", domain.RoleUser, 0, 3)

	_, err := f.listings.Create(ctx, owner.ID, validDraft())
	assert.ErrorIs(t, err, domain.ErrInsufficientCredits)

	mine, err := f.listings.ListMine(ctx, owner.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, mine, "nothing is inserted without a credit")
	assert.Equal(t, domain.Balances{AutomotiveCredits: 3}, f.balances(t, owner.ID))
}

func TestListingServiceImpl_Create_CreditsDisabled(t *testing.T) {
	f := newFixture(t)
	ctx := createTestContext(t)
	owner := f.seedUser(t, "+971500000001", domain.RoleUser, 0, 0)
	require.NoError(t, f.ledger.SetCreditsEnabled(ctx, false))

	listing, err := f.listings.Create(ctx, owner.ID, validDraft())
	require.NoError(t, err)
	assert.False(t, listing.CreditCharged)
	assert.Equal(t, domain.Balances{}, f.balances(t, owner.ID))
}

func TestListingServiceImpl_Create_Validation(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(d *domain.ListingDraft)
		expectedField string
	}{
		{name: "missing title", mutate: func(d *domain.ListingDraft) { d.Title = "  " }, expectedField: "title"},
		{name: "unknown category", mutate: func(d *domain.ListingDraft) { d.Category = "boats" }, expectedField: "category"},
		{name: "sub-category from other table", mutate: func(d *domain.ListingDraft) { d.SubCategory = "sedan" }, expectedField: "sub_category"},
		{name: "no images", mutate: func(d *domain.ListingDraft) { d.Images = nil }, expectedField: "images"},
		{name: "blank image", mutate: func(d *domain.ListingDraft) { d.Images = []string{""} }, expectedField: "images"},
		{name: "negative price", mutate: func(d *domain.ListingDraft) { p := -1.0; d.Price = &p }, expectedField: "price"},
		{name: "implausible year", mutate: func(d *domain.ListingDraft) { y := 1800; d.Year = &y }, expectedField: "year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := createTestContext(t)
			owner := f.seedUser(t, "+971500000001", domain.RoleUser, 1, 0)

			draft := validDraft()
			tt.mutate(&draft)
			_, err := f.listings.Create(ctx, owner.ID, draft)

			ve, ok := domain.IsValidationError(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Contains(t, ve.Fields, tt.expectedField)
			assert.Equal(t, 1, f.balances(t, owner.ID).SparePartsCredits, "validation happens before any charge")
		})
	}
}

func TestListingServiceImpl_Approve(t *testing.T) {
	f := newFixture(t)
	ctx := createTestContext(t)
	owner := f.seedUser(t, "+971500000001", domain.RoleUser, 1, 0)
	listing, err := f.listings.Create(ctx, owner.ID, validDraft())
	require.NoError(t, err)

	approved, err := f.listings.Approve(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
	require.NotNil(t, approved.ExpiresAt)
	assert.True(t, approved.ExpiresAt.After(f.clock))
	assert.True(t, approved.ExpiresAt.Equal(f.clock.Add(30*24*time.Hour)))
	assert.Equal(t, int64(1), f.countNotifications(t, listing.ID, domain.NotificationListingApproved))

	_, err = f.listings.Approve(ctx, listing.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.listings.Approve(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrListingNotFound)

	assert.Equal(t, 0, f.balances(t, owner.ID).SparePartsCredits, "approval has no ledger effect")
}

func TestListingServiceImpl_Approve_Concurrent(t *testing.T) {
	f := newFixture(t)
	ctx := createTestContext(t)
	owner := f.seedUser(t, "+971500000001", domain.RoleUser, 1, 0)
	listing, err := f.listings.Create(ctx, owner.ID, validDraft())
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.listings.Approve(ctx, listing.ID)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, domain.ErrInvalidTransition):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(7), conflicts.Load())
	assert.Equal(t, int64(1), f.countNotifications(t, listing.ID, domain.NotificationListingApproved))
}

func TestListingServiceImpl_Reject_RefundsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := createTestContext(t)
	owner := f.seedUser(t, "+971500000001", domain.RoleUser, 1, 0)
	listing, err := f.listings.Create(ctx, owner.ID, validDraft())
	require.NoError(t, err)
	require.Equal(t, 0, f.balances(t, owner.ID).SparePartsCredits)

	rejected, err := f.listings.Reject(ctx, listing.ID, "photos are blurry")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)
	assert.Equal(t, "photos are blurry", rejected.RejectionReason)
	assert.False(t, rejected.CreditCharged)
	assert.Equal(t, 1, f.balances(t, owner.ID).SparePartsCredits, "create then reject is balance neutral")

	_, err = f.listings.Reject(ctx, listing.ID, "again")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 1, f.balances(t, owner.ID).SparePartsCredits, "a second reject never refunds")

	n, err := f.notifications.ListByUser(ctx, owner.ID, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, n, 1)
	assert.Contains(t, n[0].Message, "refunded")
}

func TestListingServiceImpl_Reject_ConcurrentRefundsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := createTestContext(t)
	owner := f.seedUser(t, "+971500000001", domain.RoleUser, 1, 0)
	listing, err := f.listings.Create(ctx, owner.ID, validDraft())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.listings.Reject(ctx, listing.ID, "duplicate")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.balances(t, owner.ID).SparePartsCredits)
	assert.Equal(t, int64(1), f.countNotifications(t, listing.ID, domain.NotificationListingRejected))
}

func TestListingServiceImpl_Reject_Uncharged(t *testing.T) {
	f := newFixture(t)
	ctx := createTestContext(t)
	owner := f.seedUser(t, "+971500000001", domain.RoleUser, 0, 0)
	require.NoError(t, f.ledger.SetCreditsEnabled(ctx, false))
	listing, err := f.listings.Create(ctx, owner.ID, validDraft())
	require.NoError(t, err)

	_, err = f.listings.Reject(ctx, listing.ID, "")
	_, isValidation := domain.IsValidationError(err)
	assert.True(t, isValidation, "a reason is required")

	_, err = f.listings.Reject(ctx, listing.ID, "wrong category")
	require.NoError(t, err)
	assert.Equal(t, domain.Balances{}, f.balances(t, owner.ID), "nothing to refund")
}

func TestListingServiceImpl_Renew(t *testing.T) {
	tests := []struct {
		name          string
		advance       time.Duration
		credits       int
		otherOwner    bool
		expectedError error
	}{
		{name: "day before expiry", advance: 29 * 24 * time.Hour, credits: 1},
		{name: "just after expiry", advance: 31 * 24 * time.Hour, credits: 1},
		{name: "too early", advance: 10 * 24 * time.Hour, credits: 1, expectedError: domain.ErrRenewNotAllowed},
		{name: "too late", advance: 38 * 24 * time.Hour, credits: 1, expectedError: domain.ErrRenewNotAllowed},
		{name: "no credit", advance: 29 * 24 * time.Hour, credits: 0, expectedError: domain.ErrInsufficientCredits},
		{name: "not the owner", advance: 29 * 24 * time.Hour, credits: 1, otherOwner: true, expectedError: domain.ErrNotOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := createTestContext(t)
			owner := f.seedUser(t, "+971500000001", domain.RoleUser, 1, 0)
			listing, err := f.listings.Create(ctx, owner.ID, validDraft())
			require.NoError(t, err)
			approved, err := f.listings.Approve(ctx, listing.ID)
			require.NoError(t, err)
			originalExpiry := *approved.ExpiresAt
			if tt.credits > 0 {
				require.NoError(t, f.ledger.AddCredits(ctx, owner.ID, domain.CategorySpareParts, tt.credits))
			}

			caller := owner.ID
			if tt.otherOwner {
				caller = f.seedUser(t, "+971500000002", domain.RoleUser, 5, 5).ID
			}
			f.clock = testEpoch.Add(tt.advance)

			renewed, err := f.listings.Renew(ctx, caller, listing.ID)
			stored, findErr := f.listingRepo.FindByID(ctx, listing.ID)
			require.NoError(t, findErr)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.True(t, stored.ExpiresAt.Equal(originalExpiry), "listing untouched")
				assert.Equal(t, tt.credits, f.balances(t, owner.ID).SparePartsCredits, "no credit consumed")
				return
			}
			require.NoError(t, err)
			assert.True(t, renewed.ExpiresAt.Equal(f.clock.Add(30*24*time.Hour)))
			assert.True(t, stored.ExpiresAt.Equal(f.clock.Add(30*24*time.Hour)))
			assert.False(t, stored.ExpiryNotified)
			assert.Equal(t, 0, f.balances(t, owner.ID).SparePartsCredits)
		})
	}
}

func TestListingServiceImpl_Renew_RequiresApproved(t *testing.T) {
	f := newFixture(t)
	ctx := createTestContext(t)
	owner := f.seedUser(t, "+971500000001", domain.RoleUser, 2, 0)
	listing, err := f.listings.Create(ctx, owner.ID, validDraft())
	require.NoError(t, err)

	_, err = f.listings.Renew(ctx, owner.ID, listing.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 1, f.balances(t, owner.ID).SparePartsCredits)
}

func TestListingServiceImpl_Edit(t *testing.T) {
	f := newFixture(t)
	ctx := createTestContext(t)
	owner := f.seedUser(t, "+971500000001", domain.RoleUser, 1, 0)
	listing, err := f.listings.Create(ctx, owner.ID, validDraft())
	require.NoError(t, err)
	approved, err := f.listings.Approve(ctx, listing.ID)
	require.NoError(t, err)

	draft := validDraft()
	draft.Title = "Ceramic brake pads"
	edited, err := f.listings.Edit(ctx, owner.ID, listing.ID, draft)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, edited.Status, "edits go back to review")
	assert.Equal(t, "Ceramic brake pads", edited.Title)
	require.NotNil(t, edited.ExpiresAt)
	assert.True(t, edited.ExpiresAt.Equal(*approved.ExpiresAt), "expiry untouched")
	assert.True(t, edited.CreditCharged)
	assert.Equal(t, 0, f.balances(t, owner.ID).SparePartsCredits, "edits never charge")

	moved := validDraft()
	moved.Category = domain.CategoryAutomotive
	moved.SubCategory = "sedan"
	_, err = f.listings.Edit(ctx, owner.ID, listing.ID, moved)
	assert.ErrorIs(t, err, domain.ErrCategoryLocked)

	_, err = f.listings.Edit(ctx, owner.ID+1, listing.ID, draft)
	assert.ErrorIs(t, err, domain.ErrNotOwner)
}

func TestListingServiceImpl_Edit_RejectedCanMoveCategory(t *testing.T) {
	f := newFixture(t)
	ctx := createTestContext(t)
	owner := f.seedUser(t, "+971500000001", domain.RoleUser, 1, 0)
	listing, err := f.listings.Create(ctx, owner.ID, validDraft())
	require.NoError(t, err)
	_, err = f.listings.Reject(ctx, listing.ID, "wrong category")
	require.NoError(t, err)

	moved := validDraft()
	moved.Category = domain.CategoryAutomotive
	moved.SubCategory = "sedan"
	edited, err := f.listings.Edit(ctx, owner.ID, listing.ID, moved)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, edited.Status)
	assert.Equal(t, domain.CategoryAutomotive, edited.Category)
	assert.Empty(t, edited.RejectionReason)
}

func TestListingServiceImpl_MarkSold(t *testing.T) {
	f := newFixture(t)
	ctx := createTestContext(t)
	owner := f.seedUser(t, "+971500000001", domain.RoleUser, 1, 0)
	listing, err := f.listings.Create(ctx, owner.ID, validDraft())
	require.NoError(t, err)

	_, err = f.listings.MarkSold(ctx, owner.ID, listing.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "pending listings cannot be sold")

	_, err = f.listings.Approve(ctx, listing.ID)
	require.NoError(t, err)
	sold, err := f.listings.MarkSold(ctx, owner.ID, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSold, sold.Status)

	feed, err := f.listings.Feed(ctx, domain.FeedFilter{})
	require.NoError(t, err)
	assert.Empty(t, feed)

	_, err = f.listings.Edit(ctx, owner.ID, listing.ID, validDraft())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "sold is terminal")
}

func TestListingServiceImpl_GetVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := createTestContext(t)
	owner := f.seedUser(t, "+971500000001", domain.RoleUser, 1, 0)
	stranger := f.seedUser(t, "+971500000002", domain.RoleUser, 0, 0)
	admin := f.seedUser(t, "+971500000009", domain.RoleAdmin, 0, 0)
	listing, err := f.listings.Create(ctx, owner.ID, validDraft())
	require.NoError(t, err)

	tests := []struct {
		name          string
		viewer        *domain.User
		expectedError error
	}{
		{name: "anonymous", viewer: nil, expectedError: domain.ErrListingNotFound},
		{name: "stranger", viewer: stranger, expectedError: domain.ErrListingNotFound},
		{name: "owner", viewer: owner},
		{name: "admin", viewer: admin},
	}
	for _, tt := range tests {
		t.Run("pending_"+tt.name, func(t *testing.T) {
			got, err := f.listings.Get(ctx, listing.ID, tt.viewer)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, listing.ID, got.ID)
		})
	}

	_, err = f.listings.Approve(ctx, listing.ID)
	require.NoError(t, err)
	got, err := f.listings.Get(ctx, listing.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.Status)

	f.clock = testEpoch.Add(31 * 24 * time.Hour)
	_, err = f.listings.Get(ctx, listing.ID, stranger)
	assert.ErrorIs(t, err, domain.ErrListingNotFound, "expired listings leave the public view before the sweep runs")
}

func TestListingServiceImpl_Feed(t *testing.T) {
	f := newFixture(t)
	ctx := createTestContext(t)
	owner := f.seedUser(t, "+971500000001", domain.RoleUser, 5, 5)

	var ids []string
	for i := 0; i < 3; i++ {
		l, err := f.listings.Create(ctx, owner.ID, validDraft())
		require.NoError(t, err)
		ids = append(ids, l.ID)
	}
	car := validDraft()
	car.Title = "Toyota Land Cruiser"
	car.Category = domain.CategoryAutomotive
	car.SubCategory = "suv"
	carListing, err := f.listings.Create(ctx, owner.ID, car)
	require.NoError(t, err)

	_, err = f.listings.Approve(ctx, ids[0])
	require.NoError(t, err)
	_, err = f.listings.Approve(ctx, carListing.ID)
	require.NoError(t, err)

	all, err := f.listings.Feed(ctx, domain.FeedFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2, "pending listings stay out of the feed")

	cars, err := f.listings.Feed(ctx, domain.FeedFilter{Category: domain.CategoryAutomotive})
	require.NoError(t, err)
	require.Len(t, cars, 1)
	assert.Equal(t, carListing.ID, cars[0].ID)

	search, err := f.listings.Feed(ctx, domain.FeedFilter{Query: "cruiser"})
	require.NoError(t, err)
	assert.Len(t, search, 1)

	_, err = f.listings.Feed(ctx, domain.FeedFilter{Category: domain.CategoryAutomotive, SubCategory: "engine"})
	_, isValidation := domain.IsValidationError(err)
	assert.True(t, isValidation)
}

func TestListingServiceImpl_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := createTestContext(t)
	owner := f.seedUser(t, "+971500000001", domain.RoleUser, 2, 0)
	first, err := f.listings.Create(ctx, owner.ID, validDraft())
	require.NoError(t, err)
	second, err := f.listings.Create(ctx, owner.ID, validDraft())
	require.NoError(t, err)

	assert.ErrorIs(t, f.listings.DeleteByOwner(ctx, owner.ID+1, first.ID), domain.ErrNotOwner)
	require.NoError(t, f.listings.DeleteByOwner(ctx, owner.ID, first.ID))
	assert.Equal(t, 0, f.balances(t, owner.ID).SparePartsCredits, "deleting never refunds")

	require.NoError(t, f.listings.DeleteByAdmin(ctx, second.ID, "duplicate post"))
	_, err = f.listingRepo.FindByID(ctx, second.ID)
	assert.ErrorIs(t, err, domain.ErrListingNotFound)

	notes, err := f.notifications.ListByUser(ctx, owner.ID, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, domain.NotificationListingDeleted, notes[0].Type)
	assert.Contains(t, notes[0].Message, "duplicate post")

	assert.ErrorIs(t, f.listings.DeleteByAdmin(context.Background(), second.ID, ""), domain.ErrListingNotFound)
}
