package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedListing(t *testing.T, db *gorm.DB, ownerID uint, mutate func(l *domain.Listing)) *domain.Listing {
	t.Helper()
	price := 1500.0
	l := &domain.Listing{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       "Brake pads",
		Description: "OEM brake pads",
		Category:    domain.CategorySpareParts,
		SubCategory: "brakes",
		Price:       &price,
		Images:      []string{"img/1.jpg"},
		Status:      domain.StatusPending,
	}
	if mutate != nil {
		mutate(l)
	}
	require.NoError(t, NewListingRepository(db).Create(context.Background(), l))
	return l
}

func TestListingRepositoryImpl_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	l := seedListing(t, db, 1, func(l *domain.Listing) { l.CreditCharged = true })

	got, err := repo.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, []string{"img/1.jpg"}, got.Images)
	assert.True(t, got.CreditCharged)
	assert.Equal(t, 1, got.Version)
	assert.Nil(t, got.ExpiresAt)

	_, err = repo.FindByID(ctx, "missing")
	assert.Equal(t, domain.ErrListingNotFound, err)
}

func TestListingRepositoryImpl_Approve(t *testing.T) {
	db := setupTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()
	l := seedListing(t, db, 1, nil)
	expires := time.Now().UTC().Add(30 * 24 * time.Hour)

	require.NoError(t, repo.Approve(ctx, l.ID, expires))

	got, _ := repo.FindByID(ctx, l.ID)
	assert.Equal(t, domain.StatusApproved, got.Status)
	require.NotNil(t, got.ExpiresAt)
	assert.WithinDuration(t, expires, *got.ExpiresAt, time.Second)
	assert.Equal(t, 2, got.Version)

	assert.Equal(t, domain.ErrInvalidTransition, repo.Approve(ctx, l.ID, expires), "second approve must lose")
	assert.Equal(t, domain.ErrListingNotFound, repo.Approve(ctx, "missing", expires))
}

func TestListingRepositoryImpl_Reject(t *testing.T) {
	db := setupTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()
	l := seedListing(t, db, 1, func(l *domain.Listing) { l.CreditCharged = true })
	now := time.Now().UTC()

	assert.Equal(t, domain.ErrInvalidTransition, repo.Reject(ctx, l.ID, l.Version+5, "stale", now))
	require.NoError(t, repo.Reject(ctx, l.ID, l.Version, "blurry photos", now))

	got, _ := repo.FindByID(ctx, l.ID)
	assert.Equal(t, domain.StatusRejected, got.Status)
	assert.Equal(t, "blurry photos", got.RejectionReason)
	assert.False(t, got.CreditCharged)
	require.NotNil(t, got.RejectedAt)

	assert.Equal(t, domain.ErrInvalidTransition, repo.Reject(ctx, l.ID, got.Version, "again", now))
}

func TestListingRepositoryImpl_RenewAndSold(t *testing.T) {
	db := setupTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()
	old := time.Now().UTC().Add(time.Hour)
	l := seedListing(t, db, 1, func(l *domain.Listing) {
		l.Status = domain.StatusApproved
		l.ExpiresAt = &old
		l.ExpiryNotified = true
	})

	next := time.Now().UTC().Add(30 * 24 * time.Hour)
	require.NoError(t, repo.Renew(ctx, l.ID, l.Version, next))
	assert.Equal(t, domain.ErrInvalidTransition, repo.Renew(ctx, l.ID, l.Version, next), "stale version")

	got, _ := repo.FindByID(ctx, l.ID)
	assert.False(t, got.ExpiryNotified)
	assert.WithinDuration(t, next, *got.ExpiresAt, time.Second)

	require.NoError(t, repo.MarkSold(ctx, l.ID, got.Version))
	got, _ = repo.FindByID(ctx, l.ID)
	assert.Equal(t, domain.StatusSold, got.Status)
	assert.Equal(t, domain.ErrInvalidTransition, repo.Renew(ctx, l.ID, got.Version, next))
}

func TestListingRepositoryImpl_Edit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()
	rejectedAt := time.Now().UTC()
	expires := time.Now().UTC().Add(48 * time.Hour)
	l := seedListing(t, db, 1, func(l *domain.Listing) {
		l.Status = domain.StatusRejected
		l.RejectionReason = "bad"
		l.RejectedAt = &rejectedAt
		l.ExpiresAt = &expires
	})

	edited := *l
	edited.Title = "Ceramic brake pads"
	edited.Images = []string{"img/2.jpg", "img/3.jpg"}
	edited.Price = nil
	require.NoError(t, repo.Edit(ctx, &edited, l.Version))

	got, _ := repo.FindByID(ctx, l.ID)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, "Ceramic brake pads", got.Title)
	assert.Equal(t, []string{"img/2.jpg", "img/3.jpg"}, got.Images)
	assert.Nil(t, got.Price)
	assert.Empty(t, got.RejectionReason)
	assert.Nil(t, got.RejectedAt)
	require.NotNil(t, got.ExpiresAt, "edit must not touch expires_at")

	sold := seedListing(t, db, 1, func(l *domain.Listing) { l.Status = domain.StatusSold })
	assert.Equal(t, domain.ErrInvalidTransition, repo.Edit(ctx, sold, sold.Version))
}

func TestListingRepositoryImpl_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()
	l := seedListing(t, db, 1, nil)

	require.NoError(t, repo.Delete(ctx, l.ID))
	assert.Equal(t, domain.ErrListingNotFound, repo.Delete(ctx, l.ID))
}

func TestListingRepositoryImpl_SweepQueries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	at := func(d time.Duration) *time.Time {
		v := now.Add(d)
		return &v
	}

	oldRejected := seedListing(t, db, 1, func(l *domain.Listing) { l.Status = domain.StatusRejected; l.RejectedAt = at(-8 * 24 * time.Hour) })
	freshRejected := seedListing(t, db, 1, func(l *domain.Listing) { l.Status = domain.StatusRejected; l.RejectedAt = at(-2 * 24 * time.Hour) })
	expired := seedListing(t, db, 1, func(l *domain.Listing) { l.Status = domain.StatusApproved; l.ExpiresAt = at(-time.Minute) })
	expiring := seedListing(t, db, 1, func(l *domain.Listing) { l.Status = domain.StatusApproved; l.ExpiresAt = at(5 * time.Hour) })
	warned := seedListing(t, db, 1, func(l *domain.Listing) {
		l.Status = domain.StatusApproved
		l.ExpiresAt = at(6 * time.Hour)
		l.ExpiryNotified = true
	})
	later := seedListing(t, db, 1, func(l *domain.Listing) { l.Status = domain.StatusApproved; l.ExpiresAt = at(3 * 24 * time.Hour) })
	soldPast := seedListing(t, db, 1, func(l *domain.Listing) { l.Status = domain.StatusSold; l.ExpiresAt = at(-time.Hour) })

	n, err := repo.DeleteRejectedBefore(ctx, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	for _, gone := range []string{oldRejected.ID, expired.ID} {
		_, err := repo.FindByID(ctx, gone)
		assert.Equal(t, domain.ErrListingNotFound, err)
	}
	for _, kept := range []string{freshRejected.ID, expiring.ID, warned.ID, later.ID, soldPast.ID} {
		_, err := repo.FindByID(ctx, kept)
		assert.NoError(t, err)
	}

	due, err := repo.ListExpiringUnflagged(ctx, now, now.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, expiring.ID, due[0].ID)

	flipped, err := repo.MarkExpiryNotified(ctx, expiring.ID)
	require.NoError(t, err)
	assert.True(t, flipped)
	flipped, err = repo.MarkExpiryNotified(ctx, expiring.ID)
	require.NoError(t, err)
	assert.False(t, flipped, "flag flips only once")
}

func TestListingRepositoryImpl_Lists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	first := seedListing(t, db, 1, nil)
	seedListing(t, db, 2, nil)
	seedListing(t, db, 1, func(l *domain.Listing) { l.Status = domain.StatusApproved })

	mine, err := repo.ListByOwner(ctx, 1, 10, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	pending, err := repo.ListByStatus(ctx, domain.StatusPending, 10, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)

	page, err := repo.ListByStatus(ctx, domain.StatusPending, 1, 1)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}
