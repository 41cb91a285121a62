package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupFeed(t *testing.T) (*gorm.DB, domain.FeedRepository) {
	t.Helper()
	db := setupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	return db, NewFeedRepository(sqlx.NewDb(sqlDB, "sqlite3"))
}

func TestFeedRepositoryImpl_Visibility(t *testing.T) {
	db, feed := setupFeed(t)
	ctx := context.Background()
	now := time.Now().UTC()
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Hour)

	visible := seedListing(t, db, 1, func(l *domain.Listing) { l.Status = domain.StatusApproved; l.ExpiresAt = &future })
	seedListing(t, db, 1, func(l *domain.Listing) { l.Status = domain.StatusApproved; l.ExpiresAt = &past })
	seedListing(t, db, 1, nil)
	seedListing(t, db, 1, func(l *domain.Listing) { l.Status = domain.StatusRejected })
	seedListing(t, db, 1, func(l *domain.Listing) { l.Status = domain.StatusSold; l.ExpiresAt = &future })

	got, err := feed.ListVisible(ctx, domain.FeedFilter{Limit: 20}, now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, visible.ID, got[0].ID)
	assert.Equal(t, []string{"img/1.jpg"}, got[0].Images)

	one, err := feed.FindVisible(ctx, visible.ID, now)
	require.NoError(t, err)
	assert.Equal(t, "Brake pads", one.Title)

	_, err = feed.FindVisible(ctx, visible.ID, future.Add(time.Second))
	assert.Equal(t, domain.ErrListingNotFound, err, "expired listings disappear even before the sweep runs")
}

func TestFeedRepositoryImpl_Filters(t *testing.T) {
	db, feed := setupFeed(t)
	ctx := context.Background()
	now := time.Now().UTC()
	future := now.Add(24 * time.Hour)

	price := func(v float64) *float64 { return &v }
	year := func(v int) *int { return &v }
	approved := func(mutate func(l *domain.Listing)) *domain.Listing {
		return seedListing(t, db, 1, func(l *domain.Listing) {
			l.Status = domain.StatusApproved
			l.ExpiresAt = &future
			mutate(l)
		})
	}

	pads := approved(func(l *domain.Listing) { l.Price = price(200) })
	civic := approved(func(l *domain.Listing) {
		l.Title = "Honda Civic"
		l.Description = "Low mileage sedan"
		l.Category = domain.CategoryAutomotive
		l.SubCategory = "sedan"
		l.Price = price(45000)
		l.Year = year(2018)
	})
	patrol := approved(func(l *domain.Listing) {
		l.Title = "Nissan Patrol"
		l.Category = domain.CategoryAutomotive
		l.SubCategory = "suv"
		l.Price = price(120000)
		l.Year = year(2021)
	})

	tests := []struct {
		name     string
		filter   domain.FeedFilter
		expected []string
	}{
		{name: "category", filter: domain.FeedFilter{Category: domain.CategoryAutomotive}, expected: []string{civic.ID, patrol.ID}},
		{name: "sub category", filter: domain.FeedFilter{Category: domain.CategoryAutomotive, SubCategory: "suv"}, expected: []string{patrol.ID}},
		{name: "price range", filter: domain.FeedFilter{MinPrice: price(100), MaxPrice: price(50000)}, expected: []string{pads.ID, civic.ID}},
		{name: "year range", filter: domain.FeedFilter{MinYear: year(2020)}, expected: []string{patrol.ID}},
		{name: "text search is case insensitive", filter: domain.FeedFilter{Query: "MILEAGE"}, expected: []string{civic.ID}},
		{name: "no match", filter: domain.FeedFilter{Query: "boat"}, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.filter.Limit = 20
			got, err := feed.ListVisible(ctx, tt.filter, now)
			require.NoError(t, err)
			ids := []string{}
			for _, l := range got {
				ids = append(ids, l.ID)
			}
			assert.ElementsMatch(t, tt.expected, ids)
		})
	}

	page, err := feed.ListVisible(ctx, domain.FeedFilter{Limit: 2, Offset: 2}, now)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}
