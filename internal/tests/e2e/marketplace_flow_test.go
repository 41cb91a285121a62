package e2e

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cruiser() map[string]interface{} {
	return map[string]interface{}{
		"title":        "Land Cruiser 2019",
		"description":  "Single owner, full service history",
		"category":     "automotive",
		"sub_category": "suv",
		"price":        185000,
		"year":         2019,
		"images":       []string{"https://cdn.saman.test/lc-1.jpg"},
	}
}

func TestListingLifecycle(t *testing.T) {
	s := NewTestSuite(t)
	admin, _ := s.Login(adminPhone)
	seller, sellerID := s.Login("+971500000002")

	// posting costs an automotive credit the seller does not have yet
	resp := s.Do(http.MethodPost, "/listings", seller, cruiser())
	require.Equal(t, http.StatusPaymentRequired, resp.Status, resp.Body)

	resp = s.Do(http.MethodPost, "/admin/credits/grant", admin, map[string]interface{}{
		"user_id": sellerID, "category": "automotive", "amount": 1,
	})
	require.Equal(t, http.StatusCreated, resp.Status, resp.Body)

	resp = s.Do(http.MethodPost, "/listings", seller, cruiser())
	require.Equal(t, http.StatusCreated, resp.Status, resp.Body)
	listingID := resp.Data()["id"].(string)
	assert.Equal(t, "pending", resp.Data()["status"])

	resp = s.Do(http.MethodGet, "/me/credits", seller, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, float64(0), resp.Data()["automotive_credits"])

	// pending listings stay off the feed and are hidden from strangers
	resp = s.Do(http.MethodGet, "/listings", "", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.NotContains(t, ids(resp.List()), listingID)
	assert.Equal(t, http.StatusNotFound, s.Do(http.MethodGet, "/listings/"+listingID, "", nil).Status)
	assert.Equal(t, http.StatusOK, s.Do(http.MethodGet, "/listings/"+listingID, seller, nil).Status)

	// sellers cannot moderate
	assert.Equal(t, http.StatusForbidden, s.Do(http.MethodPost, "/admin/listings/"+listingID+"/approve", seller, nil).Status)

	resp = s.Do(http.MethodGet, "/admin/listings/pending", admin, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, ids(resp.List()), listingID)

	resp = s.Do(http.MethodPost, "/admin/listings/"+listingID+"/approve", admin, nil)
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	assert.Equal(t, "approved", resp.Data()["status"])
	assert.NotNil(t, resp.Data()["expires_at"])

	// a second approval loses
	resp = s.Do(http.MethodPost, "/admin/listings/"+listingID+"/approve", admin, nil)
	assert.Equal(t, http.StatusConflict, resp.Status)

	resp = s.Do(http.MethodGet, "/listings?category=automotive&q=cruiser", "", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, []string{listingID}, ids(resp.List()))

	resp = s.Do(http.MethodGet, "/listings?category=automotive&sub_category=engine", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	// renewal is only possible close to expiry
	resp = s.Do(http.MethodPost, "/listings/"+listingID+"/renew", seller, nil)
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.Equal(t, "renew_not_allowed", resp.Body["code"])

	resp = s.Do(http.MethodGet, "/notifications?unread=true", seller, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	types := map[string]bool{}
	for _, n := range resp.List() {
		types[n.(map[string]interface{})["type"].(string)] = true
	}
	assert.True(t, types["listing_approved"])
	assert.True(t, types["credits_added"])

	resp = s.Do(http.MethodPost, "/notifications/read-all", seller, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	resp = s.Do(http.MethodGet, "/notifications/unread-count", seller, nil)
	assert.Equal(t, float64(0), resp.Data()["unread"])

	resp = s.Do(http.MethodPost, "/listings/"+listingID+"/sold", seller, nil)
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	assert.Equal(t, "sold", resp.Data()["status"])

	resp = s.Do(http.MethodGet, "/listings", "", nil)
	assert.NotContains(t, ids(resp.List()), listingID)

	// editing a sold listing is refused
	resp = s.Do(http.MethodPut, "/listings/"+listingID, seller, cruiser())
	assert.Equal(t, http.StatusConflict, resp.Status)
}

func TestRejectionRefundsCredit(t *testing.T) {
	s := NewTestSuite(t)
	admin, _ := s.Login(adminPhone)
	seller, sellerID := s.Login("+971500000003")

	resp := s.Do(http.MethodPost, "/admin/credits/grant", admin, map[string]interface{}{
		"user_id": sellerID, "category": "automotive", "amount": 1,
	})
	require.Equal(t, http.StatusCreated, resp.Status, resp.Body)

	resp = s.Do(http.MethodPost, "/listings", seller, cruiser())
	require.Equal(t, http.StatusCreated, resp.Status, resp.Body)
	listingID := resp.Data()["id"].(string)

	resp = s.Do(http.MethodPost, "/admin/listings/"+listingID+"/reject", admin, map[string]string{"reason": "blurry photos"})
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	assert.Equal(t, "rejected", resp.Data()["status"])
	assert.Equal(t, "blurry photos", resp.Data()["rejection_reason"])

	resp = s.Do(http.MethodGet, "/me/credits", seller, nil)
	assert.Equal(t, float64(1), resp.Data()["automotive_credits"])

	// fixing the listing sends it back to review without a new charge
	resp = s.Do(http.MethodPut, "/listings/"+listingID, seller, cruiser())
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	assert.Equal(t, "pending", resp.Data()["status"])
	assert.Equal(t, "", resp.Data()["rejection_reason"])

	resp = s.Do(http.MethodGet, "/me/credits", seller, nil)
	assert.Equal(t, float64(1), resp.Data()["automotive_credits"])
}

func TestCreditsToggle(t *testing.T) {
	s := NewTestSuite(t)
	admin, _ := s.Login(adminPhone)
	seller, _ := s.Login("+971500000004")

	resp := s.Do(http.MethodPut, "/admin/settings/credits", admin, map[string]bool{"enabled": false})
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)

	resp = s.Do(http.MethodPost, "/listings", seller, cruiser())
	require.Equal(t, http.StatusCreated, resp.Status, resp.Body)
	assert.Equal(t, false, resp.Data()["credit_charged"])

	resp = s.Do(http.MethodGet, "/me/credits", seller, nil)
	assert.Equal(t, false, resp.Data()["credits_enabled"])
}

func TestSessionLifecycle(t *testing.T) {
	s := NewTestSuite(t)
	token, userID := s.Login("+971500000005")

	resp := s.Do(http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	assert.Equal(t, float64(userID), resp.Data()["id"])
	assert.Equal(t, "user", resp.Data()["role"])

	resp = s.Do(http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)

	resp = s.Do(http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
}

func TestBroadcast(t *testing.T) {
	s := NewTestSuite(t)
	admin, _ := s.Login(adminPhone)
	var users []string
	for i := 0; i < 3; i++ {
		token, _ := s.Login(fmt.Sprintf("+97150000010%d", i))
		users = append(users, token)
	}

	resp := s.Do(http.MethodPost, "/admin/notifications/broadcast", admin, map[string]string{
		"title": "Eid sale", "message": "Half price credits this week",
	})
	require.Equal(t, http.StatusAccepted, resp.Status, resp.Body)
	assert.Equal(t, float64(4), resp.Data()["recipients"])

	s.Container.Wait()
	for _, token := range users {
		resp = s.Do(http.MethodGet, "/notifications", token, nil)
		require.Len(t, resp.List(), 1)
		assert.Equal(t, "broadcast", resp.List()[0].(map[string]interface{})["type"])
	}
}

func TestSweepRunsAgainstRealStores(t *testing.T) {
	s := NewTestSuite(t)

	report, err := s.Container.SweepSvc.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.Zero(t, report.ExpiredDeleted)
}
