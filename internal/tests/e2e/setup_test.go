package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/app"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/config"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/mocks"
)

const adminPhone = "+971500000001"

// TestSuite runs the whole service over a temporary SQLite file and miniredis
type TestSuite struct {
	t         *testing.T
	Config    *config.Config
	Container *app.Container
	Server    *httptest.Server
	Redis     *miniredis.Miniredis
	SMS       *mocks.MockSMSSender
	Gateway   *mocks.MockPaymentGateway
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Port:              "0",
		GinMode:           gin.TestMode,
		Env:               "test",
		BaseURL:           "https://saman.test/",
		LogLevel:          "error",
		DSN:               "sqlite://" + filepath.Join(t.TempDir(), "e2e.db"),
		JWTSecret:         "e2e-secret",
		JWTIssuer:         "saman-e2e",
		AccessTTL:         15 * time.Minute,
		RefreshTTL:        24 * time.Hour,
		OTP_TTL:           5 * time.Minute,
		OTP_Length:        6,
		OTP_MaxAttempts:   3,
		OTP_ResendWindow:  time.Minute,
		ListingLifetime:   30 * 24 * time.Hour,
		RenewWindow:       7 * 24 * time.Hour,
		RejectedRetention: 7 * 24 * time.Hour,
		ExpiryWarning:     24 * time.Hour,
		CreditsEnabled:    true,
		AdminPhones:       []string{adminPhone},
		SweepSchedule:     "@hourly",
		SweepLockTTL:      time.Minute,
		TelrTimeout:       time.Second,
		CheckoutTTL:       time.Hour,
		ReconcileAfter:    30 * time.Minute,
		RateLimitRPS:      1000,
		RateLimitBurst:    1000,
		RateLimitIdleTTL:  time.Minute,
		MetricsPrefix:     "e2e",
	}
}

func NewTestSuite(t *testing.T) *TestSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	s := &TestSuite{
		t:       t,
		Config:  testConfig(t),
		Redis:   mr,
		SMS:     mocks.NewMockSMSSender(),
		Gateway: mocks.NewMockPaymentGateway(),
	}

	c, err := app.NewContainer(s.Config, zap.NewNop(),
		app.WithRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()})),
		app.WithSMSSender(s.SMS),
		app.WithGateway(s.Gateway),
	)
	require.NoError(t, err)
	s.Container = c
	s.Server = httptest.NewServer(c.Handler)

	t.Cleanup(func() {
		s.Server.Close()
		c.Wait()
		_ = c.Close()
	})
	return s
}

// Response is a decoded API reply
type Response struct {
	Status int
	Body   map[string]interface{}
}

// Data returns the "data" object of a successful reply
func (r Response) Data() map[string]interface{} {
	d, _ := r.Body["data"].(map[string]interface{})
	return d
}

// List returns the "data" array of a successful reply
func (r Response) List() []interface{} {
	l, _ := r.Body["data"].([]interface{})
	return l
}

func (s *TestSuite) Do(method, path, token string, body interface{}) Response {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.Server.URL+path, &buf)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Server.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	out := Response{Status: resp.StatusCode, Body: map[string]interface{}{}}
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&out.Body)
	}
	return out
}

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

// Login runs the OTP flow for phone and returns the access token and user id
func (s *TestSuite) Login(phone string) (string, uint) {
	s.t.Helper()

	resp := s.Do(http.MethodPost, "/auth/otp/send", "", map[string]string{"phone": phone})
	require.Equal(s.t, http.StatusOK, resp.Status, resp.Body)

	var code string
	for _, m := range s.SMS.Sent() {
		if m.To == phone {
			if match := codePattern.FindStringSubmatch(m.Message); match != nil {
				code = match[1]
			}
		}
	}
	require.NotEmpty(s.t, code, "no code texted to %s", phone)

	resp = s.Do(http.MethodPost, "/auth/otp/verify", "", map[string]string{"phone": phone, "code": code})
	require.Equal(s.t, http.StatusOK, resp.Status, resp.Body)

	data := resp.Data()
	user := data["user"].(map[string]interface{})
	return data["access_token"].(string), uint(user["id"].(float64))
}

func ids(list []interface{}) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]interface{}); ok {
			if id, ok := m["id"].(string); ok {
				out = append(out, id)
			}
		}
	}
	return out
}
