package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dermaline/clinic-platform/internal/appointments"
	"github.com/dermaline/clinic-platform/internal/http/handlers"
	"github.com/dermaline/clinic-platform/internal/intent"
	"github.com/dermaline/clinic-platform/internal/messagelog"
	"github.com/dermaline/clinic-platform/internal/pending"
	"github.com/dermaline/clinic-platform/internal/webhook"
)

// Minimal stubs so a booking message can travel the full route.

type stubLog struct{}

func (stubLog) Append(ctx context.Context, entry *messagelog.Entry) error { return nil }
func (stubLog) LatestOutbound(ctx context.Context, phoneVariants []string) (*messagelog.Entry, error) {
	return nil, messagelog.ErrNotFound
}
func (stubLog) LatestByTag(ctx context.Context, phoneVariants []string, direction, tag string) (*messagelog.Entry, error) {
	return nil, messagelog.ErrNotFound
}

type stubAppts struct{}

func (stubAppts) Insert(ctx context.Context, appt *appointments.Appointment) (*appointments.Appointment, error) {
	stored := *appt
	stored.ID = uuid.New()
	return &stored, nil
}
func (stubAppts) GetByID(ctx context.Context, id uuid.UUID) (*appointments.Appointment, error) {
	return nil, appointments.ErrNotFound
}
func (stubAppts) UpdateFields(ctx context.Context, id uuid.UUID, updates appointments.FieldUpdates) error {
	return nil
}
func (stubAppts) SetConfirmation(ctx context.Context, id uuid.UUID, confirmation string) error {
	return nil
}
func (stubAppts) HasRecentDuplicate(ctx context.Context, patientName, date, timeStr string, window time.Duration) (bool, error) {
	return false, nil
}
func (stubAppts) FindActiveByPhone(ctx context.Context, phoneVariants []string, todayISO string) (*appointments.Appointment, error) {
	return nil, appointments.ErrNotFound
}
func (stubAppts) FindNearestUpcoming(ctx context.Context, phoneVariants []string, todayISO string) (*appointments.Appointment, error) {
	return nil, appointments.ErrNotFound
}
func (stubAppts) ReplaceActive(ctx context.Context, oldID uuid.UUID, replacement *appointments.Appointment) (*appointments.Appointment, error) {
	return nil, appointments.ErrNotFound
}

type stubPending struct{}

func (stubPending) Create(ctx context.Context, req *pending.Request) (*pending.Request, error) {
	req.ID = uuid.New()
	return req, nil
}

type stubRequests struct{}

func (stubRequests) ListOpen(ctx context.Context, limit int) ([]*pending.Request, error) {
	return nil, nil
}

type stubMessages struct{}

func (stubMessages) RecentByPhone(ctx context.Context, phoneVariants []string, limit int) ([]*messagelog.Entry, error) {
	return nil, nil
}

func testRouter(t *testing.T, secret string) http.Handler {
	t.Helper()
	orch := webhook.NewOrchestrator(webhook.Deps{
		Log:        stubLog{},
		Appts:      stubAppts{},
		Requests:   stubPending{},
		Classifier: intent.NewService(nil, nil),
	}, webhook.Settings{OpenHour: 10, CloseHour: 22, CountryCode: "60"})

	return New(&Config{
		WebhookHandler: webhook.NewHandler(orch, nil, nil),
		HealthHandler:  handlers.NewHealthHandler(nil, "test"),
		AdminHandler:   handlers.NewAdminHandler(stubRequests{}, stubMessages{}, "60", nil),
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
		AdminJWTSecret: secret,
	})
}

func TestRouterHealth(t *testing.T) {
	r := testRouter(t, "secret")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterMetrics(t *testing.T) {
	r := testRouter(t, "secret")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterWebhookPost(t *testing.T) {
	r := testRouter(t, "secret")
	body := `{"senderPhone":"+60123456789","messageText":"hello there"}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
}

func TestRouterWebhookPreflight(t *testing.T) {
	r := testRouter(t, "secret")
	req := httptest.NewRequest(http.MethodOptions, "/webhooks/whatsapp", nil)
	req.Header.Set("Origin", "https://gateway.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://gateway.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterAdminRequiresJWT(t *testing.T) {
	r := testRouter(t, "secret")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/pending-requests", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	claims := jwt.RegisteredClaims{
		Subject:   "front-desk",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/pending-requests", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
