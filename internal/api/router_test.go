package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pawsuite/reserve/internal/api"
	mw "github.com/pawsuite/reserve/internal/api/middleware"
	"github.com/pawsuite/reserve/pkg/models"
	"github.com/stretchr/testify/assert"
)

type staticResolver struct{ tenant *models.Tenant }

func (s *staticResolver) Resolve(context.Context, string) (*models.Tenant, error) {
	return s.tenant, nil
}

type nopCache struct{}

func (nopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (nopCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (nopCache) Delete(context.Context, string) error                     { return nil }
func (nopCache) Ping(context.Context) error                               { return nil }
func (nopCache) IncrWithExpiry(context.Context, string, time.Duration) (int64, error) {
	return 1, nil
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func testRouter() http.Handler {
	active := &models.Tenant{ID: uuid.New(), Handle: "sunnypaws", Status: models.TenantStatusActive}
	return api.NewRouter(api.Dependencies{
		Tenant:    mw.NewTenant(&staticResolver{tenant: active}),
		RateLimit: mw.NewRateLimit(nopCache{}, 100),

		Health: okHandler,

		CreateReservation:  okHandler,
		GetReservation:     okHandler,
		ListReservations:   okHandler,
		ModifyReservation:  okHandler,
		CancelReservation:  okHandler,
		CheckIn:            okHandler,
		CheckOut:           okHandler,
		ReservationHistory: okHandler,

		ListResources:  okHandler,
		CreateResource: okHandler,
		Availability:   okHandler,
		Import:         okHandler,

		TenantStatus: okHandler,
	})
}

func TestRouter_HealthIsPublic(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Host = "localhost:8080" // no tenant anywhere

	testRouter().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ReservationRoutesRequireTenant(t *testing.T) {
	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/reservations"},
		{http.MethodGet, "/api/v1/reservations"},
		{http.MethodGet, "/api/v1/reservations/" + uuid.NewString()},
		{http.MethodPatch, "/api/v1/reservations/" + uuid.NewString()},
		{http.MethodPost, "/api/v1/reservations/" + uuid.NewString() + "/cancel"},
		{http.MethodPost, "/api/v1/reservations/" + uuid.NewString() + "/check-in"},
		{http.MethodPost, "/api/v1/reservations/" + uuid.NewString() + "/check-out"},
		{http.MethodGet, "/api/v1/reservations/" + uuid.NewString() + "/history"},
		{http.MethodGet, "/api/v1/resources"},
		{http.MethodPost, "/api/v1/resources"},
		{http.MethodGet, "/api/v1/availability"},
		{http.MethodPost, "/api/v1/import"},
		{http.MethodPut, "/api/v1/admin/tenants/" + uuid.NewString() + "/status"},
	}
	router := testRouter()

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(route.method, route.path, nil)
			req.Host = "localhost:8080"
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRouter_ResolvedTenantReachesHandlers(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations", nil)
	req.Header.Set(mw.TenantHeader, "sunnypaws")

	testRouter().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil)
	req.Header.Set(mw.TenantHeader, "sunnypaws")

	testRouter().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
