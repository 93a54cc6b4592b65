package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/petcare-booking/internal/config"
	"github.com/iliyamo/petcare-booking/internal/database/dbtest"
	"github.com/iliyamo/petcare-booking/internal/handler"
	"github.com/iliyamo/petcare-booking/internal/queue"
	"github.com/iliyamo/petcare-booking/internal/repository"
	"github.com/iliyamo/petcare-booking/internal/seed"
)

type queuedEvent struct {
	queue string
	event any
}

type memoryPublisher struct {
	mu     sync.Mutex
	events []queuedEvent
}

func (p *memoryPublisher) Publish(_ context.Context, queueName string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, queuedEvent{queueName, event})
	return nil
}

func (p *memoryPublisher) count(queueName string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.queue == queueName {
			n++
		}
	}
	return n
}

type apiClient struct {
	t      *testing.T
	e      *echo.Echo
	events *memoryPublisher
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	db := dbtest.New(t)
	ctx := context.Background()
	now := time.Now().UTC()
	_, err := seed.Admin(ctx, repository.NewUserRepo(db), seed.AdminInput{
		Name: "Root", Email: "admin@petcare.test", Password: "admin-password", BcryptCost: bcrypt.MinCost,
	}, now)
	require.NoError(t, err)
	require.NoError(t, seed.Services(ctx, repository.NewServiceRepo(db), seed.DefaultServices, now))

	events := &memoryPublisher{}
	e := New(Deps{
		Cfg: config.Config{
			Env:             "test",
			AccessSecret:    "access-secret-for-tests",
			RefreshSecret:   "refresh-secret-for-tests",
			Issuer:          "petcare-api",
			Audience:        "petcare-client",
			AccessTTLMin:    15,
			RefreshTTLDays:  7,
			ResetTTLMin:     15,
			BcryptCost:      bcrypt.MinCost,
			RefreshRotation: config.RefreshStatic,
			BaseURL:         "https://petcare.test",
			MetricsEnabled:  true,
		},
		DB:     db,
		Events: events,
	})
	return &apiClient{t: t, e: e, events: events}
}

// do sends a JSON request; token and cookie are optional.
func (a *apiClient) do(method, path string, body any, token string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == handler.RefreshCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", handler.RefreshCookie)
	return nil
}

type loginBody struct {
	AccessToken string `json:"accessToken"`
	User        struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
}

func (a *apiClient) login(email, password string) (loginBody, *http.Cookie) {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/login", echo.Map{"email": email, "password": password}, "")
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[loginBody](a.t, rec), refreshCookie(a.t, rec)
}

func TestHealth(t *testing.T) {
	api := newAPI(t)
	for _, p := range []string{"/healthz", "/api/system/health"} {
		rec := api.do(http.MethodGet, p, nil, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
	}
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/metrics", nil, "").Code)

	rec := api.do(http.MethodGet, "/nowhere", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestCustomerJourney(t *testing.T) {
	api := newAPI(t)

	rec := api.do(http.MethodPost, "/api/auth/register", echo.Map{
		"name": "Ann", "email": "ann@example.com", "password": "password1", "phone": "0123456789",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/api/auth/register", echo.Map{
		"name": "Ann", "email": "ANN@example.com", "password": "password1", "phone": "0999999999",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email", decode[map[string]string](t, rec)["field"])

	rec = api.do(http.MethodPost, "/api/auth/register", echo.Map{"email": "bad"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, cookie := api.login("ann@example.com", "password1")
	assert.Equal(t, "CUSTOMER", body.User.Role)
	assert.True(t, cookie.HttpOnly)
	tok := body.AccessToken

	rec = api.do(http.MethodGet, "/api/pets", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = api.do(http.MethodPost, "/api/pets", echo.Map{"name": "Rex", "species": "dog", "age": 3}, tok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	petID := decode[map[string]any](t, rec)["id"].(string)

	rec = api.do(http.MethodPut, "/api/pets/"+petID, echo.Map{}, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodGet, "/api/services", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	services := decode[[]struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}](t, rec)
	require.Len(t, services, len(seed.DefaultServices))
	assert.Equal(t, "Grooming", services[0].Name)

	rec = api.do(http.MethodPost, "/api/booking", echo.Map{
		"petId":           petID,
		"serviceId":       services[0].ID,
		"bookingDate":     "2026-03-02",
		"bookingTime":     "10:30",
		"transportOption": "PICKUP",
		"details":         echo.Map{"groomingStyle": "short"},
	}, tok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	booking := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1200, booking["totalAmount"])
	assert.Eventually(t, func() bool { return api.events.count(queue.BookingCreatedQueue) == 1 },
		2*time.Second, 10*time.Millisecond)

	rec = api.do(http.MethodPost, "/api/booking", echo.Map{
		"petId": "not-mine", "serviceId": services[0].ID, "bookingDate": "2026-03-02", "bookingTime": "10:30",
	}, tok)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	bookingID := booking["id"].(string)
	assert.Equal(t, http.StatusOK, api.do(http.MethodDelete, "/api/booking/"+bookingID, nil, tok).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodDelete, "/api/booking/"+bookingID, nil, tok).Code)

	rec = api.do(http.MethodGet, "/api/booking/me", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/admin/staff", nil, tok).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/unregistered", nil, tok).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/reception/bookings", nil, tok).Code)

	rec = api.do(http.MethodGet, "/api/pets", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token_missing", decode[map[string]string](t, rec)["code"])

	rec = api.do(http.MethodPost, "/api/auth/refresh", nil, "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[map[string]any](t, rec)["accessToken"])

	rec = api.do(http.MethodPost, "/api/auth/logout", nil, "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, -1, refreshCookie(t, rec).MaxAge)
	assert.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/auth/logout", nil, "", cookie).Code)

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/api/auth/refresh", nil, "", cookie).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/api/auth/refresh", nil, "").Code)
}

func TestForgotPassword_SameAnswer(t *testing.T) {
	api := newAPI(t)
	rec := api.do(http.MethodPost, "/api/auth/register", echo.Map{
		"name": "Ann", "email": "ann@example.com", "password": "password1", "phone": "0123456789",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	known := api.do(http.MethodPost, "/api/auth/forgot-password", echo.Map{"email": "ann@example.com"}, "")
	unknown := api.do(http.MethodPost, "/api/auth/forgot-password", echo.Map{"email": "ghost@example.com"}, "")
	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, known.Code, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
	assert.Contains(t, known.Body.String(), handler.ForgotPasswordMessage)

	assert.Eventually(t, func() bool { return api.events.count(queue.PasswordResetQueue) == 1 },
		2*time.Second, 10*time.Millisecond)

	rec = api.do(http.MethodPost, "/api/auth/reset-password", echo.Map{"token": "bogus", "newPassword": "password2"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangePassword_AnyRole(t *testing.T) {
	api := newAPI(t)
	admin, _ := api.login("admin@petcare.test", "admin-password")

	rec := api.do(http.MethodPut, "/api/auth/change-password",
		echo.Map{"oldPassword": "wrong", "newPassword": "new-password"}, admin.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPut, "/api/auth/change-password",
		echo.Map{"oldPassword": "admin-password", "newPassword": "new-password"}, admin.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	api.login("admin@petcare.test", "new-password")

	rec = api.do(http.MethodPut, "/api/auth/change-password", echo.Map{"oldPassword": "x", "newPassword": "new-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPasswordByteLimit(t *testing.T) {
	api := newAPI(t)
	long := strings.Repeat("é", 40) // 40 runes, 80 bytes

	rec := api.do(http.MethodPost, "/api/auth/register", echo.Map{
		"name": "Ann", "email": "ann@example.com", "password": long, "phone": "0123456789",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"password"`)

	fits := strings.Repeat("é", 36)
	rec = api.do(http.MethodPost, "/api/auth/register", echo.Map{
		"name": "Ann", "email": "ann@example.com", "password": fits, "phone": "0123456789",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ann, _ := api.login("ann@example.com", fits)

	rec = api.do(http.MethodPut, "/api/auth/change-password",
		echo.Map{"oldPassword": fits, "newPassword": long}, ann.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"newPassword"`)

	rec = api.do(http.MethodPost, "/api/auth/reset-password", echo.Map{"token": "some-token", "newPassword": long}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"newPassword"`)

	admin, _ := api.login("admin@petcare.test", "admin-password")
	rec = api.do(http.MethodPost, "/api/admin/staff", echo.Map{
		"name": "Doc", "email": "doc@petcare.test", "password": long, "role": "DOCTOR",
	}, admin.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestAdminStaffLifecycle(t *testing.T) {
	api := newAPI(t)
	admin, _ := api.login("admin@petcare.test", "admin-password")
	tok := admin.AccessToken

	staff := echo.Map{"name": "Dr Vet", "email": "vet@petcare.test", "password": "doctor-pass", "role": "DOCTOR"}
	rec := api.do(http.MethodPost, "/api/admin/staff", staff, tok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	docID := decode[map[string]any](t, rec)["id"].(string)

	assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, "/api/admin/staff", staff, tok).Code)

	rec = api.do(http.MethodGet, "/api/admin/staff?role=DOCTOR", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	doctor, doctorCookie := api.login("vet@petcare.test", "doctor-pass")
	rec = api.do(http.MethodGet, "/api/doctor/slots", nil, doctor.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/pets", nil, doctor.AccessToken).Code)

	assert.Equal(t, http.StatusOK, api.do(http.MethodPut, "/api/admin/staff/"+docID+"/disable", nil, tok).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPut, "/api/admin/staff/"+docID+"/disable", nil, tok).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/admin/staff/"+docID, nil, tok).Code)

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/api/auth/refresh", nil, "", doctorCookie).Code)
	rec = api.do(http.MethodPost, "/api/auth/login", echo.Map{"email": "vet@petcare.test", "password": "doctor-pass"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodGet, "/api/admin/customers", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/reception/bookings?date=2026-13-01", nil, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
