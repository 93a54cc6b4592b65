package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/petcare-booking/internal/model"
	"github.com/iliyamo/petcare-booking/internal/utils"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func testCodec() *utils.TokenCodec {
	return utils.NewTokenCodec(utils.CodecConfig{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		Issuer:        "petcare-api",
		Audience:      "petcare-client",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	}).WithClock(func() time.Time { return testNow })
}

func bearer(t *testing.T, codec *utils.TokenCodec, role model.Role) string {
	t.Helper()
	tok, err := codec.SignAccessToken("user-"+string(role), string(role))
	require.NoError(t, err)
	return "Bearer " + tok.Value
}

// gatekeeperServer puts the gatekeeper in front of a catch-all handler so
// every path that passes it answers 200.
func gatekeeperServer(codec *utils.TokenCodec) *echo.Echo {
	e := echo.New()
	e.Use(NewGatekeeper("/api", DefaultPublic(), DefaultRules(), codec).Middleware())
	e.Any("/*", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	return e
}

func TestGatekeeper_Decisions(t *testing.T) {
	codec := testCodec()
	e := gatekeeperServer(codec)

	tests := []struct {
		name   string
		method string
		path   string
		role   model.Role // empty: no token
		want   int
	}{
		{"public login", http.MethodPost, "/api/auth/login", "", http.StatusOK},
		{"public health", http.MethodGet, "/api/system/health", "", http.StatusOK},
		{"public service list", http.MethodGet, "/api/services", "", http.StatusOK},
		{"service list is GET only", http.MethodPost, "/api/services", model.RoleCustomer, http.StatusForbidden},
		{"outside api prefix", http.MethodGet, "/healthz", "", http.StatusOK},
		{"protected without token", http.MethodGet, "/api/pets", "", http.StatusUnauthorized},
		{"customer pets", http.MethodGet, "/api/pets", model.RoleCustomer, http.StatusOK},
		{"customer pet by id", http.MethodGet, "/api/pets/42", model.RoleCustomer, http.StatusOK},
		{"doctor pets", http.MethodGet, "/api/pets", model.RoleDoctor, http.StatusForbidden},
		{"segment boundary", http.MethodGet, "/api/petshop", model.RoleCustomer, http.StatusForbidden},
		{"admin profile", http.MethodGet, "/api/profile", model.RoleAdmin, http.StatusOK},
		{"customer admin", http.MethodGet, "/api/admin/staff", model.RoleCustomer, http.StatusForbidden},
		{"admin admin", http.MethodGet, "/api/admin/staff", model.RoleAdmin, http.StatusOK},
		{"receptionist reception", http.MethodGet, "/api/reception/bookings", model.RoleReceptionist, http.StatusOK},
		{"admin reception", http.MethodGet, "/api/reception/bookings", model.RoleAdmin, http.StatusOK},
		{"doctor doctor", http.MethodGet, "/api/doctor/slots", model.RoleDoctor, http.StatusOK},
		{"any role change password", http.MethodPut, "/api/auth/change-password", model.RoleDoctor, http.StatusOK},
		{"unlisted path", http.MethodGet, "/api/unregistered", model.RoleAdmin, http.StatusForbidden},
		{"dot segments cleaned", http.MethodGet, "/api/auth/login/../../admin/staff", model.RoleCustomer, http.StatusForbidden},
		{"trailing slash", http.MethodGet, "/api/pets/", model.RoleCustomer, http.StatusOK},
		{"encoded traversal onto public path", http.MethodGet, "/api/admin/staff/..%2F..%2Fauth%2Flogin", "", http.StatusForbidden},
		{"encoded traversal with token", http.MethodGet, "/api/admin/staff/..%2F..%2Fauth%2Flogin", model.RoleAdmin, http.StatusForbidden},
		{"encoded dot segments", http.MethodGet, "/api/services/%2e%2e/admin/staff", "", http.StatusForbidden},
		{"encoded traversal into api", http.MethodGet, "/static/..%2Fapi%2Fadmin%2Fstaff", "", http.StatusForbidden},
		{"doubled slash", http.MethodGet, "/api//auth/login", "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.role != "" {
				req.Header.Set("Authorization", bearer(t, codec, tt.role))
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestGatekeeper_UnauthorizedCodes(t *testing.T) {
	codec := testCodec()
	e := gatekeeperServer(codec)

	expired, err := codec.WithClock(func() time.Time { return testNow.Add(-time.Hour) }).
		SignAccessToken("user-1", string(model.RoleCustomer))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing", "", "token_missing"},
		{"wrong scheme", "Basic abc", "token_missing"},
		{"garbage", "Bearer garbage", "token_invalid"},
		{"expired", "Bearer " + expired.Value, "token_expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/pets", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "unauthorized", body["error"])
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestGatekeeper_UnknownRoleIsInvalid(t *testing.T) {
	codec := testCodec()
	tok, err := codec.SignAccessToken("user-1", "SUPERUSER")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/pets", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Value)
	_, err = NewGatekeeper("/api", DefaultPublic(), DefaultRules(), codec).Check(req)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestGatekeeper_FirstMatchWins(t *testing.T) {
	rules := []Rule{
		{Prefix: "/admin/reports", Roles: []model.Role{model.RoleReceptionist}},
		{Prefix: "/admin", Roles: []model.Role{model.RoleAdmin}},
	}
	g := NewGatekeeper("/api/", nil, rules, testCodec())
	assert.Equal(t, []model.Role{model.RoleReceptionist}, g.AllowedRoles("/admin/reports/daily"))
	assert.Equal(t, []model.Role{model.RoleAdmin}, g.AllowedRoles("/admin/staff"))
	assert.Nil(t, g.AllowedRoles("/administration"))
}

func TestGatekeeper_CheckUsesRoutedPath(t *testing.T) {
	g := NewGatekeeper("/api", DefaultPublic(), DefaultRules(), testCodec())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/staff/..%2F..%2Fauth%2Flogin", nil)
	require.Equal(t, "/api/admin/staff/../../auth/login", req.URL.Path)
	_, err := g.Check(req)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = g.Check(httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	assert.NoError(t, err)
}

func TestCanonical(t *testing.T) {
	assert.True(t, canonical("/api/pets"))
	assert.True(t, canonical("/api/pets/"))
	assert.True(t, canonical("/"))
	assert.False(t, canonical("/api/pets/../admin"))
	assert.False(t, canonical("/api/./pets"))
	assert.False(t, canonical("/api//pets"))
	assert.False(t, canonical("/api/pets/..%2Fadmin"))
	assert.False(t, canonical("/api/pets/%2E%2E/admin"))
	assert.False(t, canonical("/api/pets%5c..%5cadmin"))
}

func TestMatchPrefix(t *testing.T) {
	assert.True(t, matchPrefix("/pets", "/pets"))
	assert.True(t, matchPrefix("/pets/1", "/pets"))
	assert.False(t, matchPrefix("/petshop", "/pets"))
	assert.False(t, matchPrefix("/pet", "/pets"))
}
