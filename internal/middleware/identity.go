package middleware

// identity.go keeps the caller identity in the Echo context under the
// "user_id" and "role" keys.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/petcare-booking/internal/model"
)

// SetIdentity stores id in c.
func SetIdentity(c echo.Context, id Identity) {
	c.Set("user_id", id.UserID)
	c.Set("role", id.Role)
}

// CurrentIdentity returns the identity stored by JWTAuth.
func CurrentIdentity(c echo.Context) (Identity, bool) {
	uid, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(model.Role)
	if uid == "" || role == "" {
		return Identity{}, false
	}
	return Identity{UserID: uid, Role: role}, true
}

// currentUserID returns the caller id or "anon" for rate limit keys.
func currentUserID(c echo.Context) string {
	if id, ok := CurrentIdentity(c); ok {
		return id.UserID
	}
	return "anon"
}
