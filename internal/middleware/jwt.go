package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/petcare-booking/internal/model"
	"github.com/iliyamo/petcare-booking/internal/utils"
)

// Request authentication failures.  All three are answered with 401; the
// code in the body tells a client whether refreshing can help.
var (
	ErrTokenMissing = errors.New("token missing")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// Identity is the authenticated caller decoded from an access token.
type Identity struct {
	UserID string
	Role   model.Role
}

// BearerToken extracts the credential of an "Authorization: Bearer <token>"
// header.  ok is false when the header is absent or malformed.
func BearerToken(r *http.Request) (string, bool) {
	scheme, tok, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	if tok == "" || strings.ContainsAny(tok, " \t") {
		return "", false
	}
	return tok, true
}

// Authenticate verifies the bearer access token of r.  It returns
// ErrTokenMissing, ErrTokenInvalid or ErrTokenExpired on failure.
func Authenticate(r *http.Request, codec *utils.TokenCodec) (Identity, error) {
	raw, ok := BearerToken(r)
	if !ok {
		return Identity{}, ErrTokenMissing
	}
	claims, err := codec.VerifyAccessToken(raw)
	switch {
	case err == nil:
	case errors.Is(err, utils.ErrTokenExpired):
		return Identity{}, ErrTokenExpired
	default:
		return Identity{}, ErrTokenInvalid
	}
	role := model.Role(claims.Role)
	if !role.Valid() {
		return Identity{}, ErrTokenInvalid
	}
	return Identity{UserID: claims.Subject, Role: role}, nil
}

// TokenErrorCode is the machine-readable code sent with a 401.
func TokenErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrTokenMissing):
		return "token_missing"
	default:
		return "token_invalid"
	}
}

// Unauthorized writes the 401 body for an authentication failure.
func Unauthorized(c echo.Context, err error) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "code": TokenErrorCode(err)})
}

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and stores the caller's identity in the context.  It runs on every
// protected route group even though the gatekeeper already checked the
// token, so a route missing from the gatekeeper table is still protected.
func JWTAuth(codec *utils.TokenCodec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := Authenticate(c.Request(), codec)
			if err != nil {
				return Unauthorized(c, err)
			}
			SetIdentity(c, id)
			return next(c)
		}
	}
}
