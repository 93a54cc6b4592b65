package middleware

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/petcare-booking/internal/metrics"
	"github.com/iliyamo/petcare-booking/internal/model"
	"github.com/iliyamo/petcare-booking/internal/utils"
)

// ErrForbidden is returned by Gatekeeper.Check when the path is not in the
// table or the caller's role is not allowed for it.
var ErrForbidden = errors.New("forbidden")

// Gatekeeper is the coarse access filter in front of every API route.  It
// only looks at the path, the method and the bearer token; handlers still
// check roles themselves.
type Gatekeeper struct {
	apiPrefix string
	public    []PublicRoute
	rules     []Rule
	codec     *utils.TokenCodec
}

// NewGatekeeper builds a gatekeeper for paths under apiPrefix (e.g. "/api").
func NewGatekeeper(apiPrefix string, public []PublicRoute, rules []Rule, codec *utils.TokenCodec) *Gatekeeper {
	return &Gatekeeper{
		apiPrefix: strings.TrimRight(apiPrefix, "/"),
		public:    public,
		rules:     rules,
		codec:     codec,
	}
}

// matchPrefix reports whether p equals prefix or lies below it on a path
// segment boundary: "/pets" matches "/pets" and "/pets/1", not "/petshop".
func matchPrefix(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// relative returns the path below the API prefix, or ok=false when the
// request is outside it.
func (g *Gatekeeper) relative(raw string) (string, bool) {
	p := path.Clean("/" + raw)
	if !matchPrefix(p, g.apiPrefix) {
		return "", false
	}
	return strings.TrimPrefix(p, g.apiPrefix), true
}

// canonical reports whether p, as the router will see it, has no dot
// segments, doubled slashes or percent-encoded separators and dots.  A
// single trailing slash is allowed.
func canonical(p string) bool {
	trimmed := p
	if len(p) > 1 {
		trimmed = strings.TrimSuffix(p, "/")
	}
	if path.Clean(trimmed) != trimmed {
		return false
	}
	lower := strings.ToLower(p)
	for _, enc := range []string{"%2f", "%5c", "%2e"} {
		if strings.Contains(lower, enc) {
			return false
		}
	}
	return !strings.Contains(p, "\\")
}

func (g *Gatekeeper) isPublic(method, rel string) bool {
	for _, pr := range g.public {
		if rel == pr.Path && (pr.Method == "" || pr.Method == method) {
			return true
		}
	}
	return false
}

// rule returns the first table entry covering rel.
func (g *Gatekeeper) rule(rel string) (Rule, bool) {
	for _, r := range g.rules {
		if matchPrefix(rel, r.Prefix) {
			return r, true
		}
	}
	return Rule{}, false
}

// Check decides on r.  It returns nil to allow, ErrTokenMissing,
// ErrTokenInvalid or ErrTokenExpired for 401, and ErrForbidden for 403.
// Non-canonical API paths are refused before any token is looked at.
// A verified identity is returned when a token was checked.
func (g *Gatekeeper) Check(r *http.Request) (Identity, error) {
	// decide on the same path echo routes on: RawPath when set
	routed := echo.GetPath(r)
	rel, inAPI := g.relative(routed)
	if !inAPI {
		if _, decodedInAPI := g.relative(r.URL.Path); !decodedInAPI || canonical(routed) {
			return Identity{}, nil
		}
		return Identity{}, ErrForbidden
	}
	if !canonical(routed) {
		return Identity{}, ErrForbidden
	}
	if g.isPublic(r.Method, rel) {
		return Identity{}, nil
	}
	id, err := Authenticate(r, g.codec)
	if err != nil {
		return Identity{}, err
	}
	rule, ok := g.rule(rel)
	if !ok {
		return id, ErrForbidden
	}
	for _, role := range rule.Roles {
		if role == id.Role {
			return id, nil
		}
	}
	return id, ErrForbidden
}

// Middleware runs Check before routing.  Register it with e.Pre or e.Use so
// it also covers paths that have no route.
func (g *Gatekeeper) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := g.Check(c.Request())
			switch {
			case err == nil:
				metrics.GatekeeperDecision("allow")
				return next(c)
			case errors.Is(err, ErrForbidden):
				metrics.GatekeeperDecision("forbidden")
				log.Warn().Str("user_id", id.UserID).Str("role", string(id.Role)).
					Str("method", c.Request().Method).Str("path", c.Request().URL.Path).
					Msg("gatekeeper: access denied")
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			default:
				metrics.GatekeeperDecision("unauthorized")
				return Unauthorized(c, err)
			}
		}
	}
}

// AllowedRoles returns the roles of the first rule covering the given API
// relative path, for diagnostics and tests.
func (g *Gatekeeper) AllowedRoles(rel string) []model.Role {
	if r, ok := g.rule(rel); ok {
		return r.Roles
	}
	return nil
}
