package middleware

import (
	"net/http"

	"github.com/iliyamo/petcare-booking/internal/model"
)

// Rule maps a path prefix (relative to the API prefix) to the roles that may
// call anything below it.
type Rule struct {
	Prefix string
	Roles  []model.Role
}

// PublicRoute is a path reachable without a token.  An empty Method
// matches every method.
type PublicRoute struct {
	Method string
	Path   string
}

// DefaultRules is the access table.  Evaluation is first match, so a more
// specific prefix must precede any prefix that shadows it.
func DefaultRules() []Rule {
	return []Rule{
		{Prefix: "/profile", Roles: []model.Role{model.RoleCustomer, model.RoleAdmin}},
		{Prefix: "/pets", Roles: []model.Role{model.RoleCustomer}},
		{Prefix: "/booking", Roles: []model.Role{model.RoleCustomer}},
		{Prefix: "/reception", Roles: []model.Role{model.RoleReceptionist, model.RoleAdmin}},
		{Prefix: "/doctor", Roles: []model.Role{model.RoleDoctor}},
		{Prefix: "/admin", Roles: []model.Role{model.RoleAdmin}},
		{Prefix: "/auth/change-password", Roles: model.AllRoles},
	}
}

// DefaultPublic lists the routes that skip the token check.
func DefaultPublic() []PublicRoute {
	return []PublicRoute{
		{Path: "/auth/login"},
		{Path: "/auth/register"},
		{Path: "/auth/forgot-password"},
		{Path: "/auth/reset-password"},
		{Path: "/auth/refresh"},
		{Path: "/auth/logout"},
		{Path: "/system/health"},
		{Method: http.MethodGet, Path: "/services"},
	}
}
