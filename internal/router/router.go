// Package router wires handlers, middleware and route groups onto Echo.
package router

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/petcare-booking/internal/config"
	"github.com/iliyamo/petcare-booking/internal/handler"
	"github.com/iliyamo/petcare-booking/internal/middleware"
	"github.com/iliyamo/petcare-booking/internal/repository"
	"github.com/iliyamo/petcare-booking/internal/service"
	"github.com/iliyamo/petcare-booking/internal/utils"
	"github.com/iliyamo/petcare-booking/internal/validator"
)

// APIPrefix is the path prefix of every JSON endpoint.
const APIPrefix = "/api"

// Deps is everything New needs.  Redis and Events may be nil; the rate
// limiter and the cache then pass through and events are dropped.
type Deps struct {
	Cfg       config.Config
	DB        *sql.DB
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Events    service.EventPublisher
	Now       func() time.Time // optional clock for the auth flows
}

// New builds the Echo instance with every route and middleware attached.
func New(d Deps) *echo.Echo {
	cfg := d.Cfg
	codec := utils.NewTokenCodec(utils.CodecConfig{
		AccessSecret:  cfg.AccessSecret,
		RefreshSecret: cfg.RefreshSecret,
		Issuer:        cfg.Issuer,
		Audience:      cfg.Audience,
		AccessTTL:     cfg.AccessTTL(),
		RefreshTTL:    cfg.RefreshTTL(),
	})

	users := repository.NewUserRepo(d.DB)
	tokens := repository.NewTokenRepo(d.DB)
	resets := repository.NewResetTokenRepo(d.DB)
	addresses := repository.NewAddressRepo(d.DB)
	pets := repository.NewPetRepo(d.DB)
	services := repository.NewServiceRepo(d.DB)
	slots := repository.NewSlotRepo(d.DB)
	bookings := repository.NewBookingRepo(d.DB)

	authSvc := service.NewAuthService(users, tokens, resets, d.Events, codec, service.OptionsFromConfig(cfg))
	if d.Now != nil {
		authSvc = authSvc.WithClock(d.Now)
	}
	codec = authSvc.Codec()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()
	e.HTTPErrorHandler = errorHandler

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLog())
	e.Use(middleware.Recovery())
	e.Use(middleware.NewGatekeeper(APIPrefix, middleware.DefaultPublic(), middleware.DefaultRules(), codec).Middleware())

	RegisterRoutes(e, cfg.MetricsEnabled)
	RegisterAuth(e, handler.NewAuthHandler(authSvc, cfg.IsProduction(), cfg.RefreshTTL()), codec,
		middleware.NewTokenBucket(d.RateLimit, d.Redis))

	catalog := handler.NewCatalogHandler(services, slots, users, d.Redis, d.Cache.Prefix)
	RegisterCatalog(e, catalog, middleware.NewRedisCache(d.Cache, d.Redis))
	RegisterCustomer(e, codec,
		handler.NewProfileHandler(users, addresses),
		handler.NewPetHandler(pets),
		handler.NewBookingHandler(bookings, pets, services, slots, d.Events))
	RegisterStaff(e, codec, handler.NewBookingHandler(bookings, pets, services, slots, d.Events), catalog)
	RegisterAdmin(e, codec, handler.NewAdminHandler(users, cfg.BcryptCost), catalog)
	return e
}

// RegisterRoutes registers routes that do not require authentication and
// live outside the API groups.
func RegisterRoutes(e *echo.Echo, metrics bool) {
	e.GET("/healthz", handler.Health)
	e.GET(APIPrefix+"/system/health", handler.Health)
	if metrics {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
}

// RegisterAuth registers the /api/auth routes.  Everything but
// change-password is public; limit is applied to the whole group.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, codec *utils.TokenCodec, limit echo.MiddlewareFunc) {
	g := e.Group(APIPrefix+"/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	g.POST("/forgot-password", a.ForgotPassword)
	g.POST("/reset-password", a.ResetPassword)
	g.PUT("/change-password", a.ChangePassword, middleware.JWTAuth(codec))
}

// RegisterCatalog registers the public service list behind the response cache.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, cache echo.MiddlewareFunc) {
	e.GET(APIPrefix+"/services", h.ListPublic, cache)
}

// errorHandler answers errors returned by handlers or middleware (404,
// 405, recovered panics) with the same {"error": ...} body handlers use.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := http.StatusInternalServerError, "internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, echo.Map{"error": msg})
}
