package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/petcare-booking/internal/middleware"
	"github.com/iliyamo/petcare-booking/internal/repository"
	"github.com/iliyamo/petcare-booking/internal/service"
	"github.com/iliyamo/petcare-booking/internal/validator"
)

// badRequest is a client error whose text is safe to return.
type badRequest string

func (e badRequest) Error() string { return string(e) }

// forbidden is a 403 whose text is safe to return.
type forbidden string

func (e forbidden) Error() string { return string(e) }

var errInvalidBody = badRequest("invalid request body")

// httpError writes the response for err.  Known errors map to their
// status; anything else is logged and answered with a generic 500.
func httpError(c echo.Context, err error) error {
	var (
		verr     *validator.ValidationError
		conflict *repository.ConflictError
		bad      badRequest
		denied   forbidden
	)
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": verr.Fields})
	case errors.As(err, &bad):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": bad.Error()})
	case errors.As(err, &denied):
		return c.JSON(http.StatusForbidden, echo.Map{"error": denied.Error()})
	case errors.Is(err, middleware.ErrTokenMissing),
		errors.Is(err, middleware.ErrTokenInvalid),
		errors.Is(err, middleware.ErrTokenExpired):
		return middleware.Unauthorized(c, err)
	case errors.Is(err, middleware.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrRefreshMissing),
		errors.Is(err, service.ErrRefreshInvalid),
		errors.Is(err, service.ErrRefreshRevoked),
		errors.Is(err, service.ErrRefreshExpired),
		errors.Is(err, service.ErrUserInactive):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidOrExpiredResetToken),
		errors.Is(err, service.ErrWrongPassword):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": conflict.Error(), "field": conflict.Field})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	log.Error().Err(err).Str("method", c.Request().Method).Str("path", c.Request().URL.Path).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}

// bindValid binds the JSON body into req and validates it.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errInvalidBody
	}
	return c.Validate(req)
}

// caller returns the identity stored by the route's JWTAuth middleware.
func caller(c echo.Context) (middleware.Identity, error) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return middleware.Identity{}, middleware.ErrTokenMissing
	}
	return id, nil
}
