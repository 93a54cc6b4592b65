package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/petcare-booking/internal/handler"
	"github.com/iliyamo/petcare-booking/internal/middleware"
	"github.com/iliyamo/petcare-booking/internal/model"
	"github.com/iliyamo/petcare-booking/internal/utils"
)

// RegisterCustomer registers the profile, pet and booking endpoints.  Each
// group verifies the token and role itself in addition to the gatekeeper.
func RegisterCustomer(e *echo.Echo, codec *utils.TokenCodec, p *handler.ProfileHandler, pets *handler.PetHandler, b *handler.BookingHandler) {
	profile := e.Group(APIPrefix+"/profile",
		middleware.JWTAuth(codec),
		middleware.RequireRole(model.RoleCustomer, model.RoleAdmin),
	)
	profile.GET("", p.GetProfile)
	profile.PUT("", p.UpdateProfile)
	profile.GET("/addresses", p.ListAddresses)
	profile.POST("/addresses", p.CreateAddress)
	profile.PUT("/addresses/:id", p.UpdateAddress)
	profile.DELETE("/addresses/:id", p.DeleteAddress)
	profile.PUT("/addresses/:id/default", p.SetDefaultAddress)

	pg := e.Group(APIPrefix+"/pets",
		middleware.JWTAuth(codec),
		middleware.RequireRole(model.RoleCustomer),
	)
	pg.GET("", pets.List)
	pg.POST("", pets.Create)
	pg.GET("/:id", pets.Get)
	pg.PUT("/:id", pets.Update)
	pg.DELETE("/:id", pets.Delete)

	bg := e.Group(APIPrefix+"/booking",
		middleware.JWTAuth(codec),
		middleware.RequireRole(model.RoleCustomer),
	)
	bg.POST("", b.Create)
	bg.GET("/me", b.ListMine)
	bg.GET("/:id", b.Get)
	bg.DELETE("/:id", b.Cancel)
}
