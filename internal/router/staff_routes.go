package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/petcare-booking/internal/handler"
	"github.com/iliyamo/petcare-booking/internal/middleware"
	"github.com/iliyamo/petcare-booking/internal/model"
	"github.com/iliyamo/petcare-booking/internal/utils"
)

// RegisterStaff registers the reception and doctor endpoints.
func RegisterStaff(e *echo.Echo, codec *utils.TokenCodec, b *handler.BookingHandler, catalog *handler.CatalogHandler) {
	reception := e.Group(APIPrefix+"/reception",
		middleware.JWTAuth(codec),
		middleware.RequireRole(model.RoleReceptionist, model.RoleAdmin),
	)
	reception.GET("/bookings", b.ReceptionList)

	doctor := e.Group(APIPrefix+"/doctor",
		middleware.JWTAuth(codec),
		middleware.RequireRole(model.RoleDoctor),
	)
	doctor.GET("/slots", catalog.DoctorSlots)
}

// RegisterAdmin registers ADMIN-scoped endpoints under /api/admin.
func RegisterAdmin(e *echo.Echo, codec *utils.TokenCodec, a *handler.AdminHandler, catalog *handler.CatalogHandler) {
	g := e.Group(APIPrefix+"/admin",
		middleware.JWTAuth(codec),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Staff ----
	g.POST("/staff", a.CreateStaff)
	g.GET("/staff", a.ListStaff)
	g.GET("/staff/:id", a.GetStaff)
	g.PUT("/staff/:id/disable", a.DisableStaff)
	g.PUT("/staff/:id/role", a.ChangeStaffRole)

	// ---- Customers ----
	g.GET("/customers", a.ListCustomers)

	// ---- Catalog ----
	g.GET("/services", catalog.AdminList)
	g.PUT("/services/:id", catalog.AdminUpdate)
	g.POST("/slots", catalog.CreateSlot)
}
