package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/okravets/coffeehouse/internal/handlers"
	"github.com/okravets/coffeehouse/internal/service/token"
)

type Deps struct {
	DB                 *gorm.DB
	AuthHandler        *handlers.AuthHandler
	CatalogHandler     *handlers.CatalogHandler
	BlogHandler        *handlers.BlogHandler
	CartHandler        *handlers.CartHandler
	CheckoutHandler    *handlers.CheckoutHandler
	ReservationHandler *handlers.ReservationHandler
	ManagerHandler     *handlers.ManagerHandler
	ContactHandler     *handlers.ContactHandler
	SearchHandler      *handlers.SearchHandler
	TokenService       *token.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.LogOut)

	v1.GET("/menu", d.CatalogHandler.GetMenu)
	v1.GET("/dishes/:slug", d.CatalogHandler.GetDish)
	v1.GET("/gallery", d.CatalogHandler.GetGallery)
	v1.GET("/menu-items", d.CatalogHandler.GetMenuItems)
	v1.GET("/search", d.SearchHandler.Search)

	v1.GET("/blog", d.BlogHandler.GetPosts)
	v1.GET("/blog/:id", d.BlogHandler.GetPost)
	v1.POST("/blog/:id/comments", d.BlogHandler.CreateComment)

	v1.GET("/cart", d.CartHandler.GetCart)
	v1.POST("/cart", d.CartHandler.AddToCart)
	v1.PATCH("/cart/:id", d.CartHandler.UpdateCart)
	v1.DELETE("/cart/:id", d.CartHandler.RemoveFromCart)

	v1.POST("/checkout", d.CheckoutHandler.Checkout)

	v1.POST("/reservations", d.ReservationHandler.CreateReservation)
	v1.GET("/reservations/draft", d.ReservationHandler.GetReservationDraft)

	v1.POST("/contact", d.ContactHandler.Contact)

	manager := v1.Group("/manager", d.TokenService.RequireRole("manager"))

	manager.GET("/reservations", d.ManagerHandler.ListUnprocessed)
	manager.GET("/reservations/:id", d.ManagerHandler.GetReservation)
	manager.PATCH("/reservations/:id", d.ManagerHandler.EditReservation)

	admin := v1.Group("/admin", d.TokenService.RequireRole("admin"))

	admin.POST("/dishes", d.CatalogHandler.CreateDish)
	admin.PATCH("/dishes/:id", d.CatalogHandler.PatchDish)
	admin.DELETE("/dishes/:id", d.CatalogHandler.DeleteDish)
	admin.POST("/categories", d.CatalogHandler.CreateCategory)
	admin.PATCH("/categories/:id", d.CatalogHandler.PatchCategory)
	admin.DELETE("/categories/:id", d.CatalogHandler.DeleteCategory)
	admin.POST("/gallery", d.CatalogHandler.CreateGalleryImage)
	admin.POST("/menu-items", d.CatalogHandler.CreateMenuItem)
	admin.POST("/posts", d.BlogHandler.CreatePost)
}
