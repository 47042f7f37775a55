package echo

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	backoffice "github.com/sulpet/backoffice"
	"github.com/sulpet/backoffice/config"
	"github.com/sulpet/backoffice/middleware"
	"github.com/sulpet/backoffice/store"
)

// Collection names backing the data endpoints.
const (
	ProductsCollection = "products"
	SalesCollection    = "sales"
)

// BackOfficeAPI struct to hold dependencies.
type BackOfficeAPI struct {
	sessions    *backoffice.SessionService
	credentials *backoffice.CredentialStore
	stores      *store.Manager
	cfg         *config.Config
}

// NewBackOfficeAPI initializes the back-office API.
func NewBackOfficeAPI(
	sessions *backoffice.SessionService,
	credentials *backoffice.CredentialStore,
	stores *store.Manager,
	cfg *config.Config,
) *BackOfficeAPI {
	return &BackOfficeAPI{
		sessions:    sessions,
		credentials: credentials,
		stores:      stores,
		cfg:         cfg,
	}
}

// RegisterRoutes registers the back-office routes. Auth endpoints are open;
// every data endpoint is gated on a verified session token.
func (a *BackOfficeAPI) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", a.HealthHandler)
	e.GET("/api/ping", a.PingHandler)

	e.POST("/api/login", a.LoginHandler)
	e.POST("/api/logout", a.LogoutHandler)

	auth := middleware.RequireSession(a.sessions)
	e.GET("/api/me", a.MeHandler, auth)

	products := e.Group("/api/products", auth)
	products.GET("", a.ListProductsHandler)
	products.POST("", a.CreateProductHandler)
	products.PUT("/:id", a.UpdateProductHandler)
	products.DELETE("/:id", a.DeleteProductHandler)
	products.GET("/export/csv", a.ExportProductsCSVHandler)
	products.GET("/export/html", a.ExportProductsHTMLHandler)

	sales := e.Group("/api/sales", auth)
	sales.GET("", a.ListSalesHandler)
	sales.GET("/:id", a.GetSaleHandler)
	sales.POST("", a.CreateSaleHandler)
	sales.DELETE("/:id", a.DeleteSaleHandler)
}

// HealthHandler reports liveness.
func (a *BackOfficeAPI) HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "time": time.Now().UTC().Format(time.RFC3339)})
}

// PingHandler answers API reachability probes.
func (a *BackOfficeAPI) PingHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

func (a *BackOfficeAPI) products() *store.Store {
	return a.stores.Collection(ProductsCollection)
}

func (a *BackOfficeAPI) sales() *store.Store {
	return a.stores.Collection(SalesCollection)
}
