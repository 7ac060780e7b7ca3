package api

import (
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"github.com/fmtdata/datafill/docs"
	"github.com/fmtdata/datafill/internal/api/handler"
	"github.com/fmtdata/datafill/internal/api/middleware"
	"github.com/fmtdata/datafill/internal/core/ports"
	"github.com/fmtdata/datafill/internal/pkg/config"
)

const (
	bodyLimit    = "10M"
	legacyPrefix = "/api"
)

// designToolOrigins may always call the API; the plugin runs inside them.
var designToolOrigins = []string{"https://www.figma.com", "https://figma.com"}

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Log      zerolog.Logger
	Datasets ports.DatasetService
	Auth     ports.AuthService
	Sessions ports.SessionIssuer
	// Store is pinged by the health endpoints.
	Store ports.DatasetStore
	// Registry receives the HTTP metrics and backs /metrics. Defaults to the
	// process-wide prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	cfg := d.Config

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log, !cfg.IsProduction())

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(corsConfig(cfg)))
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "datafill",
		Registerer: registerer(d.Registry),
	}))

	// --- Handlers ---
	datasets := handler.NewDatasetHandler(d.Datasets)
	auth := handler.NewAuthHandler(d.Auth)
	health := handler.NewHealthHandler(d.Store.Backend(), map[string]handler.Pinger{
		d.Store.Backend(): d.Store,
	})

	requireSession := middleware.Auth(d.Sessions)
	reads := middleware.Reads(cfg.PublicReads(), d.Sessions)

	// --- Operational routes (no auth required) ---
	e.GET("/health", health.Liveness)        // liveness: is the process alive?
	e.GET("/health/ready", health.Readiness) // readiness: is the store up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: gatherer(d.Registry),
	}))
	docs.SwaggerInfo.BasePath = cfg.APIPrefix
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := e.Group(cfg.APIPrefix)

	// --- Auth routes ---
	a := v1.Group("/auth")
	a.GET("/google/url", auth.GoogleURL)
	a.POST("/google", auth.GoogleSignIn)
	a.GET("/verify", auth.Verify, requireSession)

	// --- Dataset routes ---
	ds := v1.Group("/datasets")
	ds.GET("/public", datasets.Public, publicRateLimit(cfg.PublicRateLimit)...)
	ds.GET("/categories", datasets.Categories, reads)
	ds.GET("/search", datasets.Search, reads)
	ds.GET("", datasets.List, reads)
	ds.GET("/:id", datasets.Get, reads)
	ds.POST("", datasets.Create, requireSession)
	ds.PATCH("/:id", datasets.Update, requireSession)
	ds.DELETE("/:id", datasets.Delete, requireSession)

	// Older plugin builds fetch the map from here.
	if cfg.APIPrefix != legacyPrefix {
		e.GET(legacyPrefix+"/datasets", func(c echo.Context) error {
			return c.Redirect(http.StatusMovedPermanently, cfg.APIPrefix+"/datasets/public")
		})
	}

	return e
}

func corsConfig(cfg *config.Config) echomiddleware.CORSConfig {
	origins := append(append([]string{}, cfg.CORSOrigins...), designToolOrigins...)
	if !cfg.IsProduction() {
		origins = []string{"*"}
	}
	return echomiddleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}
}

// publicRateLimit limits each client IP to perSecond requests with a burst of
// the same size. Zero disables the limit.
func publicRateLimit(perSecond float64) []echo.MiddlewareFunc {
	if perSecond <= 0 {
		return nil
	}
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     int(math.Ceil(perSecond)),
		ExpiresIn: 3 * time.Minute,
	})
	return []echo.MiddlewareFunc{echomiddleware.RateLimiter(store)}
}

func registerer(r *prometheus.Registry) prometheus.Registerer {
	if r == nil {
		return prometheus.DefaultRegisterer
	}
	return r
}

func gatherer(r *prometheus.Registry) prometheus.Gatherer {
	if r == nil {
		return prometheus.DefaultGatherer
	}
	return r
}
