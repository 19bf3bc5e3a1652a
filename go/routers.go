// Package lessonserver exposes the school activities document API over HTTP.
package lessonserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions groups the handler structs mounted by NewRouter.
type ApiHandleFunctions struct {
	CollectionAPI CollectionAPI
	SearchAPI     SearchAPI
	OrderAPI      OrderAPI
	ImageAPI      ImageAPI
	SystemAPI     SystemAPI
}

type routerConfig struct {
	gatewayTimeout time.Duration
	logger         *slog.Logger
	middleware     []gin.HandlerFunc
}

// RouterOption customises NewRouter.
type RouterOption func(*routerConfig)

// WithGatewayTimeout bounds the request context handed to the services.
func WithGatewayTimeout(d time.Duration) RouterOption {
	return func(cfg *routerConfig) {
		cfg.gatewayTimeout = d
	}
}

// WithLogger sets the logger used by request middleware.
func WithLogger(logger *slog.Logger) RouterOption {
	return func(cfg *routerConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithMiddleware installs middleware ahead of every route, e.g. otelgin.
func WithMiddleware(mw ...gin.HandlerFunc) RouterOption {
	return func(cfg *routerConfig) {
		cfg.middleware = append(cfg.middleware, mw...)
	}
}

// NewRouter returns a new router.
func NewRouter(handlers ApiHandleFunctions, opts ...RouterOption) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	return NewRouterWithGinEngine(router, handlers, opts...)
}

// NewRouterWithGinEngine adds the API routes to an existing engine.
func NewRouterWithGinEngine(router *gin.Engine, handlers ApiHandleFunctions, opts ...RouterOption) *gin.Engine {
	cfg := routerConfig{gatewayTimeout: 10 * time.Second, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	router.Use(cfg.middleware...)
	router.Use(gatewayTimeout(cfg.gatewayTimeout))
	for _, route := range getRoutes(handlers, cfg) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		router.Handle(route.Method, route.Pattern, route.HandlerFunc)
	}
	return router
}

// DefaultHandleFunc answers routes whose handler was never wired.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(handlers ApiHandleFunctions, cfg routerConfig) []Route {
	return []Route{
		{"Index", http.MethodGet, "/", handlers.SystemAPI.Index},
		{"Healthz", http.MethodGet, "/healthz", handlers.SystemAPI.Healthz},
		{"Readyz", http.MethodGet, "/readyz", handlers.SystemAPI.Readyz},
		{"TestImage", http.MethodGet, "/test-image", handlers.SystemAPI.TestImage},
		{"GetImage", http.MethodGet, "/images/:file", handlers.ImageAPI.GetImage},
		{"HeadImage", http.MethodHead, "/images/:file", handlers.ImageAPI.GetImage},
		{"ListDocuments", http.MethodGet, "/collection/:collectionName", handlers.CollectionAPI.ListDocuments},
		{"CreateDocument", http.MethodPost, "/collection/:collectionName", handlers.CollectionAPI.CreateDocument},
		{"GetDocument", http.MethodGet, "/collection/:collectionName/:id", handlers.CollectionAPI.GetDocument},
		{"UpdateDocument", http.MethodPut, "/collection/:collectionName/:id", handlers.CollectionAPI.UpdateDocument},
		{"DeleteDocument", http.MethodDelete, "/collection/:collectionName/:id", handlers.CollectionAPI.DeleteDocument},
		{"LogSearch", http.MethodGet, "/log-search", chain(searchQueryLogger(cfg.logger), handlers.SearchAPI.LogSearch)},
		{"Search", http.MethodGet, "/search", handlers.SearchAPI.Search},
		{"PlaceOrder", http.MethodPost, "/place-order", handlers.OrderAPI.PlaceOrder},
	}
}

func chain(first gin.HandlerFunc, next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		first(c)
		if !c.IsAborted() {
			next(c)
		}
	}
}

func gatewayTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// searchQueryLogger records what users search for before the handler validates it.
func searchQueryLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := trimmedQuery(c, "query")
		if query == "" {
			logger.LogAttrs(c.Request.Context(), slog.LevelWarn, "search query is missing or empty")
			return
		}
		logger.LogAttrs(c.Request.Context(), slog.LevelInfo, "user searched", slog.String("query", query))
	}
}
