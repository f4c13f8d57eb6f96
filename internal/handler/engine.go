package handler

import (
	"github.com/CageChen/devrouter/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Reserved routes. Everything else goes through the listing handler.
const (
	ReloadPath  = "/__devrouter/ws"
	MetricsPath = "/__devrouter/metrics"
)

// EngineOptions selects the handlers mounted on the engine.
type EngineOptions struct {
	Listing *ListingHandler
	// WS enables live reload when set.
	WS *WSHandler
	// Metrics exposes MetricsPath when set.
	Metrics *metrics.Collector
}

// NewEngine builds the gin engine for the development server.
func NewEngine(o EngineOptions) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(Tracing())
	r.Use(RequestLogger())
	r.Use(CORS())

	if o.WS != nil {
		r.GET(ReloadPath, o.WS.HandleWS)
	}
	if o.Metrics != nil {
		r.GET(MetricsPath, gin.WrapH(o.Metrics.Handler()))
	}

	r.NoRoute(o.Listing.Serve)
	return r
}
