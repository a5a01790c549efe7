package api

import "github.com/gin-gonic/gin"

// NewRouter wires the read-only KPI endpoints.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", Health)
	r.GET("/api/results", h.ListResults)
	r.GET("/api/results/latest", h.LatestResults)
	r.GET("/trend", h.Trend)

	return r
}
