package server

import (
	"github.com/labstack/echo/v4"

	"polygraph/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Crawl routes
	apiRoutes.POST("/crawls", routes.PostCrawlHandler)

	// Snapshot routes
	apiRoutes.GET("/snapshots", routes.GetSnapshotsHandler)
	apiRoutes.GET("/snapshots/:id/nodes", routes.GetSnapshotNodesHandler)
	apiRoutes.GET("/snapshots/:id/edges", routes.GetSnapshotEdgesHandler)
	apiRoutes.GET("/snapshots/:id/stats", routes.GetSnapshotStatsHandler)
	apiRoutes.GET("/snapshots/:id/chart", routes.GetSnapshotChartHandler)
	apiRoutes.POST("/snapshots/:id/enrich", routes.PostEnrichHandler)
	apiRoutes.DELETE("/snapshots/:id", routes.DeleteSnapshotHandler)
}
