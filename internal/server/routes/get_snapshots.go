package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"polygraph/internal/server/middleware"
	"polygraph/pkg/chart"
	"polygraph/pkg/export"
	"polygraph/pkg/logger"
	"polygraph/pkg/store"
)

func GetSnapshotsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	metas, err := app.Snapshots.ListSnapshots(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list snapshots", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"snapshots": metas})
}

func loadSnapshot(c echo.Context) (*store.Snapshot, error) {
	app := c.(*middleware.AppContext).App
	snap, err := app.Snapshots.LoadSnapshot(c.Request().Context(), c.Param("id"))
	if err != nil {
		var notFound *store.NotFoundError
		if errors.As(err, &notFound) {
			return nil, c.JSON(http.StatusNotFound, map[string]string{
				"error": "Snapshot not found",
			})
		}
		logger.Error("Failed to load snapshot", "snapshot", c.Param("id"), "err", err)
		return nil, c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
	}
	return snap, nil
}

func GetSnapshotNodesHandler(c echo.Context) error {
	snap, err := loadSnapshot(c)
	if snap == nil {
		return err
	}
	nodes, _ := export.Records(snap.Graph)
	return c.JSON(http.StatusOK, map[string]any{"nodes": nodes})
}

func GetSnapshotEdgesHandler(c echo.Context) error {
	snap, err := loadSnapshot(c)
	if snap == nil {
		return err
	}
	_, edges := export.Records(snap.Graph)
	return c.JSON(http.StatusOK, map[string]any{"edges": edges})
}

func GetSnapshotStatsHandler(c echo.Context) error {
	snap, err := loadSnapshot(c)
	if snap == nil {
		return err
	}
	if snap.Stats == nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "Snapshot has no crawl stats",
		})
	}
	return c.JSON(http.StatusOK, snap.Stats)
}

func GetSnapshotChartHandler(c echo.Context) error {
	snap, err := loadSnapshot(c)
	if snap == nil {
		return err
	}
	return c.JSON(http.StatusOK, chart.Build(snap.Graph))
}
