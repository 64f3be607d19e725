package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"polygraph/internal/server/middleware"
	"polygraph/internal/storage"
	"polygraph/pkg/logger"
	"polygraph/pkg/store"
)

// DeleteSnapshotHandler removes a snapshot and, when object storage is
// configured, its uploaded bundle.
func DeleteSnapshotHandler(c echo.Context) error {
	snapshotID := c.Param("id")
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	if err := app.Snapshots.DeleteSnapshot(ctx, snapshotID); err != nil {
		var notFound *store.NotFoundError
		if errors.As(err, &notFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "Snapshot not found",
			})
		}
		logger.Error("Failed to delete snapshot", "snapshot", snapshotID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
	}

	if app.S3 != nil {
		if err := storage.DeleteBundle(ctx, app.S3, snapshotID); err != nil {
			logger.Warn("Failed to delete uploaded bundle", "snapshot", snapshotID, "err", err)
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Snapshot deleted"})
}
