package routes

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"polygraph/internal/queue"
	"polygraph/internal/server/middleware"
	"polygraph/pkg/logger"
	"polygraph/pkg/store"
)

// PostEnrichHandler enqueues an enrichment pass over a stored snapshot. The
// request body, when present, is a partial taxonomy override document.
func PostEnrichHandler(c echo.Context) error {
	type enrichResponse struct {
		Message       string `json:"message"`
		CorrelationID string `json:"correlation_id,omitempty"`
	}

	snapshotID := c.Param("id")
	app := c.(*middleware.AppContext).App

	if _, err := app.Snapshots.LoadSnapshot(c.Request().Context(), snapshotID); err != nil {
		var notFound *store.NotFoundError
		if errors.As(err, &notFound) {
			return c.JSON(http.StatusNotFound, enrichResponse{
				Message: "Snapshot not found",
			})
		}
		logger.Error("Failed to load snapshot", "snapshot", snapshotID, "err", err)
		return c.JSON(http.StatusInternalServerError, enrichResponse{
			Message: "Internal server error",
		})
	}

	var taxonomy json.RawMessage
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, enrichResponse{
			Message: "Invalid request body",
		})
	}
	if len(body) > 0 {
		if !json.Valid(body) {
			return c.JSON(http.StatusBadRequest, enrichResponse{
				Message: "Taxonomy override is not valid JSON",
			})
		}
		taxonomy = body
	}

	correlationID, err := queue.EnqueueEnrich(app.Queue, queue.EnrichJob{
		SnapshotID: snapshotID,
		Taxonomy:   taxonomy,
	})
	if err != nil {
		logger.Error("Failed to enqueue enrich job", "err", err)
		return c.JSON(http.StatusInternalServerError, enrichResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, enrichResponse{
		Message:       "Enrichment queued",
		CorrelationID: correlationID,
	})
}
