package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"polygraph/internal/pipeline"
	"polygraph/internal/queue"
	"polygraph/internal/server/middleware"
	"polygraph/pkg/logger"
)

// PostCrawlHandler validates a crawl request and enqueues it for the worker.
func PostCrawlHandler(c echo.Context) error {
	type crawlBody struct {
		Label      string   `json:"label"`
		Seeds      []string `json:"seeds"`
		Categories []string `json:"categories"`
		Modes      []string `json:"modes"`
		MaxDepth   int      `json:"max_depth" validate:"min=0"`
		MaxNodes   int      `json:"max_nodes" validate:"min=0"`
		MaxEdges   int      `json:"max_edges" validate:"min=0"`
		Officials  bool     `json:"officials"`
		Upload     bool     `json:"upload"`
	}

	type crawlResponse struct {
		Message       string `json:"message"`
		CorrelationID string `json:"correlation_id,omitempty"`
	}

	data := new(crawlBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, crawlResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, crawlResponse{
			Message: "Invalid request body",
		})
	}
	if len(data.Seeds) == 0 && len(data.Categories) == 0 {
		return c.JSON(http.StatusBadRequest, crawlResponse{
			Message: "At least one seed or category is required",
		})
	}
	if _, err := pipeline.ParseModes(data.Modes); err != nil {
		return c.JSON(http.StatusBadRequest, crawlResponse{
			Message: err.Error(),
		})
	}

	ch := c.(*middleware.AppContext).App.Queue
	correlationID, err := queue.EnqueueCrawl(ch, queue.CrawlJob{
		Label:      data.Label,
		Seeds:      data.Seeds,
		Categories: data.Categories,
		Modes:      data.Modes,
		MaxDepth:   data.MaxDepth,
		MaxNodes:   data.MaxNodes,
		MaxEdges:   data.MaxEdges,
		Officials:  data.Officials,
		Upload:     data.Upload,
	})
	if err != nil {
		logger.Error("Failed to enqueue crawl job", "err", err)
		return c.JSON(http.StatusInternalServerError, crawlResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, crawlResponse{
		Message:       "Crawl queued",
		CorrelationID: correlationID,
	})
}
