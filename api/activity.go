package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/nataliagff23/checklist-clientes/dashboard"
	"github.com/nataliagff23/checklist-clientes/domain"
)

// ActivityFeed returns the recent events of a client, newest first.
type ActivityFeed interface {
	Recent(ctx context.Context, clientID string, n int) ([]domain.Event, error)
}

type activityResponse struct {
	Events []domain.Event `json:"events"`
}

// RegisterActivity adds GET /api/clients/:id/activity backed by feed.
func RegisterActivity(e *echo.Echo, store dashboard.Store, feed ActivityFeed, logger *log.Logger) {
	dir := dashboard.NewDirectory(store, nil, logger)
	e.Group("/api").GET("/clients/:id/activity", listActivity(dir, feed, logger))
}

func listActivity(dir *dashboard.Directory, feed ActivityFeed, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := begin(c, logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		limit := 0
		if v := c.QueryParam("limit"); v != "" {
			n, convErr := strconv.Atoi(v)
			if convErr != nil || n < 1 {
				metrics.SetErrorStage("decode")
				return c.String(http.StatusBadRequest, "invalid limit")
			}
			limit = n
		}

		id := c.Param("id")
		fetchStart := time.Now()
		if _, getErr := dir.Get(ctx, id); getErr != nil {
			metrics.ObserveFetch(time.Since(fetchStart))
			return failure(c, metrics, "storage", getErr)
		}
		events, fetchErr := feed.Recent(ctx, id, limit)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			return failure(c, metrics, "activity", fetchErr)
		}
		if events == nil {
			events = []domain.Event{}
		}
		metrics.Set("events_returned", len(events))
		return respond(c, metrics, http.StatusOK, activityResponse{Events: events})
	}
}
