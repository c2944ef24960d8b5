package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/nataliagff23/checklist-clientes/dashboard"
	"github.com/nataliagff23/checklist-clientes/domain"
	"github.com/nataliagff23/checklist-clientes/router"
)

// Register wires up all API routes on the provided Echo instance. events may
// be nil.
func Register(e *echo.Echo, store dashboard.Store, events dashboard.Publisher, links router.Links, logger *log.Logger) {
	dir := dashboard.NewDirectory(store, events, logger)

	g := e.Group("/api", middleware.BodyLimit(maxBodyLimit), DecompressRequests())
	g.GET("/clients", listClients(dir, logger))
	g.POST("/clients", createClient(dir, links, logger))
	g.GET("/clients/:id", getClient(dir, store, links, logger))
	g.DELETE("/clients/:id", deleteClient(dir, logger))
	g.GET("/clients/:id/links", getLinks(dir, links, logger))
	g.GET("/clients/:id/tasks", listTasks(dir, store, logger))
	g.GET("/clients/:id/checklists/:type", getChecklist(dir, store, logger))
	g.POST("/clients/:id/tasks/:taskId/toggle", toggleTask(store, events, logger))

	g.GET("/clients/:id/briefing", getBriefing(dir, store, links, false, logger))
	g.PUT("/clients/:id/briefing", saveBriefing(dir, store, events, links, false, logger))
	g.PATCH("/clients/:id/briefing", editBriefingField(dir, store, events, links, false, logger))
	g.GET("/public/briefing/:id", getBriefing(dir, store, links, true, logger))
	g.PUT("/public/briefing/:id", saveBriefing(dir, store, events, links, true, logger))
	g.PATCH("/public/briefing/:id", editBriefingField(dir, store, events, links, true, logger))

	g.GET("/briefing/schema", briefingSchema())
	g.GET("/route", resolveRoute())
	e.GET("/healthz", healthz(store))
}

func healthz(store dashboard.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := store.ListTemplates(c.Request().Context()); err != nil {
			return c.String(http.StatusServiceUnavailable, "store unavailable")
		}
		return c.NoContent(http.StatusOK)
	}
}

// begin starts request observability and moves the span into the request
// context.
func begin(c echo.Context, logger *log.Logger) (*requestMetrics, context.Context) {
	metrics, spanCtx := newRequestMetrics(c.Request().Context(), logger, c.Path())
	c.SetRequest(c.Request().WithContext(spanCtx))
	return metrics, spanCtx
}

// statusFor maps domain errors to HTTP responses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrBusinessNameRequired),
		errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, domain.ErrUnknownChecklistType):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrBriefingExists):
		return http.StatusConflict, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

func failure(c echo.Context, metrics *requestMetrics, stage string, err error) error {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		metrics.Fail(stage, err)
	} else {
		metrics.SetErrorStage(stage)
	}
	return c.String(status, msg)
}

func respond(c echo.Context, metrics *requestMetrics, status int, body any) error {
	start := time.Now()
	err := c.JSON(status, body)
	metrics.ObserveEncode(time.Since(start))
	return err
}

func decodeBody(c echo.Context, v any) error {
	data, err := readBody(c)
	if err != nil {
		return err
	}
	return sonic.ConfigStd.Unmarshal(data, v)
}

func decodeFailure(c echo.Context, metrics *requestMetrics, err error) error {
	metrics.SetErrorStage("decode")
	if errors.Is(err, errBodyTooLarge) {
		return c.String(http.StatusRequestEntityTooLarge, errBodyTooLarge.Error())
	}
	return c.String(http.StatusBadRequest, "invalid json")
}

func linksFor(links router.Links, id string) linksResponse {
	return linksResponse{Client: links.ClientLink(id), Briefing: links.BriefingLink(id)}
}

func listClients(dir *dashboard.Directory, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := begin(c, logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		fetchStart := time.Now()
		listing, fetchErr := dir.List(ctx)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			return failure(c, metrics, "storage", fetchErr)
		}
		resp := clientsResponse{Clients: make([]clientSummary, 0, len(listing.Clients))}
		for _, cl := range listing.Clients {
			resp.Clients = append(resp.Clients, clientSummary{Client: cl, Progress: listing.ProgressOf(cl.ID)})
		}
		metrics.Set("clients_returned", len(resp.Clients))
		return respond(c, metrics, http.StatusOK, resp)
	}
}

func createClient(dir *dashboard.Directory, links router.Links, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := begin(c, logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		var nc domain.NewClient
		if decErr := decodeBody(c, &nc); decErr != nil {
			return decodeFailure(c, metrics, decErr)
		}
		fetchStart := time.Now()
		client, createErr := dir.Create(ctx, nc)
		metrics.ObserveFetch(time.Since(fetchStart))
		if createErr != nil {
			return failure(c, metrics, "create", createErr)
		}
		return respond(c, metrics, http.StatusCreated, createClientResponse{Client: client, Links: linksFor(links, client.ID)})
	}
}

func deleteClient(dir *dashboard.Directory, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := begin(c, logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		if delErr := dir.Delete(ctx, c.Param("id")); delErr != nil {
			return failure(c, metrics, "storage", delErr)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func getLinks(dir *dashboard.Directory, links router.Links, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := begin(c, logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		client, getErr := dir.Get(ctx, c.Param("id"))
		if getErr != nil {
			return failure(c, metrics, "storage", getErr)
		}
		return respond(c, metrics, http.StatusOK, linksFor(links, client.ID))
	}
}

// loadChecklist fetches the client and its tasks. The returned error is
// domain.ErrNotFound when the client does not exist.
func loadChecklist(ctx context.Context, dir *dashboard.Directory, store dashboard.Store, logger *log.Logger, id string) (domain.Client, *dashboard.Checklist, error) {
	client, err := dir.Get(ctx, id)
	if err != nil {
		return domain.Client{}, nil, err
	}
	cl := dashboard.NewChecklist(store, nil, logger, id)
	if err := cl.Load(ctx); err != nil {
		return domain.Client{}, nil, err
	}
	return client, cl, nil
}

func checklistView(cl *dashboard.Checklist, t domain.ChecklistType) checklistResponse {
	completed, total := cl.Counts(t)
	return checklistResponse{
		Type:      t,
		Completed: completed,
		Total:     total,
		Percent:   cl.Progress(t),
		Sections:  cl.Sections(t),
	}
}

func getClient(dir *dashboard.Directory, store dashboard.Store, links router.Links, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := begin(c, logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		fetchStart := time.Now()
		client, cl, fetchErr := loadChecklist(ctx, dir, store, logger, c.Param("id"))
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			return failure(c, metrics, "storage", fetchErr)
		}
		resp := clientDetailResponse{
			Client:   client,
			Progress: cl.Summary(),
			Links:    linksFor(links, client.ID),
		}
		for _, t := range domain.ChecklistTypes {
			resp.Checklists = append(resp.Checklists, checklistView(cl, t))
		}
		metrics.Set("tasks_returned", len(cl.Tasks()))
		return respond(c, metrics, http.StatusOK, resp)
	}
}

func listTasks(dir *dashboard.Directory, store dashboard.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := begin(c, logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		fetchStart := time.Now()
		_, cl, fetchErr := loadChecklist(ctx, dir, store, logger, c.Param("id"))
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			return failure(c, metrics, "storage", fetchErr)
		}
		tasks := cl.Tasks()
		if tasks == nil {
			tasks = []domain.ChecklistTask{}
		}
		metrics.Set("tasks_returned", len(tasks))
		return respond(c, metrics, http.StatusOK, tasksResponse{Tasks: tasks})
	}
}

func getChecklist(dir *dashboard.Directory, store dashboard.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := begin(c, logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		t, parseErr := domain.ParseChecklistType(c.Param("type"))
		if parseErr != nil {
			return failure(c, metrics, "checklist_type", parseErr)
		}
		fetchStart := time.Now()
		_, cl, fetchErr := loadChecklist(ctx, dir, store, logger, c.Param("id"))
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			return failure(c, metrics, "storage", fetchErr)
		}
		return respond(c, metrics, http.StatusOK, checklistView(cl, t))
	}
}

func toggleTask(store dashboard.Store, events dashboard.Publisher, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := begin(c, logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		cl := dashboard.NewChecklist(store, events, logger, c.Param("id"))
		fetchStart := time.Now()
		loadErr := cl.Load(ctx)
		metrics.ObserveFetch(time.Since(fetchStart))
		if loadErr != nil {
			return failure(c, metrics, "storage", loadErr)
		}
		task, toggleErr := cl.Toggle(ctx, c.Param("taskId"))
		if toggleErr != nil {
			return failure(c, metrics, "toggle", toggleErr)
		}
		metrics.Set("is_completed", task.IsCompleted)
		return respond(c, metrics, http.StatusOK, toggleResponse{Task: task, Progress: cl.Summary()})
	}
}

// briefingFailure reports a missing client on the public form as an invalid
// link.
func briefingFailure(c echo.Context, metrics *requestMetrics, public bool, stage string, err error) error {
	if public && errors.Is(err, domain.ErrNotFound) {
		metrics.SetErrorStage(stage)
		return c.String(http.StatusNotFound, "invalid link")
	}
	return failure(c, metrics, stage, err)
}

func openBriefing(ctx context.Context, dir *dashboard.Directory, store dashboard.Store, events dashboard.Publisher, logger *log.Logger, id string) (domain.Client, *dashboard.BriefingEditor, error) {
	client, err := dir.Get(ctx, id)
	if err != nil {
		return domain.Client{}, nil, err
	}
	ed := dashboard.NewBriefingEditor(store, events, logger, id)
	if err := ed.Load(ctx); err != nil {
		return domain.Client{}, nil, err
	}
	return client, ed, nil
}

func briefingView(client domain.Client, id string, data domain.BriefingData, links router.Links) briefingResponse {
	return briefingResponse{
		ID:           id,
		ClientID:     client.ID,
		BusinessName: client.BusinessName,
		Persisted:    id != "",
		Data:         data,
		Link:         links.BriefingLink(client.ID),
	}
}

func getBriefing(dir *dashboard.Directory, store dashboard.Store, links router.Links, public bool, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := begin(c, logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		fetchStart := time.Now()
		client, ed, fetchErr := openBriefing(ctx, dir, store, nil, logger, c.Param("id"))
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			return briefingFailure(c, metrics, public, "storage", fetchErr)
		}
		metrics.Set("persisted", ed.Persisted())
		return respond(c, metrics, http.StatusOK, briefingView(client, ed.ID(), ed.Data(), links))
	}
}

func saveBriefing(dir *dashboard.Directory, store dashboard.Store, events dashboard.Publisher, links router.Links, public bool, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := begin(c, logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		var req saveBriefingRequest
		if decErr := decodeBody(c, &req); decErr != nil || len(req.Data) == 0 {
			return decodeFailure(c, metrics, decErr)
		}
		fetchStart := time.Now()
		client, ed, fetchErr := openBriefing(ctx, dir, store, events, logger, c.Param("id"))
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			return briefingFailure(c, metrics, public, "storage", fetchErr)
		}
		draft := ed.Data()
		if decErr := sonic.ConfigStd.Unmarshal(req.Data, &draft); decErr != nil {
			metrics.SetErrorStage("decode")
			return c.String(http.StatusBadRequest, "invalid briefing data")
		}
		ed.Replace(draft)
		saved, saveErr := ed.Save(ctx)
		if saveErr != nil {
			return briefingFailure(c, metrics, public, "save", saveErr)
		}
		return respond(c, metrics, http.StatusOK, briefingView(client, saved.ID, saved.Data, links))
	}
}

func editBriefingField(dir *dashboard.Directory, store dashboard.Store, events dashboard.Publisher, links router.Links, public bool, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := begin(c, logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		var req editFieldRequest
		if decErr := decodeBody(c, &req); decErr != nil {
			return decodeFailure(c, metrics, decErr)
		}
		field, ok := domain.FieldByKey(req.Key)
		if !ok {
			metrics.SetErrorStage("field")
			return c.String(http.StatusBadRequest, "unknown briefing field")
		}
		if req.Toggle != nil && field.Kind != domain.FieldMulti {
			metrics.SetErrorStage("field")
			return c.String(http.StatusBadRequest, "field is not multi-choice")
		}

		fetchStart := time.Now()
		client, ed, fetchErr := openBriefing(ctx, dir, store, events, logger, c.Param("id"))
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			return briefingFailure(c, metrics, public, "storage", fetchErr)
		}

		var editErr error
		switch {
		case req.Toggle != nil:
			editErr = ed.ToggleOption(req.Key, *req.Toggle)
		case field.Kind == domain.FieldMulti:
			editErr = ed.Set(req.Key, domain.FieldValue{List: req.List})
		case req.Text != nil:
			editErr = ed.SetText(req.Key, *req.Text)
		default:
			metrics.SetErrorStage("field")
			return c.String(http.StatusBadRequest, "missing value")
		}
		if editErr != nil {
			return failure(c, metrics, "field", editErr)
		}
		metrics.Set("field", req.Key)

		saved, saveErr := ed.Save(ctx)
		if saveErr != nil {
			return briefingFailure(c, metrics, public, "save", saveErr)
		}
		return respond(c, metrics, http.StatusOK, briefingView(client, saved.ID, saved.Data, links))
	}
}

func briefingSchema() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, schemaResponse{Sections: domain.BriefingSections, Fields: domain.BriefingFields})
	}
}

// resolveRoute tells a client which view a fragment such as "#/client/<id>"
// selects.
func resolveRoute() echo.HandlerFunc {
	return func(c echo.Context) error {
		r := router.Parse(c.QueryParam("fragment"))
		return c.JSON(http.StatusOK, routeResponse{View: r.View.String(), ClientID: r.ClientID, Fragment: r.Fragment()})
	}
}
