package routes_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"polygraph/internal/server/middleware"
	"polygraph/internal/server/routes"
	"polygraph/pkg/graph"
	"polygraph/pkg/store"
	fsstore "polygraph/pkg/store/fs"
)

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i any) error {
	return v.validator.Struct(i)
}

func newTestApp(t *testing.T) *middleware.App {
	t.Helper()
	s, err := fsstore.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g := graph.New()
	g.SetNode("Q1", "Alice", "")
	g.SetNode("Q2", "Bob", "")
	if err := g.AddEdge(&graph.Edge{Source: "Q1", Target: "Q2", Relation: "spouse"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := &store.Snapshot{
		Meta:  store.Meta{ID: "snap1", Label: "test"},
		Graph: g,
		Stats: &graph.Stats{SeedIDs: []string{"Q1"}, TotalNodes: 2, TotalEdges: 1},
	}
	if err := s.SaveSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return &middleware.App{Snapshots: s}
}

func request(t *testing.T, app *middleware.App, method, path, body string, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for name, value := range params {
		c.SetParamNames(name)
		c.SetParamValues(value)
	}

	cc := &middleware.AppContext{Context: c, App: app}

	var handler echo.HandlerFunc
	switch {
	case method == http.MethodGet && path == "/api/snapshots":
		handler = routes.GetSnapshotsHandler
	case method == http.MethodGet && strings.HasSuffix(path, "/nodes"):
		handler = routes.GetSnapshotNodesHandler
	case method == http.MethodGet && strings.HasSuffix(path, "/edges"):
		handler = routes.GetSnapshotEdgesHandler
	case method == http.MethodGet && strings.HasSuffix(path, "/stats"):
		handler = routes.GetSnapshotStatsHandler
	case method == http.MethodGet && strings.HasSuffix(path, "/chart"):
		handler = routes.GetSnapshotChartHandler
	case method == http.MethodPost && path == "/api/crawls":
		handler = routes.PostCrawlHandler
	default:
		t.Fatalf("no handler for %s %s", method, path)
	}

	if err := handler(cc); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	return rec
}

func TestGetSnapshotsHandler(t *testing.T) {
	app := newTestApp(t)
	rec := request(t, app, http.MethodGet, "/api/snapshots", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Snapshots []store.Meta `json:"snapshots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(body.Snapshots) != 1 || body.Snapshots[0].ID != "snap1" {
		t.Fatalf("unexpected listing: %+v", body.Snapshots)
	}
}

func TestGetSnapshotNodesHandler(t *testing.T) {
	app := newTestApp(t)
	rec := request(t, app, http.MethodGet, "/api/snapshots/snap1/nodes", "",
		map[string]string{"id": "snap1"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"Q1"`) {
		t.Fatalf("expected node Q1 in response, got %s", rec.Body.String())
	}
}

func TestGetSnapshotNotFound(t *testing.T) {
	app := newTestApp(t)
	rec := request(t, app, http.MethodGet, "/api/snapshots/ghost/stats", "",
		map[string]string{"id": "ghost"})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetSnapshotChartHandler(t *testing.T) {
	app := newTestApp(t)
	rec := request(t, app, http.MethodGet, "/api/snapshots/snap1/chart", "",
		map[string]string{"id": "snap1"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"people"`) {
		t.Fatalf("expected a chart document, got %s", rec.Body.String())
	}
}

func TestPostCrawlHandlerRejectsEmptyRequest(t *testing.T) {
	app := newTestApp(t)
	rec := request(t, app, http.MethodPost, "/api/crawls", `{}`, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "seed or category") {
		t.Fatalf("unexpected message: %s", rec.Body.String())
	}
}

func TestPostCrawlHandlerRejectsUnknownMode(t *testing.T) {
	app := newTestApp(t)
	rec := request(t, app, http.MethodPost, "/api/crawls",
		`{"seeds": ["Q1"], "modes": ["astral"]}`, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
