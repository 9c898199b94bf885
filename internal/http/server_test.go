package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"spendboard/internal/core"
	"spendboard/internal/dashboard"
	"spendboard/internal/log"
	"spendboard/internal/storage"
)

type stubSource struct {
	mu      sync.Mutex
	records []core.SpendRecord
	err     error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Load(ctx context.Context) ([]core.SpendRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]core.SpendRecord(nil), s.records...), nil
}

func (s *stubSource) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func testRecords() []core.SpendRecord {
	return []core.SpendRecord{
		{Company: "Acme", Supplier: "Globex", Country: "USA", Level1: "Travel", Level2: "Air", Level3: "Economy", Date: "2024-01-03", Amount: 200, Invoice: "I1", PONumber: "P1"},
		{Company: "Acme", Supplier: "Initech", Country: "USA", Level1: "Electronics", Level2: "Laptops", Level3: "Pro", Date: "2024-01-10", Amount: 300, Invoice: "I2", PONumber: "P2"},
		{Company: "", Supplier: "Globex", Country: "Germany", Level1: "Travel", Level2: "Rail", Level3: "", Date: "2023-06-01", Amount: 50, Invoice: "I3", PONumber: "P3"},
	}
}

func newTestServer(t *testing.T, src *stubSource, opts Options) *Server {
	t.Helper()
	logger := log.New(log.Config{Handler: discardHandler{}})
	opts.Logger = logger
	svc := dashboard.NewService(src, dashboard.Options{CacheSize: 16, CacheTTL: time.Minute, Logger: logger})
	srv := NewServer(":0", svc, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = "203.0.113.9:5555"
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

func TestHealthAndReadiness(t *testing.T) {
	srv := newTestServer(t, &stubSource{records: testRecords()}, Options{})

	if rr := do(t, srv, http.MethodGet, "/healthz"); rr.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/readyz"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before load status=%d, want 503", rr.Code)
	}

	if rr := do(t, srv, http.MethodGet, "/api/summary"); rr.Code != http.StatusOK {
		t.Fatalf("summary status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/readyz"); rr.Code != http.StatusOK {
		t.Fatalf("readyz after load status=%d, want 200", rr.Code)
	}
}

func TestSummaryWithFilters(t *testing.T) {
	srv := newTestServer(t, &stubSource{records: testRecords()}, Options{})

	rr := do(t, srv, http.MethodGet, "/api/summary?years=2024&countries=USA")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var body struct {
		Summary struct {
			TotalAmount float64 `json:"totalAmount"`
			Suppliers   int     `json:"suppliers"`
			Records     int     `json:"records"`
		} `json:"summary"`
		Cards []struct {
			Label string `json:"label"`
			Value string `json:"value"`
		} `json:"cards"`
	}
	decode(t, rr, &body)
	if body.Summary.TotalAmount != 500 || body.Summary.Suppliers != 2 || body.Summary.Records != 2 {
		t.Errorf("unexpected summary: %+v", body.Summary)
	}
	if len(body.Cards) == 0 || body.Cards[0].Value != "$0.5K" {
		t.Errorf("unexpected cards: %+v", body.Cards)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	if rr.Header().Get("X-Request-ID") == "" || rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("tracing and security headers should be set")
	}
}

func TestEmptyCompanySelectsMissingValues(t *testing.T) {
	srv := newTestServer(t, &stubSource{records: testRecords()}, Options{})

	rr := do(t, srv, http.MethodGet, "/api/records?companies=")
	var body struct {
		Count   int                `json:"count"`
		Records []core.SpendRecord `json:"records"`
	}
	decode(t, rr, &body)
	if body.Count != 1 || body.Records[0].Country != "Germany" {
		t.Errorf("unexpected records: %+v", body)
	}
}

func TestFacetsIgnoreSelection(t *testing.T) {
	srv := newTestServer(t, &stubSource{records: testRecords()}, Options{})

	var facets core.FacetOptions
	decode(t, do(t, srv, http.MethodGet, "/api/facets?years=2024"), &facets)
	if len(facets.Years) != 2 || len(facets.Companies) != 2 || facets.Companies[0] != "" {
		t.Errorf("unexpected facets: %+v", facets)
	}
}

func TestGeoView(t *testing.T) {
	srv := newTestServer(t, &stubSource{records: testRecords()}, Options{})

	rr := do(t, srv, http.MethodGet, "/api/views/geo?years=2024&level=level1")
	var geo struct {
		Level     string `json:"level"`
		Countries []struct {
			Country    string  `json:"country"`
			Total      float64 `json:"total"`
			Categories []struct {
				Category string  `json:"category"`
				Total    float64 `json:"total"`
			} `json:"categories"`
		} `json:"countries"`
	}
	decode(t, rr, &geo)
	if geo.Level != "level1" || len(geo.Countries) != 1 {
		t.Fatalf("unexpected geo view: %+v", geo)
	}
	usa := geo.Countries[0]
	if usa.Country != "USA" || usa.Total != 500 || len(usa.Categories) != 2 {
		t.Errorf("unexpected USA entry: %+v", usa)
	}
}

func TestViewEndpoints(t *testing.T) {
	srv := newTestServer(t, &stubSource{records: testRecords()}, Options{})

	for _, path := range []string{
		"/api/dashboard",
		"/api/views/treemap",
		"/api/views/sunburst",
		"/api/views/temporal?category=Travel",
		"/api/views/heatmap?category=Travel",
		"/metrics",
	} {
		if rr := do(t, srv, http.MethodGet, path); rr.Code != http.StatusOK {
			t.Errorf("%s status=%d body=%s", path, rr.Code, rr.Body.String())
		}
	}

	var hm struct {
		Category string       `json:"category"`
		Months   []string     `json:"months"`
		Cells    [][3]float64 `json:"cells"`
	}
	decode(t, do(t, srv, http.MethodGet, "/api/views/heatmap?category=Travel"), &hm)
	if hm.Category != "Travel" || len(hm.Months) != 2 || len(hm.Cells) != 10 {
		t.Errorf("unexpected heatmap: %+v", hm)
	}
}

func TestBadQueryParameters(t *testing.T) {
	srv := newTestServer(t, &stubSource{records: testRecords()}, Options{})

	for _, path := range []string{
		"/api/summary?years=twenty",
		"/api/views/geo?level=level9",
		"/api/views/geo?placeable=maybe",
	} {
		rr := do(t, srv, http.MethodGet, path)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s status=%d, want 400", path, rr.Code)
		}
	}
}

func TestLoadFailure(t *testing.T) {
	src := &stubSource{err: errors.New("upstream timeout")}
	srv := newTestServer(t, src, Options{})

	rr := do(t, srv, http.MethodGet, "/api/dashboard")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status=%d, want 502", rr.Code)
	}
	var body errorResponse
	decode(t, rr, &body)
	if body.Error != "failed to load data" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestReload(t *testing.T) {
	src := &stubSource{records: testRecords()}
	srv := newTestServer(t, src, Options{ReloadLimit: 2})

	rr := do(t, srv, http.MethodPost, "/api/reload")
	if rr.Code != http.StatusOK {
		t.Fatalf("reload status=%d body=%s", rr.Code, rr.Body.String())
	}
	var body struct {
		Version uint64 `json:"version"`
		Records int    `json:"records"`
	}
	decode(t, rr, &body)
	if body.Version != 1 || body.Records != 3 {
		t.Errorf("unexpected reload body: %+v", body)
	}

	// A failing reload reports 502 but the previous dataset keeps serving.
	src.fail(errors.New("boom"))
	if rr := do(t, srv, http.MethodPost, "/api/reload"); rr.Code != http.StatusBadGateway {
		t.Errorf("failed reload status=%d, want 502", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/summary"); rr.Code != http.StatusOK {
		t.Errorf("summary after failed reload status=%d, want 200", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/api/reload")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("third reload status=%d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("Retry-After should be set")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &stubSource{records: testRecords()}, Options{})
	if rr := do(t, srv, http.MethodGet, "/api/reload"); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/reload status=%d, want 405", rr.Code)
	}
}

func TestGeoViewPlaceableOnly(t *testing.T) {
	records := append(testRecords(), core.SpendRecord{Country: "Atlantis", Level1: "Travel", Date: "2024-02-01", Amount: 10})
	srv := newTestServer(t, &stubSource{records: records}, Options{})

	countries := func(target string) []string {
		rr := do(t, srv, http.MethodGet, target)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", target, rr.Code)
		}
		var geo struct {
			Countries []struct {
				Country string `json:"country"`
			} `json:"countries"`
		}
		decode(t, rr, &geo)
		out := make([]string, 0, len(geo.Countries))
		for _, c := range geo.Countries {
			out = append(out, c.Country)
		}
		return out
	}

	if got := strings.Join(countries("/api/views/geo"), ","); got != "USA,Germany,Atlantis" {
		t.Errorf("all countries = %s", got)
	}
	if got := strings.Join(countries("/api/views/geo?placeable=true"), ","); got != "USA,Germany" {
		t.Errorf("placeable countries = %s", got)
	}
}

func TestImportHistory(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(t.TempDir() + "/spend.db")
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	srv := newTestServer(t, &stubSource{records: testRecords()}, Options{Imports: repo})
	ctx := context.Background()

	var body struct {
		Count   int              `json:"count"`
		Imports []storage.Import `json:"imports"`
	}
	rr := do(t, srv, http.MethodGet, "/api/imports")
	if rr.Code != http.StatusOK {
		t.Fatalf("imports status=%d", rr.Code)
	}
	decode(t, rr, &body)
	if body.Count != 0 || body.Imports == nil {
		t.Fatalf("empty history = %+v, want empty list", body)
	}

	do(t, srv, http.MethodGet, "/api/summary")
	var ready struct {
		Checks map[string]json.RawMessage `json:"checks"`
	}
	decode(t, do(t, srv, http.MethodGet, "/readyz"), &ready)
	if string(ready.Checks["lastImport"]) != `"none"` {
		t.Errorf("lastImport before any import = %s", ready.Checks["lastImport"])
	}

	for _, name := range []string{"first", "second", "third"} {
		if _, err := repo.ReplaceAll(ctx, name, testRecords()); err != nil {
			t.Fatalf("ReplaceAll: %v", err)
		}
	}

	rr = do(t, srv, http.MethodGet, "/api/imports?limit=2")
	if rr.Code != http.StatusOK {
		t.Fatalf("imports status=%d", rr.Code)
	}
	decode(t, rr, &body)
	if body.Count != 2 || body.Imports[0].Source != "third" || body.Imports[1].Source != "second" {
		t.Errorf("imports = %+v, want newest two", body.Imports)
	}

	decode(t, do(t, srv, http.MethodGet, "/readyz"), &ready)
	var last storage.Import
	if err := json.Unmarshal(ready.Checks["lastImport"], &last); err != nil {
		t.Fatalf("decode lastImport: %v", err)
	}
	if last.Source != "third" || last.RecordCount != len(testRecords()) {
		t.Errorf("lastImport = %+v", last)
	}

	if rr := do(t, srv, http.MethodGet, "/api/imports?limit=0"); rr.Code != http.StatusBadRequest {
		t.Errorf("limit=0 status=%d, want 400", rr.Code)
	}
}

func TestImportHistoryWithoutStore(t *testing.T) {
	srv := newTestServer(t, &stubSource{records: testRecords()}, Options{})
	if rr := do(t, srv, http.MethodGet, "/api/imports"); rr.Code != http.StatusNotFound {
		t.Errorf("imports status=%d, want 404", rr.Code)
	}
}
