package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/rigmatch/rigmatch/internal/catalog"
	"github.com/rigmatch/rigmatch/internal/compat"
	"github.com/rigmatch/rigmatch/internal/match"
	"github.com/rigmatch/rigmatch/internal/power"
	"github.com/rigmatch/rigmatch/internal/recommend"
	"github.com/rigmatch/rigmatch/internal/sched"
	"github.com/rigmatch/rigmatch/internal/scrape"
	"github.com/rigmatch/rigmatch/pkg/models"
)

type stubFetcher struct{}

func (stubFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return nil, context.Canceled
}

func seedRecord(t *testing.T, store *catalog.Store, rec models.ComponentRecord) {
	t.Helper()
	if err := store.Upsert(context.Background(), &rec); err != nil {
		t.Fatalf("seed %s: %v", rec.Name, err)
	}
}

// newTestServer builds a fully wired server over a file-backed catalog
// seeded with a small set of components.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := zap.NewNop()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "rigmatch.db")

	store, err := catalog.Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	seedRecord(t, store, models.ComponentRecord{
		Name: "AMD Ryzen 5 7600", NormalizedName: "ryzen 5 7600",
		Type: models.TypeCPU, Segment: models.SegmentConsumer,
		RawScore: 25000, NormalizedScore: 80, Tier: models.TierHigh,
		Cores: 6, Threads: 12, SingleThreadRating: 3200, TDPWatts: 65,
	})
	seedRecord(t, store, models.ComponentRecord{
		Name: "Intel Core i5-13600K", NormalizedName: "core i513600k",
		Type: models.TypeCPU, Segment: models.SegmentConsumer,
		RawScore: 26000, NormalizedScore: 80, Tier: models.TierHigh,
		Cores: 14, Threads: 20, SingleThreadRating: 4000, TDPWatts: 125,
	})
	seedRecord(t, store, models.ComponentRecord{
		Name: "NVIDIA GeForce RTX 4060", NormalizedName: "rtx 4060",
		Type: models.TypeGPU, Segment: models.SegmentConsumer,
		RawScore: 20000, NormalizedScore: 80, Tier: models.TierHigh,
		MemorySizeGB: 8, TDPWatts: 115,
	})
	seedRecord(t, store, models.ComponentRecord{
		Name: "NVIDIA GeForce RTX 3060", NormalizedName: "rtx 3060",
		Type: models.TypeGPU, Segment: models.SegmentConsumer,
		RawScore: 17000, NormalizedScore: 65, Tier: models.TierMid,
		MemorySizeGB: 12, TDPWatts: 170,
	})

	engine := compat.NewEngine(compat.DefaultCategories(), logger)
	tracker := scrape.NewTracker()
	reg := prometheus.NewRegistry()

	scheduler, err := sched.New(sched.Config{Enabled: false}, nil, logger)
	if err != nil {
		t.Fatalf("scheduler: %v", err)
	}

	deps := Deps{
		Store:     store,
		Matcher:   match.New(store, logger),
		Engine:    engine,
		Ranker:    recommend.New(engine, recommend.DefaultOptions(), logger),
		Power:     power.NewEstimator(power.DefaultHeadroomPercent),
		Scraper:   scrape.NewScraper(stubFetcher{}, store, tracker, scrape.NewMetrics(reg), 0, logger),
		Tracker:   tracker,
		Scheduler: scheduler,
		Auth:      NewAuthenticator("test-secret", time.Hour),

		DBPath:     dbPath,
		BackupDir:  filepath.Join(dir, "backups"),
		BackupKeep: 7,
		// ProfilesPath empty: reload falls back to the built-in categories.

		Registry: reg,
		Logger:   logger,
	}
	return New("127.0.0.1:0", deps)
}

func TestNewAppliesConfiguredTimeouts(t *testing.T) {
	deps := Deps{
		Auth:         NewAuthenticator("test-secret", time.Hour),
		Logger:       zap.NewNop(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 45 * time.Second,
	}
	srv := New("127.0.0.1:0", deps)
	if srv.httpServer.ReadTimeout != 3*time.Second {
		t.Errorf("read timeout = %v, want 3s", srv.httpServer.ReadTimeout)
	}
	if srv.httpServer.WriteTimeout != 45*time.Second {
		t.Errorf("write timeout = %v, want 45s", srv.httpServer.WriteTimeout)
	}

	srv = New("127.0.0.1:0", Deps{Auth: deps.Auth, Logger: deps.Logger})
	if srv.httpServer.ReadTimeout != 15*time.Second || srv.httpServer.WriteTimeout != 15*time.Second {
		t.Errorf("zero-value timeouts = %v/%v, want 15s defaults",
			srv.httpServer.ReadTimeout, srv.httpServer.WriteTimeout)
	}
}

func doJSON(t *testing.T, srv *Server, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("%s %s: decode response %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w, decoded
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	w, body := doJSON(t, srv, http.MethodGet, "/api/v1/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
	counts := body["components"].(map[string]any)
	if counts["CPU"].(float64) != 2 || counts["GPU"].(float64) != 2 {
		t.Errorf("counts = %v, want 2 CPUs and 2 GPUs", counts)
	}
}

func TestSearch(t *testing.T) {
	srv := newTestServer(t)

	w, body := doJSON(t, srv, http.MethodGet, "/api/v1/search?name=Ryzen+5+7600&type=CPU", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body["found"] != true {
		t.Fatalf("found = %v, want true", body["found"])
	}
	comp := body["component"].(map[string]any)
	if comp["name"] != "AMD Ryzen 5 7600" {
		t.Errorf("name = %v", comp["name"])
	}
	if comp["match_type"] != "exact_normalized" {
		t.Errorf("match_type = %v", comp["match_type"])
	}
}

func TestSearchMiss(t *testing.T) {
	srv := newTestServer(t)

	w, body := doJSON(t, srv, http.MethodGet, "/api/v1/search?name=zzzzzz&type=CPU", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body["found"] != false {
		t.Errorf("found = %v, want false", body["found"])
	}
}

func TestSearchRequiresName(t *testing.T) {
	srv := newTestServer(t)

	w, _ := doJSON(t, srv, http.MethodGet, "/api/v1/search", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestResolve(t *testing.T) {
	srv := newTestServer(t)

	w, body := doJSON(t, srv, http.MethodPost, "/api/v1/resolve",
		`{"query": "rtx 4060", "component_type": "GPU"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	matches := body["matches"].([]any)
	if len(matches) == 0 {
		t.Fatal("expected at least one match")
	}
	if body["fallback_used"] != false {
		t.Errorf("fallback_used = %v, want false", body["fallback_used"])
	}
	if body["component_type"] != "GPU" {
		t.Errorf("component_type = %v, want GPU", body["component_type"])
	}
}

func TestComponentsTop(t *testing.T) {
	srv := newTestServer(t)

	w, body := doJSON(t, srv, http.MethodGet, "/api/v1/components/top?type=GPU&limit=1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	comps := body["components"].([]any)
	if len(comps) != 1 {
		t.Fatalf("got %d components, want 1", len(comps))
	}
	top := comps[0].(map[string]any)
	if top["name"] != "NVIDIA GeForce RTX 4060" {
		t.Errorf("top GPU = %v", top["name"])
	}
}

func TestComponentsTopRequiresType(t *testing.T) {
	srv := newTestServer(t)

	w, _ := doJSON(t, srv, http.MethodGet, "/api/v1/components/top", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestCompare(t *testing.T) {
	srv := newTestServer(t)

	w, body := doJSON(t, srv, http.MethodGet,
		"/api/v1/compare?type=CPU&names=AMD+Ryzen+5+7600,Intel+Core+i5-13600K", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	comps := body["components"].([]any)
	if len(comps) != 2 {
		t.Fatalf("got %d components, want 2", len(comps))
	}
	first := comps[0].(map[string]any)
	second := comps[1].(map[string]any)
	if second["relative_pct"].(float64) != 100 {
		t.Errorf("strongest relative_pct = %v, want 100", second["relative_pct"])
	}
	if pct := first["relative_pct"].(float64); pct >= 100 || pct < 90 {
		t.Errorf("weaker relative_pct = %v, want in [90, 100)", pct)
	}
}

func TestCategories(t *testing.T) {
	srv := newTestServer(t)

	w, body := doJSON(t, srv, http.MethodGet, "/api/v1/categories", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	cats := body["categories"].([]any)
	if len(cats) != 4 {
		t.Fatalf("got %d categories, want 4", len(cats))
	}
	first := cats[0].(map[string]any)
	if first["name"] != "esport" {
		t.Errorf("first category = %v, want esport", first["name"])
	}
}

func TestAnalyzePairing(t *testing.T) {
	srv := newTestServer(t)

	w, body := doJSON(t, srv, http.MethodPost, "/api/v1/analyze-pairing",
		`{"cpu": "ryzen 5 7600", "gpu": "rtx 4060"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if body["overall_balance_score"].(float64) <= 0 {
		t.Errorf("overall_balance_score = %v, want > 0", body["overall_balance_score"])
	}
	byCat := body["by_category"].(map[string]any)
	if len(byCat) != 4 {
		t.Errorf("by_category has %d entries, want 4", len(byCat))
	}
}

func TestAnalyzePairingUnknownCPU(t *testing.T) {
	srv := newTestServer(t)

	w, body := doJSON(t, srv, http.MethodPost, "/api/v1/analyze-pairing",
		`{"cpu": "zzzzzz", "gpu": "rtx 4060"}`, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if body["type"] != ProblemTypeNotFound {
		t.Errorf("problem type = %v", body["type"])
	}
}

func TestRecommendPairing(t *testing.T) {
	srv := newTestServer(t)

	w, body := doJSON(t, srv, http.MethodPost, "/api/v1/recommend-pairing",
		`{"cpu": "ryzen 5 7600"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if body["base_component_type"] != "CPU" {
		t.Errorf("base_component_type = %v, want CPU", body["base_component_type"])
	}
	recs := body["recommendations"].([]any)
	if len(recs) == 0 {
		t.Fatal("expected at least one recommendation")
	}
	first := recs[0].(map[string]any)
	if first["match_score"].(float64) < 40 {
		t.Errorf("match_score = %v, want >= 40", first["match_score"])
	}
	if first["balance_description"] == "" {
		t.Error("expected a balance description")
	}
}

func TestRecommendPairingRequiresExactlyOneBase(t *testing.T) {
	srv := newTestServer(t)

	for _, body := range []string{`{}`, `{"cpu": "a", "gpu": "b"}`} {
		w, _ := doJSON(t, srv, http.MethodPost, "/api/v1/recommend-pairing", body, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestGamingProfile(t *testing.T) {
	srv := newTestServer(t)

	w, body := doJSON(t, srv, http.MethodPost, "/api/v1/gaming-profile",
		`{"cpu": "ryzen 5 7600", "gpu": "rtx 4060", "resolution": "1440p"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if _, ok := body["profile"]; !ok {
		t.Fatal("expected a profile in the response")
	}
}

func TestGamingProfileRejectsBadResolution(t *testing.T) {
	srv := newTestServer(t)

	w, _ := doJSON(t, srv, http.MethodPost, "/api/v1/gaming-profile",
		`{"cpu": "ryzen 5 7600", "gpu": "rtx 4060", "resolution": "720p"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestEstimatePerformance(t *testing.T) {
	srv := newTestServer(t)

	w, body := doJSON(t, srv, http.MethodGet,
		"/api/v1/estimate-performance?name=rtx+4060&type=GPU&resolution=1440p", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if body["performance_tier"] == "" {
		t.Error("expected a performance tier")
	}
	fps := body["fps_by_category"].(map[string]any)
	if len(fps) != 4 {
		t.Errorf("fps_by_category has %d entries, want 4", len(fps))
	}
}

func TestPowerAnalysis(t *testing.T) {
	srv := newTestServer(t)

	w, body := doJSON(t, srv, http.MethodPost, "/api/v1/power-analysis",
		`{"cpu": "ryzen 5 7600", "gpu": "rtx 4060"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	pwr := body["power"].(map[string]any)
	// 65 + 115 + 100 overhead = 280W, * 1.3 headroom = 364 -> 450W PSU.
	if pwr["recommended_psu"].(float64) != 450 {
		t.Errorf("recommended_psu = %v, want 450", pwr["recommended_psu"])
	}
	if _, ok := body["estimated_cost"]; !ok {
		t.Error("expected an estimated_cost block")
	}
}

func TestScrapeRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	w, body := doJSON(t, srv, http.MethodPost, "/api/v1/scrape", `{}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if body["type"] != ProblemTypeUnauthorized {
		t.Errorf("problem type = %v", body["type"])
	}
}

func TestScrapeRejectsUnknownType(t *testing.T) {
	srv := newTestServer(t)
	token, err := srv.deps.Auth.IssueToken("test")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	w, _ := doJSON(t, srv, http.MethodPost, "/api/v1/scrape",
		`{"types": ["MOTHERBOARD"]}`,
		map[string]string{"Authorization": "Bearer " + token})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestScrapeStatus(t *testing.T) {
	srv := newTestServer(t)

	w, body := doJSON(t, srv, http.MethodGet, "/api/v1/scrape/status", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body["is_running"] != false {
		t.Errorf("is_running = %v, want false", body["is_running"])
	}
}

func TestSchedulerStatus(t *testing.T) {
	srv := newTestServer(t)

	w, body := doJSON(t, srv, http.MethodGet, "/api/v1/scheduler/status", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body["enabled"] != false {
		t.Errorf("enabled = %v, want false", body["enabled"])
	}
}

func TestBackupCreateAndList(t *testing.T) {
	srv := newTestServer(t)
	token, err := srv.deps.Auth.IssueToken("test")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	w, body := doJSON(t, srv, http.MethodPost, "/api/v1/backup", "",
		map[string]string{"Authorization": "Bearer " + token})
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d, want 200: %s", w.Code, w.Body.String())
	}
	archive := body["archive"].(string)
	if _, err := os.Stat(archive); err != nil {
		t.Fatalf("archive not on disk: %v", err)
	}

	w, body = doJSON(t, srv, http.MethodGet, "/api/v1/backup", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", w.Code)
	}
	backups := body["backups"].([]any)
	if len(backups) != 1 {
		t.Fatalf("got %d backups, want 1", len(backups))
	}
}

func TestConfigReload(t *testing.T) {
	srv := newTestServer(t)
	token, err := srv.deps.Auth.IssueToken("test")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	w, _ := doJSON(t, srv, http.MethodPost, "/api/v1/config/reload", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", w.Code)
	}

	w, body := doJSON(t, srv, http.MethodPost, "/api/v1/config/reload", "",
		map[string]string{"Authorization": "Bearer " + token})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if body["reloaded"] != true {
		t.Errorf("reloaded = %v, want true", body["reloaded"])
	}
	if body["categories"].(float64) != 4 {
		t.Errorf("categories = %v, want 4", body["categories"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
