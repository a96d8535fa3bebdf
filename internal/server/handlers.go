package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/rigmatch/rigmatch/internal/catalog"
	"github.com/rigmatch/rigmatch/internal/compat"
	"github.com/rigmatch/rigmatch/internal/power"
	"github.com/rigmatch/rigmatch/internal/version"
	"github.com/rigmatch/rigmatch/pkg/models"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20

// maxSuggestions caps the "did you mean" list on 404 responses.
const maxSuggestions = 3

var validResolutions = map[string]bool{"1080p": true, "1440p": true, "4K": true}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// parseType validates an optional component type query value.
func parseType(raw string) (models.ComponentType, error) {
	if raw == "" {
		return "", nil
	}
	t := models.ComponentType(strings.ToUpper(raw))
	if !t.Valid() {
		return "", fmt.Errorf("unknown component type %q", raw)
	}
	return t, nil
}

// componentSummary is the compact record representation used in
// responses that embed components.
type componentSummary struct {
	Name            string               `json:"name"`
	Type            models.ComponentType `json:"type"`
	RawScore        int                  `json:"raw_score"`
	NormalizedScore int                  `json:"normalized_score"`
	Tier            models.Tier          `json:"tier"`
}

func summarize(rec models.ComponentRecord) componentSummary {
	return componentSummary{
		Name:            rec.Name,
		Type:            rec.Type,
		RawScore:        rec.RawScore,
		NormalizedScore: rec.NormalizedScore,
		Tier:            rec.Tier,
	}
}

// resolveRecord resolves a free-text name to a full catalog record. When
// nothing resolves it returns nil and up to maxSuggestions near-miss
// names for the 404 body.
func (s *Server) resolveRecord(ctx context.Context, query string, t models.ComponentType) (*models.ComponentRecord, []string, error) {
	candidates, err := s.deps.Matcher.Resolve(ctx, query, t)
	if err != nil {
		return nil, nil, err
	}
	if len(candidates) == 0 {
		return nil, nil, nil
	}

	top := candidates[0]
	rec, err := s.deps.Store.Get(ctx, top.Name, t)
	if errors.Is(err, catalog.ErrNotFound) {
		// The matcher saw a record the store no longer has; treat as a
		// miss with the remaining candidates as suggestions.
		err = nil
		rec = nil
	}
	if err != nil {
		return nil, nil, err
	}
	if rec != nil {
		return rec, nil, nil
	}

	var suggestions []string
	for _, c := range candidates {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, c.Name)
	}
	return nil, suggestions, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	counts := map[string]int{}
	for _, t := range []models.ComponentType{models.TypeCPU, models.TypeGPU, models.TypeRAM, models.TypeStorage} {
		n, err := s.deps.Store.Count(r.Context(), t)
		if err != nil {
			InternalError(w, err.Error(), r.URL.Path)
			return
		}
		counts[string(t)] = n
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"service":    "rigmatch",
		"version":    version.Short(),
		"components": counts,
	})
}

// handleSearch resolves a name and returns the single best match.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		BadRequest(w, "name parameter is required", r.URL.Path)
		return
	}
	t, err := parseType(r.URL.Query().Get("type"))
	if err != nil {
		BadRequest(w, err.Error(), r.URL.Path)
		return
	}

	candidates, err := s.deps.Matcher.Resolve(r.Context(), name, t)
	if err != nil {
		InternalError(w, err.Error(), r.URL.Path)
		return
	}
	if len(candidates) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"found": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"found":     true,
		"component": candidates[0],
	})
}

// handleResolve returns the full ranked candidate list for a query.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query         string `json:"query"`
		ComponentType string `json:"component_type"`
	}
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	if req.Query == "" {
		BadRequest(w, "query is required", r.URL.Path)
		return
	}
	t, err := parseType(req.ComponentType)
	if err != nil {
		BadRequest(w, err.Error(), r.URL.Path)
		return
	}

	matches, err := s.deps.Matcher.Resolve(r.Context(), req.Query, t)
	if err != nil {
		InternalError(w, err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"matches":        matches,
		"fallback_used":  len(matches) == 0,
		"query":          req.Query,
		"component_type": t,
	})
}

// handleComponents lists catalog rows with optional filters.
func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t, err := parseType(q.Get("type"))
	if err != nil {
		BadRequest(w, err.Error(), r.URL.Path)
		return
	}

	records, err := s.deps.Store.Lookup(r.Context(), catalog.Filter{
		Type:        t,
		NamePattern: q.Get("name"),
		Segment:     models.MarketSegment(q.Get("segment")),
	})
	if err != nil {
		InternalError(w, err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"components": records,
		"count":      len(records),
	})
}

// handleComponentsTop lists the strongest components of a type.
func (s *Server) handleComponentsTop(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t, err := parseType(q.Get("type"))
	if err != nil || t == "" {
		BadRequest(w, "type parameter is required", r.URL.Path)
		return
	}

	limit := 10
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			BadRequest(w, "limit must be a positive integer", r.URL.Path)
			return
		}
	}

	records, err := s.deps.Store.ListTop(r.Context(), t, limit, models.MarketSegment(q.Get("segment")))
	if err != nil {
		InternalError(w, err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"components": records,
		"count":      len(records),
	})
}

// handleCompare resolves several names of one type and reports their
// scores relative to the strongest.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t, err := parseType(q.Get("type"))
	if err != nil || t == "" {
		BadRequest(w, "type parameter is required", r.URL.Path)
		return
	}
	names := strings.Split(q.Get("names"), ",")
	if len(names) < 2 || q.Get("names") == "" {
		BadRequest(w, "names must list at least two comma-separated components", r.URL.Path)
		return
	}

	type compared struct {
		componentSummary
		RelativePct float64 `json:"relative_pct"`
	}

	var records []models.ComponentRecord
	for _, name := range names {
		rec, suggestions, err := s.resolveRecord(r.Context(), strings.TrimSpace(name), t)
		if err != nil {
			InternalError(w, err.Error(), r.URL.Path)
			return
		}
		if rec == nil {
			NotFoundWithSuggestions(w, fmt.Sprintf("component not found: %s", name), r.URL.Path, suggestions)
			return
		}
		records = append(records, *rec)
	}

	best := 0
	for _, rec := range records {
		if rec.RawScore > best {
			best = rec.RawScore
		}
	}
	out := make([]compared, len(records))
	for i, rec := range records {
		out[i] = compared{componentSummary: summarize(rec)}
		if best > 0 {
			out[i].RelativePct = float64(rec.RawScore) / float64(best) * 100
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"components": out})
}

// handleCategories describes the configured workload categories.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats := s.deps.Engine.Categories().All()
	type categoryInfo struct {
		Name          string   `json:"name"`
		DisplayName   string   `json:"display_name"`
		Weight        float64  `json:"weight"`
		CPUImportance float64  `json:"cpu_importance"`
		GPUImportance float64  `json:"gpu_importance"`
		Examples      []string `json:"examples"`
		Description   string   `json:"description"`
	}
	out := make([]categoryInfo, len(cats))
	for i, c := range cats {
		out[i] = categoryInfo{
			Name:          c.Name,
			DisplayName:   c.DisplayName,
			Weight:        c.Weight,
			CPUImportance: c.CPUImportance,
			GPUImportance: c.GPUImportance,
			Examples:      c.Examples,
			Description:   c.Description,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": out})
}

// resolvePair resolves the cpu and gpu names shared by the pairing
// endpoints, writing the error response itself on failure.
func (s *Server) resolvePair(w http.ResponseWriter, r *http.Request, cpuName, gpuName string) (cpu, gpu *models.ComponentRecord, ok bool) {
	cpu, suggestions, err := s.resolveRecord(r.Context(), cpuName, models.TypeCPU)
	if err != nil {
		InternalError(w, err.Error(), r.URL.Path)
		return nil, nil, false
	}
	if cpu == nil {
		NotFoundWithSuggestions(w, "CPU not found: "+cpuName, r.URL.Path, suggestions)
		return nil, nil, false
	}

	gpu, suggestions, err = s.resolveRecord(r.Context(), gpuName, models.TypeGPU)
	if err != nil {
		InternalError(w, err.Error(), r.URL.Path)
		return nil, nil, false
	}
	if gpu == nil {
		NotFoundWithSuggestions(w, "GPU not found: "+gpuName, r.URL.Path, suggestions)
		return nil, nil, false
	}
	return cpu, gpu, true
}

type pairingRequest struct {
	CPU string `json:"cpu"`
	GPU string `json:"gpu"`
}

func (s *Server) handleAnalyzePairing(w http.ResponseWriter, r *http.Request) {
	var req pairingRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	if req.CPU == "" || req.GPU == "" {
		BadRequest(w, "both cpu and gpu are required", r.URL.Path)
		return
	}

	cpu, gpu, ok := s.resolvePair(w, r, req.CPU, req.GPU)
	if !ok {
		return
	}

	analysis := s.deps.Engine.AnalyzePairing(*cpu, *gpu)
	writeJSON(w, http.StatusOK, map[string]any{
		"cpu":                   summarize(*cpu),
		"gpu":                   summarize(*gpu),
		"overall_balance_score": analysis.OverallBalanceScore,
		"overall_verdict":       analysis.OverallVerdict,
		"overall_bottleneck":    analysis.OverallBottleneck,
		"by_category":           analysis.ByCategory,
	})
}

func (s *Server) handleRecommendPairing(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CPU           string `json:"cpu"`
		GPU           string `json:"gpu"`
		FocusCategory string `json:"focus_category"`
		Limit         int    `json:"limit"`
	}
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	if (req.CPU == "") == (req.GPU == "") {
		BadRequest(w, "provide exactly one of cpu or gpu", r.URL.Path)
		return
	}
	if req.FocusCategory != "" {
		if _, ok := s.deps.Engine.Categories().Get(req.FocusCategory); !ok {
			BadRequest(w, "unknown focus category: "+req.FocusCategory, r.URL.Path)
			return
		}
	}
	if req.Limit <= 0 {
		req.Limit = 5
	}

	baseName, baseType := req.CPU, models.TypeCPU
	if req.GPU != "" {
		baseName, baseType = req.GPU, models.TypeGPU
	}

	base, suggestions, err := s.resolveRecord(r.Context(), baseName, baseType)
	if err != nil {
		InternalError(w, err.Error(), r.URL.Path)
		return
	}
	if base == nil {
		NotFoundWithSuggestions(w, fmt.Sprintf("%s not found: %s", baseType, baseName), r.URL.Path, suggestions)
		return
	}

	candidates, err := s.deps.Store.ListTop(r.Context(), base.Type.Complement(), candidatePoolSize, models.SegmentConsumer)
	if err != nil {
		InternalError(w, err.Error(), r.URL.Path)
		return
	}

	recs, err := s.deps.Ranker.Recommend(*base, candidates, req.FocusCategory, req.Limit)
	if err != nil {
		InternalError(w, err.Error(), r.URL.Path)
		return
	}

	type recommendation struct {
		componentSummary
		MatchScore         int                             `json:"match_score"`
		BalanceDescription string                          `json:"balance_description"`
		CategoryScores     map[string]models.CategoryScore `json:"category_scores"`
	}
	out := make([]recommendation, len(recs))
	for i, rec := range recs {
		out[i] = recommendation{
			componentSummary:   summarize(rec.Component),
			MatchScore:         rec.MatchScore,
			BalanceDescription: balanceDescription(rec.MatchScore),
			CategoryScores:     rec.CategoryScores,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"base_component":      summarize(*base),
		"base_component_type": base.Type,
		"focus_category":      req.FocusCategory,
		"recommendations":     out,
	})
}

func balanceDescription(matchScore int) string {
	switch {
	case matchScore >= 90:
		return "Perfect match"
	case matchScore >= 80:
		return "Excellent balance"
	case matchScore >= 70:
		return "Very good balance"
	}
	return "Good balance"
}

func (s *Server) handleGamingProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CPU        string `json:"cpu"`
		GPU        string `json:"gpu"`
		Resolution string `json:"resolution"`
	}
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	if req.CPU == "" || req.GPU == "" {
		BadRequest(w, "both cpu and gpu are required", r.URL.Path)
		return
	}
	if req.Resolution == "" {
		req.Resolution = "1080p"
	}
	if !validResolutions[req.Resolution] {
		BadRequest(w, "resolution must be one of 1080p, 1440p, 4K", r.URL.Path)
		return
	}

	cpu, gpu, ok := s.resolvePair(w, r, req.CPU, req.GPU)
	if !ok {
		return
	}

	profile := s.deps.Engine.GamingProfile(*cpu, *gpu, req.Resolution)
	writeJSON(w, http.StatusOK, map[string]any{
		"cpu":     summarize(*cpu),
		"gpu":     summarize(*gpu),
		"profile": profile,
	})
}

// handleEstimatePerformance projects what a single component delivers at
// a resolution.
func (s *Server) handleEstimatePerformance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		BadRequest(w, "name parameter is required", r.URL.Path)
		return
	}
	t, err := parseType(q.Get("type"))
	if err != nil || (t != models.TypeCPU && t != models.TypeGPU) {
		BadRequest(w, "type must be CPU or GPU", r.URL.Path)
		return
	}
	resolution := q.Get("resolution")
	if resolution == "" {
		resolution = "1080p"
	}
	if !validResolutions[resolution] {
		BadRequest(w, "resolution must be one of 1080p, 1440p, 4K", r.URL.Path)
		return
	}

	rec, suggestions, err := s.resolveRecord(r.Context(), name, t)
	if err != nil {
		InternalError(w, err.Error(), r.URL.Path)
		return
	}
	if rec == nil {
		NotFoundWithSuggestions(w, "component not found: "+name, r.URL.Path, suggestions)
		return
	}

	fpsByCategory := map[string]string{}
	for _, cat := range s.deps.Engine.Categories().All() {
		fps := compat.EstimateFPS(rec.NormalizedScore, resolution, "high", cat.Name)
		fpsByCategory[cat.Name] = fmt.Sprintf("~%d FPS", fps)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"component":        summarize(*rec),
		"resolution":       resolution,
		"performance_tier": compat.PerformanceTierForResolution(rec.NormalizedScore, resolution),
		"fps_by_category":  fpsByCategory,
	})
}

func (s *Server) handlePowerAnalysis(w http.ResponseWriter, r *http.Request) {
	var req pairingRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	if req.CPU == "" || req.GPU == "" {
		BadRequest(w, "both cpu and gpu are required", r.URL.Path)
		return
	}

	cpu, gpu, ok := s.resolvePair(w, r, req.CPU, req.GPU)
	if !ok {
		return
	}

	analysis := s.deps.Power.Analyze(*cpu, *gpu)
	s.logger.Debug("power analysis served",
		zap.String("cpu", cpu.Name),
		zap.String("gpu", gpu.Name),
		zap.Int("recommended_psu", analysis.RecommendedPSUWatts))
	writeJSON(w, http.StatusOK, map[string]any{
		"cpu":            summarize(*cpu),
		"gpu":            summarize(*gpu),
		"power":          analysis,
		"estimated_cost": power.MonthlyCost(analysis.EstimatedGamingWatts, 4, 0.15),
	})
}
