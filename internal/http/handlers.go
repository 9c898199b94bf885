package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"spendboard/internal/dashboard"
	"spendboard/internal/log"
	"spendboard/internal/storage"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady reports 503 until a dataset has been loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.svc.Current()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"checks": map[string]any{"dataset": "not loaded"},
		})
		return
	}
	checks := map[string]any{
		"dataset": map[string]any{
			"version":  ds.Version,
			"source":   ds.Source,
			"records":  len(ds.Records),
			"loadedAt": ds.LoadedAt.Format(time.RFC3339),
		},
	}
	if s.imports != nil {
		ctx := r.Context()
		imp, err := s.imports.LatestImport(ctx)
		switch {
		case err == nil:
			checks["lastImport"] = imp
		case errors.Is(err, storage.ErrNoImports):
			checks["lastImport"] = "none"
		default:
			log.FromContext(ctx).WarnContext(ctx, "Import history unavailable", log.FieldError, err)
			checks["lastImport"] = "unavailable"
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"checks": checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.tracer.GetMetrics()
	rateLimitMetrics := s.limiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()
	cacheStats := s.svc.Results().Stats()
	records := 0
	if ds, ok := s.svc.Current(); ok {
		records = len(ds.Records)
	}

	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %v\n\n", name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_request_duration_avg_microseconds", "gauge", "Average request duration", traceMetrics.AverageResponseTime)
	metric("dataset_version", "gauge", "Version of the loaded dataset", s.svc.Version())
	metric("dataset_records", "gauge", "Records in the loaded dataset", records)
	metric("cache_entries", "gauge", "Current dashboard cache entries", cacheStats.Size)
	metric("cache_hits_total", "counter", "Total dashboard cache hits", cacheStats.Hits)
	metric("cache_misses_total", "counter", "Total dashboard cache misses", cacheStats.Misses)
	metric("rate_limit_hits_total", "counter", "Total rate limit hits", rateLimitMetrics.TotalHits)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", fmt.Sprintf("%.0f", time.Since(s.startedAt).Seconds()))
}

// build loads the dataset when needed and derives the views for the request.
// It writes the error response itself and returns nil on failure.
func (s *Server) build(w http.ResponseWriter, r *http.Request) *dashboard.Result {
	ctx := r.Context()
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil
	}

	if _, err := s.svc.Ensure(ctx); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Dataset unavailable", log.FieldError, err, log.FieldPath, r.URL.Path)
		writeError(w, http.StatusBadGateway, errLoadFailed)
		return nil
	}

	res, err := s.svc.Build(ctx, q)
	if err != nil {
		if errors.Is(err, dashboard.ErrNoDataset) {
			writeError(w, http.StatusBadGateway, errLoadFailed)
		} else {
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return nil
	}
	return res
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if res := s.build(w, r); res != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"datasetVersion": res.DatasetVersion,
			"count":          len(res.Records),
			"records":        res.Records,
		})
	}
}

func (s *Server) handleFacets(w http.ResponseWriter, r *http.Request) {
	if res := s.build(w, r); res != nil {
		writeJSON(w, http.StatusOK, res.Facets)
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if res := s.build(w, r); res != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"summary": res.Summary,
			"cards":   res.Cards,
		})
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if res := s.build(w, r); res != nil {
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleTreemap(w http.ResponseWriter, r *http.Request) {
	if res := s.build(w, r); res != nil {
		writeJSON(w, http.StatusOK, res.Treemap)
	}
}

func (s *Server) handleSunburst(w http.ResponseWriter, r *http.Request) {
	if res := s.build(w, r); res != nil {
		writeJSON(w, http.StatusOK, res.Sunburst)
	}
}

// handleGeo serves the geo view. With ?placeable=true countries without a
// map coordinate are left out.
func (s *Server) handleGeo(w http.ResponseWriter, r *http.Request) {
	placeable, err := boolParam(r.URL.Query(), paramPlaceable)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res := s.build(w, r)
	if res == nil {
		return
	}
	geo := res.Geo
	if placeable {
		geo.Countries = geo.Placeable()
	}
	writeJSON(w, http.StatusOK, geo)
}

func (s *Server) handleTemporal(w http.ResponseWriter, r *http.Request) {
	if res := s.build(w, r); res != nil {
		writeJSON(w, http.StatusOK, res.Temporal)
	}
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	if res := s.build(w, r); res != nil {
		writeJSON(w, http.StatusOK, res.Heatmap)
	}
}

// handleImports lists the newest stored snapshots. Only backends that keep
// an import history serve it.
func (s *Server) handleImports(w http.ResponseWriter, r *http.Request) {
	if s.imports == nil {
		writeError(w, http.StatusNotFound, "import history not available for this backend")
		return
	}
	limit, err := limitParam(r.URL.Query(), 20, maxImportsLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx := r.Context()
	imports, err := s.imports.Imports(ctx, limit)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Listing imports failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if imports == nil {
		imports = []storage.Import{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(imports),
		"imports": imports,
	})
}

// handleReload refetches the record set. A failed reload keeps serving the
// previous dataset.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ds, err := s.svc.Reload(ctx)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Reload failed", log.FieldError, err, log.FieldOperation, log.OpReload)
		writeError(w, http.StatusBadGateway, errLoadFailed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version":  ds.Version,
		"source":   ds.Source,
		"records":  len(ds.Records),
		"loadedAt": ds.LoadedAt.Format(time.RFC3339),
	})
}
