package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"tile_iocgen/internal/config"
	"tile_iocgen/internal/device"
	"tile_iocgen/internal/ioc"
	"tile_iocgen/internal/metrics"
)

// Handler serves the read-only inspection API: health, metrics, and a
// dry-run generation preview. It never writes config files.
type Handler struct {
	log        zerolog.Logger
	cfg        *config.Config
	store      device.Store
	dispatcher *ioc.Dispatcher
	metrics    *metrics.Metrics
}

func NewHandler(log zerolog.Logger, cfg *config.Config, store device.Store, dispatcher *ioc.Dispatcher, m *metrics.Metrics) *Handler {
	return &Handler{log: log, cfg: cfg, store: store, dispatcher: dispatcher, metrics: m}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(h.accessLog)

	// Health
	r.Get("/healthz", h.handleHealthz)
	r.Get("/readyz", h.handleReadyZ)
	r.Get("/metrics", h.metrics.Handler().ServeHTTP)

	// API
	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Get("/tiles", h.handleListTiles)
			r.Get("/preview", h.handlePreview)
		})
	})

	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		h.metrics.ObserveHTTPRequest(r.Method, r.URL.Path, ww.Status(), time.Since(start))
		h.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("http_request")
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	resp := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
		},
	}
	if details != nil {
		resp["error"].(map[string]any)["details"] = details
	}
	h.writeJSON(w, status, resp)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleReadyZ(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.store == nil {
		h.writeError(w, http.StatusServiceUnavailable, "store_unavailable", "device store not configured", nil)
		return
	}

	if err := h.store.Ping(ctx); err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "store_unavailable", "device store not ready", map[string]any{"error": err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"ready": true})
}

type tileInfo struct {
	Name      string `json:"name"`
	Directory string `json:"directory"`
}

func (h *Handler) handleListTiles(w http.ResponseWriter, r *http.Request) {
	out := make([]tileInfo, 0, len(h.cfg.Tiles))
	for _, t := range h.cfg.Tiles {
		out = append(out, tileInfo{Name: t.Name, Directory: t.Directory})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"tiles": out})
}

type previewType struct {
	Type  string   `json:"type"`
	Found int      `json:"found"`
	Files []string `json:"files"`
	Error string   `json:"error,omitempty"`
}

// handlePreview runs the full pipeline for one tile without writing
// anything and reports the files a real run would produce.
func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	tileName := r.URL.Query().Get("tile")
	if tileName == "" {
		h.writeError(w, http.StatusBadRequest, "missing_tile", "tile query parameter is required", nil)
		return
	}
	if _, err := h.cfg.Tile(tileName); err != nil {
		h.writeError(w, http.StatusNotFound, "unknown_tile", err.Error(), nil)
		return
	}

	records, err := h.store.Search(r.Context(), tileName)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "store_error", err.Error(), nil)
		return
	}

	var types []previewType
	for _, p := range h.dispatcher.Pipelines() {
		found := 0
		for _, rec := range records {
			if rec.Type == string(p.Type) {
				found++
			}
		}

		entry := previewType{Type: string(p.Type), Found: found, Files: []string{}}
		payloads, err := h.dispatcher.Plan(p.Type, records)
		if err != nil {
			entry.Error = err.Error()
		}
		for _, payload := range payloads {
			entry.Files = append(entry.Files, payload.Filename)
		}
		types = append(types, entry)
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"tile":         tileName,
		"device_types": types,
	})
}
