// Package ops serves the operational HTTP surface: liveness, readiness,
// and read-only status views over the run ledger, census, and review queue
package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"colasignal/internal/platform/logger"
	auditdom "colasignal/internal/services/audit/domain"
	revdom "colasignal/internal/services/review/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

// Handler builds the ops router
type Handler struct {
	// Ready reports backend readiness; nil means always ready
	Ready func(ctx context.Context) error

	Ledger   auditdom.LedgerPort
	Auditor  auditdom.AuditorPort
	Reviewer revdom.ReviewerPort

	// Slow marks requests taking at least this long as warn level
	Slow time.Duration

	// CORSOrigins allowed for browser dashboards; empty disables CORS
	CORSOrigins []string
}

// Routes assembles the chi mux
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(h.accessLog)
	r.Use(recoverJSON)
	if len(h.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.CORSOrigins,
			AllowedMethods: []string{http.MethodGet},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", h.health)
	r.Get("/readyz", h.ready)
	r.Route("/status", func(r chi.Router) {
		r.Get("/runs", h.runs)
		r.Get("/census", h.census)
		r.Get("/reviews", h.reviews)
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	if h.Ready != nil {
		if err := h.Ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable", "error": err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type runWire struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	DryRun     bool       `json:"dry_run"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`
	NewCompany int64      `json:"new_company"`
	NewBrand   int64      `json:"new_brand"`
	NewSKU     int64      `json:"new_sku"`
	Refile     int64      `json:"refile"`
	Deferred   int64      `json:"deferred"`
	Error      string     `json:"error,omitempty"`
}

func (h *Handler) runs(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Ledger.Recent(r.Context(), 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]runWire, 0, len(runs))
	for _, run := range runs {
		out = append(out, runWire{
			ID: run.ID, Kind: string(run.Kind), DryRun: run.DryRun,
			StartedAt: run.StartedAt, FinishedAt: run.FinishedAt,
			Status:     run.Status,
			NewCompany: run.Counters.NewCompany, NewBrand: run.Counters.NewBrand,
			NewSKU: run.Counters.NewSKU, Refile: run.Counters.Refile,
			Deferred: run.Counters.Deferred, Error: run.Error,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": out})
}

func (h *Handler) census(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Auditor.Census(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	buckets := make(map[string]int64, len(rows))
	for _, row := range rows {
		buckets[row.Signal] = row.Count
	}
	writeJSON(w, http.StatusOK, map[string]any{"buckets": buckets})
}

type reviewWire struct {
	ID          string  `json:"id"`
	AliasRaw    string  `json:"alias_raw"`
	AliasNorm   string  `json:"alias_norm"`
	CandidateID int64   `json:"candidate_id"`
	HoldID      int64   `json:"hold_id"`
	Score       float64 `json:"score"`
}

func (h *Handler) reviews(w http.ResponseWriter, r *http.Request) {
	items, err := h.Reviewer.ListPending(r.Context(), 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]reviewWire, 0, len(items))
	for _, it := range items {
		out = append(out, reviewWire{
			ID: it.ID, AliasRaw: it.AliasRaw, AliasNorm: it.AliasNorm,
			CandidateID: it.CandidateID, HoldID: it.HoldID, Score: it.Score,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"pending": out})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger.C(r.Context()).Error().Err(err).
		Str("path", r.URL.Path).
		Msg("status endpoint failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"status": "error", "error": err.Error(),
	})
}

type ctxKeyRequestID struct{}

// requestID tags each request with an id for log correlation, honoring an
// inbound X-Request-ID when present
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestID returns the id tagged by the middleware, or ""
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID{}).(string); ok {
		return v
	}
	return ""
}

type captureWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	n, err := cw.ResponseWriter.Write(b)
	cw.bytes += n
	return n, err
}

// accessLog emits one structured line per request
func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(cw, r)

		elapsed := time.Since(start)
		log := logger.C(r.Context())
		evt := log.Info()
		if h.Slow > 0 && elapsed >= h.Slow {
			evt = log.Warn()
		}
		evt.Str("request_id", RequestID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", cw.status).
			Int("bytes", cw.bytes).
			Dur("elapsed", elapsed).
			Msg("request done")
	})
}

// recoverJSON converts panics into a JSON 500 with the stack logged
func recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				stack := strings.ReplaceAll(string(debug.Stack()), "\n", "\n\t")
				logger.C(r.Context()).Error().
					Str("request_id", RequestID(r.Context())).
					Interface("panic", v).
					Msgf("panic recovered\n\t%s", stack)

				writeJSON(w, http.StatusInternalServerError, map[string]string{
					"status": "error", "error": "internal server error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
