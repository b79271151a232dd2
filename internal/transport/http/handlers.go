package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kevinnadar22/announce/internal/app"
	"github.com/kevinnadar22/announce/internal/infra/markup"
	"github.com/kevinnadar22/announce/internal/view"
)

// ReadinessChecker reports whether the optional dependencies are up.
type ReadinessChecker interface {
	Check(ctx context.Context) error
}

// Handler serves the list, detail and lookup routes.
type Handler struct {
	listing  *app.ListingService
	detail   *app.DetailService
	lookups  *app.LookupService
	sanitize view.Sanitize
	cardOpts view.CardOptions
	ready    ReadinessChecker
}

func NewHandler(listing *app.ListingService, detail *app.DetailService, lookups *app.LookupService, sanitizer *markup.Sanitizer, ready ReadinessChecker) *Handler {
	h := &Handler{
		listing: listing,
		detail:  detail,
		lookups: lookups,
		ready:   ready,
	}
	if sanitizer != nil {
		h.sanitize = view.Sanitize{HTML: sanitizer.HTML, Text: sanitizer.Text}
		h.cardOpts = view.CardOptions{Text: sanitizer.Text}
	}
	return h
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := errorBody{Error: err.Error()}
	var verr *ValidationError
	if errors.As(err, &verr) {
		body.Error = "invalid query"
		body.Fields = verr.Fields
	}
	writeJSON(w, status, body)
}

// ListAnnouncements serves GET / and GET /announcements.
func (h *Handler) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	state, err := parseListQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	page, _ := h.listing.List(r.Context(), state)
	status := http.StatusOK
	if page.Status == view.ListFailed {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, page)
}

// GetAnnouncement serves GET /announcements/{id}.
func (h *Handler) GetAnnouncement(w http.ResponseWriter, r *http.Request) {
	q, err := parseDetailQuery(mux.Vars(r)["id"], r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res := h.detail.Load(r.Context(), q.ID, q.Language)
	page := view.RenderDetail(res.Input(), h.sanitize, h.cardOpts)

	status := http.StatusOK
	switch res.State {
	case view.DetailNotFound:
		status = http.StatusNotFound
	case view.DetailError:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, page)
}

// lookupHandler adapts one LookupService method to a route.
func lookupHandler[T any](name string, fetch func(context.Context) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := fetch(r.Context())
		if err != nil {
			slog.Warn("Lookup failed", "lookup", name, "error", err)
			writeError(w, http.StatusServiceUnavailable, errors.New(name+" are unavailable"))
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready.Check(r.Context()); err != nil {
			slog.Warn("Health check failed", "error", err)
			http.Error(w, "NOT READY", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// NotFound renders the not-found view with a link home.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, view.DetailPage{
		State: view.DetailNotFound,
		Panel: view.PageNotFoundPanel(r.URL.Path),
	})
}
