package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kevinnadar22/announce/pkg/config"
)

// NewRouter registers every route of the service.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.Use(withRequestID, instrument)

	r.HandleFunc("/", h.ListAnnouncements).Methods(http.MethodGet)
	r.HandleFunc("/announcements", h.ListAnnouncements).Methods(http.MethodGet)
	r.HandleFunc("/announcements/{id:[0-9]+}", h.GetAnnouncement).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/categories", lookupHandler("categories", h.lookups.Categories)).Methods(http.MethodGet)
	api.HandleFunc("/ministries", lookupHandler("ministries", h.lookups.Ministries)).Methods(http.MethodGet)
	api.HandleFunc("/audience-types", lookupHandler("audience types", h.lookups.AudienceTypes)).Methods(http.MethodGet)
	api.HandleFunc("/languages", lookupHandler("languages", h.lookups.Languages)).Methods(http.MethodGet)
	api.HandleFunc("/locations", lookupHandler("locations", h.lookups.Locations)).Methods(http.MethodGet)
	api.HandleFunc("/stats", lookupHandler("stats", h.lookups.Stats)).Methods(http.MethodGet)

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())
	r.NotFoundHandler = withRequestID(http.HandlerFunc(h.NotFound))

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		ExposedHeaders: []string{RequestIDHeader},
	})
	return c.Handler(r)
}

func NewHTTPServer(cfg *config.Config, h *Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           otelhttp.NewHandler(NewRouter(h, cfg.CORSOrigins), "announce"),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
