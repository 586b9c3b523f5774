package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sabry-awad97/telepharma/internal/dal/postgres"
	"github.com/sabry-awad97/telepharma/internal/service/models/medicine"
	"github.com/sabry-awad97/telepharma/pkg/http/middleware/trace"
	"github.com/sabry-awad97/telepharma/pkg/logger"
	"github.com/spf13/viper"
)

// inventoryService represents the catalog side of the service layer.
type inventoryService interface {
	ListMedicines(ctx context.Context) ([]medicine.Medicine, error)
}

// HTTPTransport is the operational HTTP surface of the bot: health probes
// and a read-only staff view of the catalog.
type HTTPTransport struct {
	server    *http.Server
	router    *chi.Mux
	inventory inventoryService
	pgClient  *postgres.Client
}

func NewHTTPTransport(inventory inventoryService, pgClient *postgres.Client) *HTTPTransport {
	router := newRouter()
	server := newServer(router)
	return &HTTPTransport{
		server:    server,
		router:    router,
		inventory: inventory,
		pgClient:  pgClient,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Get("/healthz", h.healthz)
	h.router.Get("/readyz", h.readyz)
	h.router.Route("/api", func(r chi.Router) {
		r.Get("/medicines", h.listMedicines)
	})
}

func (h *HTTPTransport) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *HTTPTransport) readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.pgClient.Pool().Ping(r.Context()); err != nil {
		slog.Error("Readiness probe failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)

		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *HTTPTransport) listMedicines(w http.ResponseWriter, r *http.Request) {
	medicines, err := h.inventory.ListMedicines(r.Context())
	if err != nil {
		slog.Error("Failed to list medicines", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(medicines); err != nil {
		slog.Error("Failed to encode medicines", "error", err)
	}
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware)

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler: router,
	}
}
