package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/greystone/loan-service/internal/service"
)

// Handler translates HTTP requests into service calls
type Handler struct {
	svc *service.Service
}

// NewHandler initializes a new handler
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// NewRouter assembles the API routes. Infrastructure endpoints (metrics,
// rates) are wired by the caller.
func NewRouter(h *Handler, auth mux.MiddlewareFunc, global ...mux.MiddlewareFunc) *mux.Router {
	r := mux.NewRouter()
	for _, mw := range global {
		r.Use(mw)
	}

	// Public routes
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/users", h.Register).Methods("POST")
	r.HandleFunc("/users", h.ListUsers).Methods("GET")
	r.HandleFunc("/users/{email}/api-key", h.GetAPIKey).Methods("GET")

	// Routes requiring an API key
	loans := r.PathPrefix("/loans").Subrouter()
	loans.Use(auth)
	loans.HandleFunc("", h.CreateLoan).Methods("POST")
	loans.HandleFunc("", h.ListLoans).Methods("GET")
	loans.HandleFunc("/{id}/schedule", h.GetSchedule).Methods("GET")
	loans.HandleFunc("/{id}/summary", h.GetSummary).Methods("GET")
	loans.HandleFunc("/{id}/share", h.ShareLoan).Methods("POST")

	return r
}

// Health reports service liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
