package http

import (
	"net/http"

	"assetrent-backend/internal/logger"
	"assetrent-backend/internal/metrics"
	"assetrent-backend/internal/security"
	"assetrent-backend/internal/service"

	"github.com/gorilla/mux"
)

// Dependencies is everything the HTTP adapter needs.
type Dependencies struct {
	Approvals service.ApprovalService
	Revenue   service.RevenueService
	Tokens    security.TokenManager
	Roles     *security.RoleProvider
	Metrics   *metrics.Metrics
	Log       *logger.Logger
}

// NewRouter registers every route by name. Route names double as keys into
// config.EndpointSecurityConfig.
func NewRouter(deps Dependencies) *mux.Router {
	log := deps.Log.WithService("http")
	h := &Handler{approvals: deps.Approvals, revenue: deps.Revenue, log: log}
	auth := &AuthMiddleware{tokens: deps.Tokens, roles: deps.Roles, log: log}

	r := mux.NewRouter()
	r.Use(requestLogger(log), auth.Handler)

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet).Name("Health")
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler()).Methods(http.MethodGet).Name("Metrics")
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/submissions", h.Submit).Methods(http.MethodPost).Name("Submit")
	api.HandleFunc("/pending", h.ListPending).Methods(http.MethodGet).Name("ListPending")
	api.HandleFunc("/pending/{id}", h.GetPending).Methods(http.MethodGet).Name("GetPending")
	api.HandleFunc("/pending/{id}", h.Resubmit).Methods(http.MethodPut).Name("Resubmit")
	api.HandleFunc("/pending/{id}/approve", h.Approve).Methods(http.MethodPost).Name("ApprovePending")
	api.HandleFunc("/pending/{id}/reject", h.Reject).Methods(http.MethodPost).Name("RejectPending")
	api.HandleFunc("/assets/{id}/revenue", h.GetAssetRevenue).Methods(http.MethodGet).Name("GetAssetRevenue")
	api.HandleFunc("/revenue/recompute", h.RecomputeRevenue).Methods(http.MethodPost).Name("RecomputeRevenue")

	return r
}
