// Package rest exposes the HTTP API. Every route except /health and
// /metrics runs through the request pipeline; handlers receive validated,
// typed input and return results, never writing error responses themselves.
package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tribalbenefits/backend/internal/api/pipeline"
	"github.com/tribalbenefits/backend/internal/csrf"
	"github.com/tribalbenefits/backend/internal/models"
	"github.com/tribalbenefits/backend/internal/ratelimit"
)

// Store is the persistence surface the handlers need.
type Store interface {
	CreateResource(ctx context.Context, res *models.Resource) error
	GetResource(ctx context.Context, id string) (*models.Resource, error)
	ListResources(ctx context.Context, category, state string, limit, offset int) ([]*models.Resource, error)
	UpdateResource(ctx context.Context, res *models.Resource) error
	DeleteResource(ctx context.Context, id string) error

	CreateScholarship(ctx context.Context, s *models.Scholarship) error
	ListScholarships(ctx context.Context, limit, offset int) ([]*models.Scholarship, error)
}

// Handler manages HTTP request handlers
type Handler struct {
	store Store
	guard *csrf.Guard
}

// NewHandler creates a new HTTP handler
func NewHandler(store Store, guard *csrf.Guard) *Handler {
	return &Handler{store: store, guard: guard}
}

// SetupRoutes configures API routes
func SetupRoutes(router *mux.Router, p *pipeline.Pipeline, h *Handler) {
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/csrf-token", p.Handle(pipeline.Options{
		Operation: "csrf.issue",
	}, h.IssueCSRFToken)).Methods("GET")

	// Public directory
	api.HandleFunc("/resources", p.Handle(pipeline.Options{
		Operation:   "resources.list",
		QuerySchema: func() any { return &listResourcesQuery{} },
	}, h.ListResources)).Methods("GET")

	api.HandleFunc("/resources/{id}", p.Handle(pipeline.Options{
		Operation: "resources.get",
	}, h.GetResource)).Methods("GET")

	api.HandleFunc("/scholarships", p.Handle(pipeline.Options{
		Operation:   "scholarships.list",
		QuerySchema: func() any { return &listScholarshipsQuery{} },
	}, h.ListScholarships)).Methods("GET")

	// Admin mutations
	admin := api.PathPrefix("/admin").Subrouter()

	admin.HandleFunc("/resources", p.Handle(pipeline.Options{
		Operation:      "resources.create",
		RequireAdmin:   true,
		RequireCSRF:    true,
		RateLimitClass: ratelimit.ClassAdmin,
		BodySchema:     func() any { return &resourceBody{} },
	}, h.CreateResource)).Methods("POST")

	admin.HandleFunc("/resources/bulk", p.Handle(pipeline.Options{
		Operation:      "resources.bulk_create",
		RequireAdmin:   true,
		RequireCSRF:    true,
		RateLimitClass: ratelimit.ClassAdminBulk,
		BodySchema:     func() any { return &bulkResourcesBody{} },
	}, h.BulkCreateResources)).Methods("POST")

	admin.HandleFunc("/resources/{id}", p.Handle(pipeline.Options{
		Operation:      "resources.update",
		RequireAdmin:   true,
		RequireCSRF:    true,
		RateLimitClass: ratelimit.ClassAdmin,
		BodySchema:     func() any { return &resourceBody{} },
	}, h.UpdateResource)).Methods("PUT")

	admin.HandleFunc("/resources/{id}", p.Handle(pipeline.Options{
		Operation:      "resources.delete",
		RequireAdmin:   true,
		RequireCSRF:    true,
		RateLimitClass: ratelimit.ClassAdmin,
	}, h.DeleteResource)).Methods("DELETE")

	admin.HandleFunc("/scholarships", p.Handle(pipeline.Options{
		Operation:      "scholarships.create",
		RequireAdmin:   true,
		RequireCSRF:    true,
		RateLimitClass: ratelimit.ClassAdmin,
		BodySchema:     func() any { return &scholarshipBody{} },
	}, h.CreateScholarship)).Methods("POST")

	// Health check stays outside the pipeline so probes are never throttled.
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}).Methods("GET")
}

// IssueCSRFToken handles GET /api/v1/csrf-token
func (h *Handler) IssueCSRFToken(_ context.Context, _ *pipeline.RequestContext, _ *http.Request) (pipeline.Result, error) {
	token, err := h.guard.Issue()
	if err != nil {
		return nil, err
	}
	return pipeline.OK(map[string]string{"csrf_token": token}), nil
}
