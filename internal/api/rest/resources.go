package rest

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tribalbenefits/backend/internal/api/pipeline"
	"github.com/tribalbenefits/backend/internal/models"
)

// ListResources handles GET /api/v1/resources
func (h *Handler) ListResources(ctx context.Context, rc *pipeline.RequestContext, _ *http.Request) (pipeline.Result, error) {
	q := rc.Query.(*listResourcesQuery)
	offset := (q.Page - 1) * q.PerPage

	resources, err := h.store.ListResources(ctx, q.Category, q.State, q.PerPage, offset)
	if err != nil {
		return nil, err
	}
	if resources == nil {
		resources = []*models.Resource{}
	}
	return pipeline.OK(map[string]any{
		"resources": resources,
		"page":      q.Page,
		"per_page":  q.PerPage,
	}), nil
}

// GetResource handles GET /api/v1/resources/{id}
func (h *Handler) GetResource(ctx context.Context, _ *pipeline.RequestContext, r *http.Request) (pipeline.Result, error) {
	id := mux.Vars(r)["id"]

	res, err := h.store.GetResource(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, pipeline.NotFound("Resource not found")
	}
	return pipeline.OK(res), nil
}

// CreateResource handles POST /api/v1/admin/resources
func (h *Handler) CreateResource(ctx context.Context, rc *pipeline.RequestContext, _ *http.Request) (pipeline.Result, error) {
	body := rc.Body.(*resourceBody)

	res := body.toModel()
	if err := h.store.CreateResource(ctx, res); err != nil {
		return nil, err
	}
	return pipeline.JSON(http.StatusCreated, res), nil
}

// BulkCreateResources handles POST /api/v1/admin/resources/bulk
func (h *Handler) BulkCreateResources(ctx context.Context, rc *pipeline.RequestContext, _ *http.Request) (pipeline.Result, error) {
	body := rc.Body.(*bulkResourcesBody)

	created := make([]*models.Resource, 0, len(body.Items))
	for i := range body.Items {
		res := body.Items[i].toModel()
		if err := h.store.CreateResource(ctx, res); err != nil {
			return nil, err
		}
		created = append(created, res)
	}
	return pipeline.JSON(http.StatusCreated, map[string]any{
		"resources": created,
		"count":     len(created),
	}), nil
}

// UpdateResource handles PUT /api/v1/admin/resources/{id}
func (h *Handler) UpdateResource(ctx context.Context, rc *pipeline.RequestContext, r *http.Request) (pipeline.Result, error) {
	id := mux.Vars(r)["id"]
	body := rc.Body.(*resourceBody)

	existing, err := h.store.GetResource(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, pipeline.NotFound("Resource not found")
	}

	res := body.toModel()
	res.ID = id
	res.CreatedAt = existing.CreatedAt
	if err := h.store.UpdateResource(ctx, res); err != nil {
		return nil, err
	}
	return pipeline.OK(res), nil
}

// DeleteResource handles DELETE /api/v1/admin/resources/{id}
func (h *Handler) DeleteResource(ctx context.Context, _ *pipeline.RequestContext, r *http.Request) (pipeline.Result, error) {
	id := mux.Vars(r)["id"]

	existing, err := h.store.GetResource(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, pipeline.NotFound("Resource not found")
	}
	if err := h.store.DeleteResource(ctx, id); err != nil {
		return nil, err
	}
	return pipeline.OK(map[string]string{"message": "Resource deleted"}), nil
}
