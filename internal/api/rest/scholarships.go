package rest

import (
	"context"
	"net/http"

	"github.com/tribalbenefits/backend/internal/api/pipeline"
	"github.com/tribalbenefits/backend/internal/models"
)

// ListScholarships handles GET /api/v1/scholarships
func (h *Handler) ListScholarships(ctx context.Context, rc *pipeline.RequestContext, _ *http.Request) (pipeline.Result, error) {
	q := rc.Query.(*listScholarshipsQuery)
	offset := (q.Page - 1) * q.PerPage

	scholarships, err := h.store.ListScholarships(ctx, q.PerPage, offset)
	if err != nil {
		return nil, err
	}
	if scholarships == nil {
		scholarships = []*models.Scholarship{}
	}
	return pipeline.OK(map[string]any{
		"scholarships": scholarships,
		"page":         q.Page,
		"per_page":     q.PerPage,
	}), nil
}

// CreateScholarship handles POST /api/v1/admin/scholarships
func (h *Handler) CreateScholarship(ctx context.Context, rc *pipeline.RequestContext, _ *http.Request) (pipeline.Result, error) {
	body := rc.Body.(*scholarshipBody)

	s, err := body.toModel()
	if err != nil {
		return nil, err
	}
	if err := h.store.CreateScholarship(ctx, s); err != nil {
		return nil, err
	}
	return pipeline.JSON(http.StatusCreated, s), nil
}
