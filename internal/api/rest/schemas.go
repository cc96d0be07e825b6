package rest

import (
	"time"

	"github.com/tribalbenefits/backend/internal/models"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

type listResourcesQuery struct {
	Category string `query:"category" validate:"omitempty,oneof=housing health education employment general"`
	State    string `query:"state" validate:"omitempty,len=2"`
	Page     int    `query:"page" validate:"omitempty,min=1"`
	PerPage  int    `query:"per_page" validate:"omitempty,min=1,max=100"`
}

func (q *listResourcesQuery) ApplyDefaults() {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PerPage == 0 {
		q.PerPage = defaultPerPage
	}
}

type listScholarshipsQuery struct {
	Page    int `query:"page" validate:"omitempty,min=1"`
	PerPage int `query:"per_page" validate:"omitempty,min=1,max=100"`
}

func (q *listScholarshipsQuery) ApplyDefaults() {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PerPage == 0 {
		q.PerPage = defaultPerPage
	}
}

// resourceBody is the create/update payload for a directory resource.
type resourceBody struct {
	Title         string `json:"title" validate:"required,min=3,max=200"`
	Description   string `json:"description" validate:"omitempty,max=2000"`
	Category      string `json:"category" validate:"omitempty,oneof=housing health education employment general"`
	URL           string `json:"url" validate:"omitempty,url"`
	State         string `json:"state" validate:"omitempty,len=2"`
	TribeSpecific bool   `json:"tribe_specific"`
}

func (b *resourceBody) ApplyDefaults() {
	if b.Category == "" {
		b.Category = "general"
	}
}

func (b *resourceBody) toModel() *models.Resource {
	return &models.Resource{
		Title:         b.Title,
		Description:   b.Description,
		Category:      b.Category,
		URL:           b.URL,
		State:         b.State,
		TribeSpecific: b.TribeSpecific,
	}
}

// bulkResourcesBody creates up to 50 resources in one request.
type bulkResourcesBody struct {
	Items []resourceBody `json:"items" validate:"required,min=1,max=50,dive"`
}

func (b *bulkResourcesBody) ApplyDefaults() {
	for i := range b.Items {
		b.Items[i].ApplyDefaults()
	}
}

type scholarshipBody struct {
	Title     string `json:"title" validate:"required,min=3,max=200"`
	Sponsor   string `json:"sponsor" validate:"required,min=2,max=200"`
	AmountUSD int    `json:"amount_usd" validate:"omitempty,min=0"`
	URL       string `json:"url" validate:"omitempty,url"`
	Deadline  string `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
}

func (b *scholarshipBody) toModel() (*models.Scholarship, error) {
	s := &models.Scholarship{
		Title:     b.Title,
		Sponsor:   b.Sponsor,
		AmountUSD: b.AmountUSD,
		URL:       b.URL,
	}
	if b.Deadline != "" {
		d, err := time.Parse("2006-01-02", b.Deadline)
		if err != nil {
			return nil, err
		}
		s.Deadline = &d
	}
	return s, nil
}
