package gallery

import (
	"gallery/internal/domain"
	"gallery/internal/pkg/sanitize"
	"gallery/internal/pkg/validator"

	"github.com/samber/lo"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type CreateImageRequest struct {
	Title       string          `json:"title" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=500"`
	Tags        []string        `json:"tags" validate:"max=20,dive,max=50"`
	Category    domain.Category `json:"category" validate:"omitempty,oneof=equipment course creative demand other"`
	IsPublic    *bool           `json:"is_public"`
}

func (r *CreateImageRequest) normalize() {
	r.Title = sanitize.Text(r.Title)
	r.Description = sanitize.Text(r.Description)
	r.Tags = sanitize.Tags(r.Tags)
	if r.Category == "" {
		r.Category = domain.CategoryOther
	}
}

// UpdateImageRequest holds only the fields the client sent. Nil means keep.
type UpdateImageRequest struct {
	Title       *string          `json:"title" validate:"omitnil,min=1,max=100"`
	Description *string          `json:"description" validate:"omitnil,max=500"`
	Tags        *[]string        `json:"tags"`
	Category    *domain.Category `json:"category" validate:"omitnil,oneof=equipment course creative demand other"`
	IsPublic    *bool            `json:"is_public"`
}

func (r *UpdateImageRequest) normalize() {
	if r.Title != nil {
		r.Title = lo.ToPtr(sanitize.Text(*r.Title))
	}
	if r.Description != nil {
		r.Description = lo.ToPtr(sanitize.Text(*r.Description))
	}
	if r.Tags != nil {
		r.Tags = lo.ToPtr(sanitize.Tags(*r.Tags))
	}
}

func (r *UpdateImageRequest) validate() map[string]string {
	fields := validator.Validate(r)
	if r.Tags != nil {
		tagFields := validator.Validate(tagList{Tags: *r.Tags})
		fields = lo.Assign(fields, tagFields)
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (r *UpdateImageRequest) apply(img *domain.Image) {
	if r.Title != nil {
		img.Title = *r.Title
	}
	if r.Description != nil {
		img.Description = *r.Description
	}
	if r.Tags != nil {
		img.Tags = *r.Tags
	}
	if r.Category != nil {
		img.Category = *r.Category
	}
	if r.IsPublic != nil {
		img.IsPublic = *r.IsPublic
	}
}

type tagList struct {
	Tags []string `json:"tags" validate:"max=20,dive,max=50"`
}

// ListQuery is a listing request before defaults are applied.
type ListQuery struct {
	Page     int
	Limit    int
	Category domain.Category
	Tags     []string
	UserID   int64
}

type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

type ListResult struct {
	Images     []*domain.Image `json:"images"`
	Pagination Pagination      `json:"pagination"`
}
