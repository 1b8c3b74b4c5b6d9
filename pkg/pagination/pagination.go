package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultPerPage is the page size used when the caller does not supply one.
	DefaultPerPage = 20
	// MaxPerPage caps the page size regardless of what the caller asks for.
	MaxPerPage = 100
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// DefaultParams returns sensible pagination defaults.
func DefaultParams() Params {
	return Params{
		Page:    1,
		PerPage: DefaultPerPage,
		Offset:  0,
	}
}

// FromRequest extracts pagination parameters from an HTTP request.
// Malformed or out-of-range values fall back to the defaults.
func FromRequest(r *http.Request) Params {
	return FromValues(r.URL.Query().Get("page"), r.URL.Query().Get("limit"))
}

// FromValues builds Params from raw page and limit strings.
func FromValues(page, limit string) Params {
	p := DefaultParams()

	if page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			p.Page = v
		}
	}

	if limit != "" {
		if v, err := strconv.Atoi(limit); err == nil && v > 0 && v <= MaxPerPage {
			p.PerPage = v
		}
	}

	p.Offset = (p.Page - 1) * p.PerPage
	return p
}

// Meta is the pagination metadata block of a page envelope.
type Meta struct {
	TotalCount int  `json:"total_count"`
	Page       int  `json:"current_page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewMeta computes pagination metadata. With a zero total count TotalPages is
// zero and both HasNext and HasPrev are false.
func NewMeta(totalCount int, params Params) Meta {
	if params.PerPage < 1 {
		params.PerPage = DefaultPerPage
	}

	totalPages := totalCount / params.PerPage
	if totalCount%params.PerPage > 0 {
		totalPages++
	}

	return Meta{
		TotalCount: totalCount,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}

// Result wraps a paginated response.
type Result[T any] struct {
	Data []T `json:"data"`
	Meta
}

// NewResult creates a paginated result.
func NewResult[T any](data []T, totalCount int, params Params) Result[T] {
	if data == nil {
		data = []T{}
	}
	return Result[T]{Data: data, Meta: NewMeta(totalCount, params)}
}
