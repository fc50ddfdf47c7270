package dto

import "github.com/polkiloo/catalogsync/internal/domain/model"

// Envelope wraps every API response.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Errors     []string    `json:"errors,omitempty"`
}

// Pagination describes the returned page of a list endpoint.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// NewPagination converts model.Pagination.
func NewPagination(p model.Pagination) *Pagination {
	return &Pagination{Page: p.Page, Limit: p.Limit, Total: p.Total, Pages: p.Pages}
}

// HealthResponse is returned by liveness endpoints.
type HealthResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
}
