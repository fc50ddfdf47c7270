package dto

import "github.com/polkiloo/catalogsync/internal/domain/model"

// ListQuery is the query string contract of list endpoints. Empty sort and
// order fall back to the per-resource defaults.
type ListQuery struct {
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=20" binding:"min=1,max=100"`
	Search string `form:"search" binding:"max=200"`
	Status string `form:"status" binding:"max=50"`
	Sort   string `form:"sort" binding:"omitempty,oneof=date_created total name price"`
	Order  string `form:"order" binding:"omitempty,oneof=asc desc"`
}

func (q ListQuery) OrderQuery() model.OrderQuery {
	return model.OrderQuery{
		Page:   q.Page,
		Limit:  q.Limit,
		Search: q.Search,
		Status: q.Status,
		Sort:   q.Sort,
		Order:  model.SortOrder(q.Order),
	}
}

func (q ListQuery) ProductQuery() model.ProductQuery {
	return model.ProductQuery{
		Page:   q.Page,
		Limit:  q.Limit,
		Search: q.Search,
		Sort:   q.Sort,
		Order:  model.SortOrder(q.Order),
	}
}
