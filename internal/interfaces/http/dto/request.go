package dto

import (
	"time"

	"github.com/genlab/backend/internal/domain/shared"
)

// ListRequest holds the pagination and search query parameters shared by list endpoints
type ListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search" binding:"max=200"`
}

// ToFilter converts the query into a repository filter with defaults applied
func (r ListRequest) ToFilter() shared.Filter {
	f := shared.DefaultFilter()
	if r.Page > 0 {
		f.Page = r.Page
	}
	if r.PageSize > 0 {
		f.PageSize = r.PageSize
	}
	if r.OrderBy != "" {
		f.OrderBy = r.OrderBy
	}
	if r.OrderDir != "" {
		f.OrderDir = r.OrderDir
	}
	f.Search = r.Search
	return f
}

// DateRangeRequest bounds a listing by date (inclusive, YYYY-MM-DD)
type DateRangeRequest struct {
	DateFrom string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
}

// Range parses the bounds. DateTo is moved to the end of its day.
// Both values were checked by the datetime binding rule.
func (r DateRangeRequest) Range() (from, to *time.Time) {
	if r.DateFrom != "" {
		if t, err := time.Parse(time.DateOnly, r.DateFrom); err == nil {
			from = &t
		}
	}
	if r.DateTo != "" {
		if t, err := time.Parse(time.DateOnly, r.DateTo); err == nil {
			end := t.Add(24*time.Hour - time.Nanosecond)
			to = &end
		}
	}
	return from, to
}
