package services

import (
	"bookingcrm/internal/domain"
	"bookingcrm/internal/listing"
)

// Page is one page of typed rows plus the paging block.
type Page[T any] struct {
	Data       []T               `json:"data"`
	Pagination domain.Pagination `json:"pagination"`
}

// runList filters items for q and returns the requested page, clamped to the
// last page when q.Page is past the end.
func runList[T any](items []T, toRecord func(T) listing.Record, q listing.Query, searchFields []string) (Page[T], error) {
	if err := q.Criteria.Validate(); err != nil {
		return Page[T]{}, err
	}
	byID := make(map[string]T, len(items))
	records := make([]listing.Record, len(items))
	for i, it := range items {
		r := toRecord(it)
		records[i] = r
		byID[r.ID] = it
	}

	rows, page := listing.Run(records, q, searchFields)
	out := Page[T]{
		Data: make([]T, 0, len(rows)),
		Pagination: domain.Pagination{
			Page:     page.Current,
			PageSize: page.Size,
			Total:    page.Total,
		},
	}
	for _, r := range rows {
		out.Data = append(out.Data, byID[r.ID])
	}
	return out, nil
}

// pageResult adapts a typed page to a listing result.
func pageResult[T any](p Page[T], toRecord func(T) listing.Record) listing.Success {
	recs := make([]listing.Record, len(p.Data))
	for i, it := range p.Data {
		recs[i] = toRecord(it)
	}
	return listing.Success{Records: recs, TotalCount: p.Pagination.Total, Page: p.Pagination.Page}
}
