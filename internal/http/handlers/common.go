package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"bookingcrm/internal/domain"
	"bookingcrm/internal/listing"
	"bookingcrm/internal/utils"

	"github.com/gin-gonic/gin"
)

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		respondError(c, http.StatusBadRequest, "validation_error", "request body is empty", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "invalid payload", err.Error())
		return false
	}
	return true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondDomainError(c, domain.ValidationError{Field: "id", Msg: "must be a positive integer"})
		return 0, false
	}
	return id, true
}

// PageLimits bound the page size a client can ask for.
type PageLimits struct {
	Default int
	Max     int
}

// listParams names the query parameters a list endpoint accepts.
type listParams struct {
	equal     []string
	boolean   []string
	dateField string
}

// parseListQuery reads search, paging and filter parameters. Empty values
// leave a filter inactive.
func parseListQuery(c *gin.Context, limits PageLimits, p listParams) (listing.Query, error) {
	q := listing.Query{
		Page:       1,
		PageSize:   limits.Default,
		SearchText: c.Query("search"),
		Criteria:   listing.Criteria{},
	}
	if q.PageSize < 1 {
		q.PageSize = listing.DefaultPageSize
	}
	if raw := strings.TrimSpace(c.Query("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return q, domain.ValidationError{Field: "page", Msg: "must be a positive integer"}
		}
		q.Page = n
	}
	if raw := strings.TrimSpace(c.Query("page_size")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return q, domain.ValidationError{Field: "page_size", Msg: "must be a positive integer"}
		}
		if limits.Max > 0 && n > limits.Max {
			return q, domain.ValidationError{Field: "page_size", Msg: "must be at most " + strconv.Itoa(limits.Max)}
		}
		q.PageSize = n
	}

	for _, field := range p.equal {
		if v := strings.TrimSpace(c.Query(field)); v != "" {
			q.Criteria[field] = listing.Eq{Value: v}
		}
	}
	for _, field := range p.boolean {
		raw := strings.TrimSpace(c.Query(field))
		if raw == "" {
			continue
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return q, domain.ValidationError{Field: field, Msg: "must be true or false"}
		}
		q.Criteria[field] = listing.Eq{Value: b}
	}
	if p.dateField != "" {
		var rng listing.DateRange
		for _, part := range []struct {
			param string
			dst   **time.Time
		}{{"start_date", &rng.Start}, {"end_date", &rng.End}} {
			raw := strings.TrimSpace(c.Query(part.param))
			if raw == "" {
				continue
			}
			t, err := utils.ParseDate(raw)
			if err != nil {
				return q, domain.ValidationError{Field: part.param, Msg: "must be YYYY-MM-DD"}
			}
			*part.dst = &t
		}
		if !rng.Empty() {
			q.Criteria[p.dateField] = rng
		}
	}
	if err := q.Criteria.Validate(); err != nil {
		return q, err
	}
	return q, nil
}
