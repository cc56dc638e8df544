package handlers

import (
	"fmt"
	"net/http"

	"bookingcrm/internal/listing"
	"bookingcrm/internal/services"

	"github.com/gin-gonic/gin"
)

var leadFilters = listParams{
	equal:     []string{"agent_id", "status_id", "source"},
	dateField: "created_at",
}

type bulkUpdateRequest struct {
	IDs      []string `json:"ids"`
	AgentID  string   `json:"agent_id"`
	StatusID string   `json:"status_id"`
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

func (a *API) ListLeads(c *gin.Context) {
	q, err := parseListQuery(c, a.Limits, leadFilters)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	page, err := a.Leads.List(c.Request.Context(), q)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (a *API) CreateLead(c *gin.Context) {
	var req services.LeadInput
	if !BindJSONOrError(c, &req) {
		return
	}
	lead, err := a.Leads.Create(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lead)
}

// ExportLeads downloads every lead matching the list filters.
func (a *API) ExportLeads(c *gin.Context) {
	q, err := parseListQuery(c, a.Limits, leadFilters)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	ctx := c.Request.Context()
	rows, err := a.Leads.Filtered(ctx, q.Criteria, q.SearchText)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	agents, err := a.Reference.Agents(ctx)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	statuses, err := a.Reference.Statuses(ctx)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	out, err := a.Export.Leads(rows, agents, statuses, c.Query("format"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	c.Data(http.StatusOK, out.ContentType, out.Data)
}

func (a *API) BulkUpdateLeads(c *gin.Context) {
	var req bulkUpdateRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	n, err := a.Leads.Reassign(c.Request.Context(), req.IDs, listing.BulkUpdate{AgentID: req.AgentID, StatusID: req.StatusID})
	a.observeBulk("update", err)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "leads updated", "updated": n})
}

func (a *API) BulkDeleteLeads(c *gin.Context) {
	var req bulkDeleteRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	n, err := a.Leads.Remove(c.Request.Context(), req.IDs)
	a.observeBulk("delete", err)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "leads deleted", "deleted": n})
}

func (a *API) Agents(c *gin.Context) {
	items, err := a.Reference.Agents(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (a *API) Statuses(c *gin.Context) {
	items, err := a.Reference.Statuses(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}
