package handlers

import (
	"net/http"

	"bookingcrm/internal/services"

	"github.com/gin-gonic/gin"
)

var userFilters = listParams{
	equal:   []string{"role", "assigned_tl"},
	boolean: []string{"is_active"},
}

func (a *API) ListUsers(c *gin.Context) {
	q, err := parseListQuery(c, a.Limits, userFilters)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	page, err := a.Users.List(c.Request.Context(), q)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (a *API) CreateUser(c *gin.Context) {
	var in services.UserInput
	if !BindJSONOrError(c, &in) {
		return
	}
	u, err := a.Users.Create(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (a *API) UpdateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in services.UserInput
	if !BindJSONOrError(c, &in) {
		return
	}
	u, err := a.Users.Update(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (a *API) DeleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := a.Users.Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted", "id": id})
}
