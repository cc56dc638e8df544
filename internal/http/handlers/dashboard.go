package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) BookingDashboard(c *gin.Context) {
	sum, err := a.Dashboard.Summary(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
