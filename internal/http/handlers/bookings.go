package handlers

import (
	"fmt"
	"net/http"

	"bookingcrm/internal/services"

	"github.com/gin-gonic/gin"
)

var bookingFilters = listParams{
	equal:     []string{"status", "reference_role", "project_name", "employee", "tlcp", "agm", "gm", "avp", "vp", "as", "vertical"},
	dateField: "booking_date",
}

func (a *API) ListBookings(c *gin.Context) {
	q, err := parseListQuery(c, a.Limits, bookingFilters)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	page, err := a.Bookings.List(c.Request.Context(), q)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (a *API) GetBooking(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := a.Bookings.Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (a *API) CreateBooking(c *gin.Context) {
	var in services.BookingInput
	if !BindJSONOrError(c, &in) {
		return
	}
	b, err := a.Bookings.Create(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (a *API) UpdateBooking(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in services.BookingInput
	if !BindJSONOrError(c, &in) {
		return
	}
	b, err := a.Bookings.Update(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (a *API) DeleteBooking(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := a.Bookings.Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking deleted", "id": id})
}

// BookingReference returns the reference selectors for the booking form.
func (a *API) BookingReference(c *gin.Context) {
	form, err := a.Bookings.ReferenceForm(c.Request.Context(), c.Query("role"), c.Query("value"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

// ExportBookings downloads every booking matching the list filters.
func (a *API) ExportBookings(c *gin.Context) {
	q, err := parseListQuery(c, a.Limits, bookingFilters)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	rows, err := a.Bookings.Filtered(c.Request.Context(), q.Criteria, q.SearchText)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	out, err := a.Export.Bookings(rows, c.Query("format"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	c.Data(http.StatusOK, out.ContentType, out.Data)
}
