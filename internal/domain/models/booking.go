package models

import (
	"strconv"
	"time"

	"bookingcrm/internal/listing"

	"github.com/shopspring/decimal"
)

// netRevenueRate is the share of total revenue kept after deductions.
var netRevenueRate = decimal.RequireFromString("0.9")

// Reference holds the reporting chain of people credited with a booking.
// Role is the slot the booking form selected; the other fields hold user ids.
type Reference struct {
	Role     string `json:"role,omitempty"`
	Employee string `json:"employee,omitempty"`
	TLCP     string `json:"tlcp,omitempty"`
	AGM      string `json:"agm,omitempty"`
	GM       string `json:"gm,omitempty"`
	AVP      string `json:"avp,omitempty"`
	VP       string `json:"vp,omitempty"`
	AS       string `json:"as,omitempty"`
	Vertical string `json:"vertical,omitempty"`
}

// Get returns the user id stored under a booking form field name.
func (r Reference) Get(field string) string {
	switch field {
	case "employee":
		return r.Employee
	case "tlcp":
		return r.TLCP
	case "agm":
		return r.AGM
	case "gm":
		return r.GM
	case "avp":
		return r.AVP
	case "vp":
		return r.VP
	case "as":
		return r.AS
	case "vertical":
		return r.Vertical
	}
	return ""
}

// Set stores a user id under a booking form field name.
func (r *Reference) Set(field, userID string) {
	switch field {
	case "employee":
		r.Employee = userID
	case "tlcp":
		r.TLCP = userID
	case "agm":
		r.AGM = userID
	case "gm":
		r.GM = userID
	case "avp":
		r.AVP = userID
	case "vp":
		r.VP = userID
	case "as":
		r.AS = userID
	case "vertical":
		r.Vertical = userID
	}
}

// ReferenceFields lists the form fields in hierarchy order.
var ReferenceFields = []string{"employee", "tlcp", "agm", "gm", "avp", "vp", "as", "vertical"}

type Booking struct {
	ID              int64           `json:"id"`
	CustomerName    string          `json:"name"`
	ContactNumber   string          `json:"contact_number"`
	Email           string          `json:"email"`
	ProjectName     string          `json:"project_name"`
	Unit            string          `json:"unit"`
	Size            string          `json:"size"`
	BookingDate     time.Time       `json:"booking_date"`
	Status          string          `json:"status"`
	Reference       Reference       `json:"reference"`
	BSP             decimal.Decimal `json:"bsp"`
	GST             decimal.Decimal `json:"gst"`
	OtherCharges    decimal.Decimal `json:"other_charges"`
	TSP             decimal.Decimal `json:"tsp"`
	PaymentReceived decimal.Decimal `json:"payment_received"`
	NextPayment     decimal.Decimal `json:"next_payment"`
	PaymentToDev    decimal.Decimal `json:"payment_to_dev"`
	Remark          string          `json:"remark"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TotalRevenue is BSP + GST + other charges + TSP.
func (b Booking) TotalRevenue() decimal.Decimal {
	return b.BSP.Add(b.GST).Add(b.OtherCharges).Add(b.TSP)
}

// NetRevenue is 90% of the total revenue.
func (b Booking) NetRevenue() decimal.Decimal {
	return b.TotalRevenue().Mul(netRevenueRate)
}

// Outstanding is what the customer still owes, never negative.
func (b Booking) Outstanding() decimal.Decimal {
	due := b.TotalRevenue().Sub(b.PaymentReceived)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// ToRecord flattens the booking for the list filters.
func (b Booking) ToRecord() listing.Record {
	fields := map[string]any{
		"name":             b.CustomerName,
		"contact_number":   b.ContactNumber,
		"email":            b.Email,
		"project_name":     b.ProjectName,
		"unit":             b.Unit,
		"status":           b.Status,
		"reference_role":   b.Reference.Role,
		"total":            b.TotalRevenue(),
		"payment_received": b.PaymentReceived,
	}
	if !b.BookingDate.IsZero() {
		fields["booking_date"] = b.BookingDate
	}
	for _, f := range ReferenceFields {
		if v := b.Reference.Get(f); v != "" {
			fields[f] = v
		}
	}
	return listing.Record{ID: strconv.FormatInt(b.ID, 10), Fields: fields}
}
