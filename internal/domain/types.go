package domain

// ID is used across domain entities.
type ID int64

// Pagination is the paging block returned with every list response.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}

// RequestContext carries the authenticated user taken from the bearer token.
type RequestContext struct {
	UserID ID     `json:"userId"`
	Role   string `json:"role"`
}

// Booking statuses shown on the dashboard.
const (
	StatusPending   = "Pending"
	StatusComplete  = "Complete"
	StatusCancelled = "Cancelled"
)

// RoleAdmin sits outside the reference hierarchy and manages users.
const RoleAdmin = "Admin"
