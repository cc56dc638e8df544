package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bookingcrm/internal/domain"
	"bookingcrm/internal/listing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type listBody struct {
	Data []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
	Pagination domain.Pagination `json:"pagination"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	r := newFixture().engine()
	w := do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRoutesAndDBCheckBeforeWiring(t *testing.T) {
	f := newFixture()
	r := f.engine()

	w := do(r, http.MethodGet, "/routes", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	f.api.SetRouter(r)
	w = do(r, http.MethodGet, "/routes", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/bookings/:id")

	w = do(r, http.MethodGet, "/db-check", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListBookingsSearchFilterAndPaging(t *testing.T) {
	r := newFixture().engine()

	w := do(r, http.MethodGet, "/bookings?status=Pending&page_size=1&page=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[listBody](t, w)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Bhavna", body.Data[0].Name)
	assert.Equal(t, domain.Pagination{Page: 2, PageSize: 1, Total: 2}, body.Pagination)

	w = do(r, http.MethodGet, "/bookings?search=%20chetan%20", "")
	body = decode[listBody](t, w)
	require.Len(t, body.Data, 1)
	assert.Equal(t, int64(3), body.Data[0].ID)

	w = do(r, http.MethodGet, "/bookings?start_date=2025-03-02&end_date=2025-03-02", "")
	body = decode[listBody](t, w)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Bhavna", body.Data[0].Name)
}

func TestListBookingsClampsPastLastPage(t *testing.T) {
	r := newFixture().engine()
	w := do(r, http.MethodGet, "/bookings?page=9", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[listBody](t, w)
	assert.Equal(t, 1, body.Pagination.Page)
	assert.Len(t, body.Data, 3)
}

func TestListBookingsRejectsBadQuery(t *testing.T) {
	r := newFixture().engine()
	cases := []string{
		"/bookings?page=0",
		"/bookings?page=abc",
		"/bookings?page_size=101",
		"/bookings?start_date=03/01/2025",
		"/bookings?start_date=2025-03-05&end_date=2025-03-01",
	}
	for _, target := range cases {
		t.Run(target, func(t *testing.T) {
			w := do(r, http.MethodGet, target, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"validation_error"`)
		})
	}
}

func TestBookingCRUD(t *testing.T) {
	f := newFixture()
	r := f.engine()

	w := do(r, http.MethodGet, "/bookings/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/bookings/42", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, "/bookings", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/bookings", `{"contact_number":"1","booking_date":"2025-03-10"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "name")

	payload := `{"name":"Deepa","contact_number":"98100","booking_date":"2025-03-10","bsp":"250000",
		"reference":{"role":"Team Leader","tlcp":"1"}}`
	w = do(r, http.MethodPost, "/bookings", payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	assert.Equal(t, "Pending", created["status"])
	assert.EqualValues(t, 4, created["id"])

	w = do(r, http.MethodPut, "/bookings/4", strings.Replace(payload, "Deepa", "Deepa K", 1))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Deepa K")

	w = do(r, http.MethodPut, "/bookings/4", `{"name":"x","contact_number":"1","booking_date":"2025-03-10",
		"reference":{"role":"Team Leader","tlcp":"2"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodDelete, "/bookings/4", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodDelete, "/bookings/4", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingReference(t *testing.T) {
	r := newFixture().engine()

	w := do(r, http.MethodGet, "/bookings/reference?role=AGM&value=3", "")
	require.Equal(t, http.StatusOK, w.Code)
	var form struct {
		Selected    string              `json:"selected"`
		Slots       []listing.SlotState `json:"slots"`
		UsersByRole map[string][]struct {
			Value string `json:"value"`
		} `json:"users_by_role"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &form))
	assert.Equal(t, "AGM", form.Selected)
	assert.Len(t, form.UsersByRole["Team Leader"], 1)

	w = do(r, http.MethodGet, "/bookings/reference?role=Intern", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportBookings(t *testing.T) {
	r := newFixture().engine()

	w := do(r, http.MethodGet, "/bookings/export?format=xlsx&status=Pending", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "bookings_20250315_100000.xlsx")
	assert.NotZero(t, w.Body.Len())

	w = do(r, http.MethodGet, "/bookings/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = do(r, http.MethodGet, "/bookings/export?format=csv", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboard(t *testing.T) {
	r := newFixture().engine()
	w := do(r, http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.EqualValues(t, 3, body["total_bookings"])
	assert.EqualValues(t, 1, body["cancelled_bookings"])
}

func TestListLeadsFilters(t *testing.T) {
	r := newFixture().engine()

	w := do(r, http.MethodGet, "/leads?agent_id=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[listBody](t, w)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Lead A", body.Data[0].Name)

	w = do(r, http.MethodGet, "/leads?source=walk-in", "")
	body = decode[listBody](t, w)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Lead B", body.Data[0].Name)
}

func TestCreateLead(t *testing.T) {
	f := newFixture()
	r := f.engine()

	w := do(r, http.MethodPost, "/leads", `{"name":"  New   Lead ","phone":"333","source":"web","agent_id":"1","status_id":"new"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.EqualValues(t, 3, body["id"])
	assert.Equal(t, "New Lead", body["name"])
	require.Len(t, f.leads.rows, 3)
	assert.Equal(t, fixedNow, f.leads.rows[2].CreatedAt)

	w = do(r, http.MethodPost, "/leads", `{"name":"No Phone"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "phone: is required")

	w = do(r, http.MethodPost, "/leads", `{"name":"Bad Mail","phone":"444","email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "email: must be a valid email")

	w = do(r, http.MethodPost, "/leads", `{"name":"Ghost","phone":"555","agent_id":"99"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown agent 99")
	assert.Len(t, f.leads.rows, 3)
}

func TestExportLeads(t *testing.T) {
	r := newFixture().engine()

	w := do(r, http.MethodGet, "/leads/export?format=xlsx&source=web", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "leads_20250315_100000.xlsx")

	book, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Leads")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Lead A", rows[1][1])
	assert.Equal(t, "Tara", rows[1][5])
	assert.Equal(t, "New", rows[1][6])

	w = do(r, http.MethodGet, "/leads/export?format=pdf&search=lead", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = do(r, http.MethodGet, "/leads/export?format=pdf&start_date=2025-03-10&end_date=2025-03-01", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBulkUpdateLeads(t *testing.T) {
	f := newFixture()
	r := f.engine()

	w := do(r, http.MethodPost, "/leads/bulk-update", `{"ids":["1","2"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "select either status or agent")

	w = do(r, http.MethodPost, "/leads/bulk-update", `{"ids":[],"agent_id":"1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/leads/bulk-update", `{"ids":["1"],"agent_id":"99"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown agent")
	assert.Nil(t, f.leads.updated)

	w = do(r, http.MethodPost, "/leads/bulk-update", `{"ids":["1","2","2"],"status_id":"converted"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"updated":2`)
	assert.Equal(t, []int64{1, 2}, f.leads.updated)
}

func TestBulkDeleteLeads(t *testing.T) {
	f := newFixture()
	r := f.engine()

	w := do(r, http.MethodPost, "/leads/bulk-delete", `{"ids":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/leads/bulk-delete", `{"ids":["2"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{2}, f.leads.deleted)
}

func TestReferenceLists(t *testing.T) {
	r := newFixture().engine()
	w := do(r, http.MethodGet, "/agents", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Tara"`)

	w = do(r, http.MethodGet, "/statuses", "")
	assert.Contains(t, w.Body.String(), `"id":"converted"`)
}

func TestLogin(t *testing.T) {
	r := newFixture().engine()

	w := do(r, http.MethodPost, "/login", `{"email":"tara@x.test","password":"secret123"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.NotEmpty(t, body["token"])
	assert.NotContains(t, w.Body.String(), "PasswordHash")

	w = do(r, http.MethodPost, "/login", `{"email":"tara@x.test","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/login", `{"email":"tara@x.test"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUsers(t *testing.T) {
	f := newFixture()
	r := f.engine()

	w := do(r, http.MethodGet, "/users?is_active=true&role=Employee", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[listBody](t, w)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Eli", body.Data[0].Name)

	w = do(r, http.MethodGet, "/users?is_active=maybe", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/users", `{"name":"Nia","email":"nia@x.test","password":"secret123","role":"Employee"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "assigned_tl")

	w = do(r, http.MethodPost, "/users", `{"name":"Nia","email":"nia@x.test","password":"secret123","role":"Employee","assigned_tl":"1"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "secret123")

	w = do(r, http.MethodPut, "/users/3", `{"name":"Nia R","email":"nia@x.test","role":"Employee","assigned_tl":"1"}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodDelete, "/users/3", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodDelete, "/users/3", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRespondDomainError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		code int
	}{
		{domain.ValidationError{Field: "x", Msg: "bad"}, http.StatusBadRequest},
		{domain.UnauthorizedError{}, http.StatusUnauthorized},
		{domain.ForbiddenError{Role: "Employee"}, http.StatusForbidden},
		{domain.NotFoundError{Resource: "booking"}, http.StatusNotFound},
		{domain.ConflictError{Resource: "user"}, http.StatusConflict},
		{listing.UnknownRoleError{Role: "Intern"}, http.StatusBadRequest},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		RespondDomainError(c, tc.err)
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	RespondDomainError(c, errors.New("secret detail"))
	assert.NotContains(t, w.Body.String(), "secret detail")
}
