package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/lab-booking-backend/internal/rbac"
	"github.com/nekogravitycat/lab-booking-backend/internal/user"
)

type sessionJSON struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	BookingID   *string `json:"booking_id"`
	EquipmentID string  `json:"equipment_id"`
	Status      string  `json:"status"`
	EndedAt     *string `json:"ended_at"`
	Notes       *string `json:"notes"`
}

type sessionPage struct {
	Items []sessionJSON `json:"items"`
	Total int           `json:"total"`
}

func startSession(t *testing.T, token, equipmentID string) sessionJSON {
	w := executeRequest("POST", "/api/sessions", map[string]any{
		"equipment_id": equipmentID,
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, "Body: %s", w.Body.String())

	var s sessionJSON
	parseData(t, w, &s)
	return s
}

// approveBookingFor creates an approved booking for the given requester.
func approveBookingFor(t *testing.T, requester *user.User, approver *user.User, equipmentID string, start, end int) bookingJSON {
	b := createBooking(t, generateToken(t, requester), equipmentID, start, end)

	w := executeRequest("POST", "/api/bookings/"+b.ID+"/approve", nil, generateToken(t, approver))
	require.Equal(t, http.StatusOK, w.Code)

	var approved bookingJSON
	parseData(t, w, &approved)
	return approved
}

func TestStartAdHocSession(t *testing.T) {
	clearTables()
	alice := createTestUser(t, "alice@lab.example", "hunter2hunter2", rbac.RoleStudent)

	s := startSession(t, generateToken(t, alice), "laser-1")

	assert.Equal(t, "Active", s.Status)
	assert.Equal(t, alice.ID, s.UserID)
	assert.Nil(t, s.BookingID)
	assert.Nil(t, s.EndedAt)
}

func TestSecondActiveSessionRejected(t *testing.T) {
	clearTables()
	alice := createTestUser(t, "alice@lab.example", "hunter2hunter2", rbac.RoleStudent)
	bob := createTestUser(t, "bob@lab.example", "hunter2hunter2", rbac.RoleStudent)
	token := generateToken(t, alice)

	startSession(t, token, "laser-1")

	// Even on different equipment.
	w := executeRequest("POST", "/api/sessions", map[string]any{
		"equipment_id": "laser-2",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, "Body: %s", w.Body.String())
	env := parseEnvelope(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "user already has an active session", env.Error)

	// Another user is unaffected.
	startSession(t, generateToken(t, bob), "laser-1")
}

func TestStartSessionAgainstBooking(t *testing.T) {
	clearTables()
	alice := createTestUser(t, "alice@lab.example", "hunter2hunter2", rbac.RoleStudent)
	carol := createTestUser(t, "carol@lab.example", "hunter2hunter2", rbac.RoleTeacher)

	approved := approveBookingFor(t, alice, carol, "laser-1", 540, 600)

	w := executeRequest("POST", "/api/sessions", map[string]any{
		"equipment_id": "laser-1",
		"booking_id":   approved.ID,
	}, generateToken(t, alice))
	require.Equal(t, http.StatusCreated, w.Code, "Body: %s", w.Body.String())

	var s sessionJSON
	parseData(t, w, &s)
	require.NotNil(t, s.BookingID)
	assert.Equal(t, approved.ID, *s.BookingID)
}

func TestStartSessionAgainstPendingBooking(t *testing.T) {
	clearTables()
	alice := createTestUser(t, "alice@lab.example", "hunter2hunter2", rbac.RoleStudent)
	token := generateToken(t, alice)

	b := createBooking(t, token, "laser-1", 540, 600)

	w := executeRequest("POST", "/api/sessions", map[string]any{
		"equipment_id": "laser-1",
		"booking_id":   b.ID,
	}, token)
	require.Equal(t, http.StatusOK, w.Code)
	env := parseEnvelope(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "booking is not approved", env.Error)
}

func TestStartSessionEquipmentMismatch(t *testing.T) {
	clearTables()
	alice := createTestUser(t, "alice@lab.example", "hunter2hunter2", rbac.RoleStudent)
	carol := createTestUser(t, "carol@lab.example", "hunter2hunter2", rbac.RoleTeacher)

	approved := approveBookingFor(t, alice, carol, "laser-1", 540, 600)

	w := executeRequest("POST", "/api/sessions", map[string]any{
		"equipment_id": "laser-2",
		"booking_id":   approved.ID,
	}, generateToken(t, alice))
	require.Equal(t, http.StatusOK, w.Code)
	env := parseEnvelope(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "booking is for different equipment", env.Error)
}

func TestStartSessionAgainstForeignBooking(t *testing.T) {
	clearTables()
	alice := createTestUser(t, "alice@lab.example", "hunter2hunter2", rbac.RoleStudent)
	bob := createTestUser(t, "bob@lab.example", "hunter2hunter2", rbac.RoleStudent)
	carol := createTestUser(t, "carol@lab.example", "hunter2hunter2", rbac.RoleTeacher)

	approved := approveBookingFor(t, alice, carol, "laser-1", 540, 600)

	w := executeRequest("POST", "/api/sessions", map[string]any{
		"equipment_id": "laser-1",
		"booking_id":   approved.ID,
	}, generateToken(t, bob))
	require.Equal(t, http.StatusOK, w.Code)
	env := parseEnvelope(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "booking belongs to another user", env.Error)

	// A teacher may run a session against any approved booking.
	w = executeRequest("POST", "/api/sessions", map[string]any{
		"equipment_id": "laser-1",
		"booking_id":   approved.ID,
	}, generateToken(t, carol))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestEndSession(t *testing.T) {
	clearTables()
	alice := createTestUser(t, "alice@lab.example", "hunter2hunter2", rbac.RoleStudent)
	token := generateToken(t, alice)

	s := startSession(t, token, "laser-1")

	w := executeRequest("POST", "/api/sessions/"+s.ID+"/end", map[string]any{
		"notes": "sample holder cleaned",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, "Body: %s", w.Body.String())

	var ended sessionJSON
	parseData(t, w, &ended)
	assert.Equal(t, "Completed", ended.Status)
	require.NotNil(t, ended.EndedAt)
	require.NotNil(t, ended.Notes)
	assert.Equal(t, "sample holder cleaned", *ended.Notes)
}

func TestEndSessionTwice(t *testing.T) {
	clearTables()
	alice := createTestUser(t, "alice@lab.example", "hunter2hunter2", rbac.RoleStudent)
	token := generateToken(t, alice)

	s := startSession(t, token, "laser-1")

	w := executeRequest("POST", "/api/sessions/"+s.ID+"/end", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	env := parseEnvelope(t, w)
	require.True(t, env.Success)

	w = executeRequest("POST", "/api/sessions/"+s.ID+"/end", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	env = parseEnvelope(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "session is not active", env.Error)
}

func TestEndSessionPermissions(t *testing.T) {
	clearTables()
	alice := createTestUser(t, "alice@lab.example", "hunter2hunter2", rbac.RoleStudent)
	bob := createTestUser(t, "bob@lab.example", "hunter2hunter2", rbac.RoleStudent)
	carol := createTestUser(t, "carol@lab.example", "hunter2hunter2", rbac.RoleTeacher)

	s := startSession(t, generateToken(t, alice), "laser-1")

	w := executeRequest("POST", "/api/sessions/"+s.ID+"/end", nil, generateToken(t, bob))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// A teacher may force-end any session.
	w = executeRequest("POST", "/api/sessions/"+s.ID+"/end", nil, generateToken(t, carol))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetCurrentSession(t *testing.T) {
	clearTables()
	alice := createTestUser(t, "alice@lab.example", "hunter2hunter2", rbac.RoleStudent)
	token := generateToken(t, alice)

	w := executeRequest("GET", "/api/sessions/current", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	env := parseEnvelope(t, w)
	require.True(t, env.Success)
	assert.True(t, len(env.Data) == 0 || string(env.Data) == "null")

	s := startSession(t, token, "laser-1")

	w = executeRequest("GET", "/api/sessions/current", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var cur sessionJSON
	parseData(t, w, &cur)
	assert.Equal(t, s.ID, cur.ID)

	w = executeRequest("POST", "/api/sessions/"+s.ID+"/end", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = executeRequest("GET", "/api/sessions/current", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	env = parseEnvelope(t, w)
	require.True(t, env.Success)
	assert.True(t, len(env.Data) == 0 || string(env.Data) == "null")
}

func TestSessionVisibility(t *testing.T) {
	clearTables()
	alice := createTestUser(t, "alice@lab.example", "hunter2hunter2", rbac.RoleStudent)
	bob := createTestUser(t, "bob@lab.example", "hunter2hunter2", rbac.RoleStudent)
	carol := createTestUser(t, "carol@lab.example", "hunter2hunter2", rbac.RoleTeacher)

	s := startSession(t, generateToken(t, alice), "laser-1")

	w := executeRequest("GET", "/api/sessions/"+s.ID, nil, generateToken(t, bob))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = executeRequest("GET", "/api/sessions/"+s.ID, nil, generateToken(t, carol))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListSessions(t *testing.T) {
	clearTables()
	alice := createTestUser(t, "alice@lab.example", "hunter2hunter2", rbac.RoleStudent)
	bob := createTestUser(t, "bob@lab.example", "hunter2hunter2", rbac.RoleStudent)
	carol := createTestUser(t, "carol@lab.example", "hunter2hunter2", rbac.RoleTeacher)

	startSession(t, generateToken(t, alice), "laser-1")
	startSession(t, generateToken(t, bob), "laser-2")

	// Students see only their own sessions.
	w := executeRequest("GET", "/api/sessions", nil, generateToken(t, alice))
	require.Equal(t, http.StatusOK, w.Code)
	var page sessionPage
	parseData(t, w, &page)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, alice.ID, page.Items[0].UserID)

	// Teachers see everything, optionally filtered.
	w = executeRequest("GET", "/api/sessions", nil, generateToken(t, carol))
	require.Equal(t, http.StatusOK, w.Code)
	parseData(t, w, &page)
	assert.Equal(t, 2, page.Total)

	w = executeRequest("GET", "/api/sessions?equipment_id=laser-2", nil, generateToken(t, carol))
	require.Equal(t, http.StatusOK, w.Code)
	parseData(t, w, &page)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, bob.ID, page.Items[0].UserID)
}
