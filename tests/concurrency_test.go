package tests

import (
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/lab-booking-backend/internal/rbac"
)

// Concurrent requests for the same slot must produce exactly one booking;
// the conditional insert in the repository is the only serialization point.
func TestConcurrentBookingSameSlot(t *testing.T) {
	clearTables()

	const workers = 8
	tokens := make([]string, workers)
	for i := range tokens {
		u := createTestUser(t, string(rune('a'+i))+"@lab.example", "hunter2hunter2", rbac.RoleStudent)
		tokens[i] = generateToken(t, u)
	}

	var wg sync.WaitGroup
	created := make(chan int, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			w := executeRequest("POST", "/api/bookings", bookingBody("laser-1", 540, 600), token)
			created <- w.Code
		}(tokens[i])
	}
	wg.Wait()
	close(created)

	successes := 0
	for code := range created {
		if code == http.StatusCreated {
			successes++
		} else {
			// Losers get the business-rule conflict, not a transport error.
			require.Equal(t, http.StatusOK, code)
		}
	}
	assert.Equal(t, 1, successes)

	// Exactly one row made it to the database.
	var count int
	err := testPool.QueryRow(t.Context(),
		"SELECT count(*) FROM public.bookings WHERE status IN ('Pending', 'Approved')").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// Concurrent session starts by one user must yield exactly one Active session.
func TestConcurrentSessionStart(t *testing.T) {
	clearTables()

	alice := createTestUser(t, "alice@lab.example", "hunter2hunter2", rbac.RoleStudent)
	token := generateToken(t, alice)

	const workers = 8
	var wg sync.WaitGroup
	created := make(chan int, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := executeRequest("POST", "/api/sessions", map[string]any{
				"equipment_id": "laser-1",
			}, token)
			created <- w.Code
		}()
	}
	wg.Wait()
	close(created)

	successes := 0
	for code := range created {
		if code == http.StatusCreated {
			successes++
		} else {
			require.Equal(t, http.StatusOK, code)
		}
	}
	assert.Equal(t, 1, successes)

	var count int
	err := testPool.QueryRow(t.Context(),
		"SELECT count(*) FROM public.sessions WHERE user_id = $1 AND status = 'Active'", alice.ID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
