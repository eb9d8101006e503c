package roles

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storegate/internal/models"
)

// fakeStore keeps the full ledger history in memory with the same atomicity
// contract as the transactional store.
type fakeStore struct {
	mu   sync.Mutex
	rows []*models.RoleAssignment
}

func (s *fakeStore) Current(_ context.Context, identityID string) (*models.RoleAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.rows) - 1; i >= 0; i-- {
		r := s.rows[i]
		if r.IdentityID == identityID && r.IsCurrent && !r.Revoked {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Swap(_ context.Context, identityID string, next *models.RoleAssignment, revokeReason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, r := range s.rows {
		if r.IdentityID == identityID && r.IsCurrent && !r.Revoked {
			r.IsCurrent = false
			r.Revoked = true
			r.RevokedAt = &now
			r.RevokedReason = revokeReason
		}
	}
	cp := *next
	s.rows = append(s.rows, &cp)
	return nil
}

func (s *fakeStore) currentCount(identityID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.rows {
		if r.IdentityID == identityID && r.IsCurrent && !r.Revoked {
			n++
		}
	}
	return n
}

func TestAssignReplacesCurrent(t *testing.T) {
	store := &fakeStore{}
	ledger := NewLedger(store)

	_, err := ledger.Assign(context.Background(), "id-1", models.RoleRetail, "system", "signup default")
	require.NoError(t, err)
	_, err = ledger.Assign(context.Background(), "id-1", models.RoleWholesale, "admin-1", "upgrade")
	require.NoError(t, err)

	role, err := ledger.Current(context.Background(), "id-1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleWholesale, role)
	assert.Equal(t, 1, store.currentCount("id-1"))

	store.mu.Lock()
	first := store.rows[0]
	store.mu.Unlock()
	assert.True(t, first.Revoked)
	assert.Equal(t, "role changed to wholesale", first.RevokedReason)
}

func TestAssignRejectsUnknownRole(t *testing.T) {
	ledger := NewLedger(&fakeStore{})
	_, err := ledger.Assign(context.Background(), "id-1", models.Role("superuser"), "system", "")
	assert.Error(t, err)
}

func TestAssignConcurrentSingleCurrent(t *testing.T) {
	store := &fakeStore{}
	ledger := NewLedger(store)

	rotation := []models.Role{models.RoleRetail, models.RoleWholesale, models.RoleVendor, models.RoleAdmin}
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := ledger.Assign(context.Background(), "id-1", rotation[i%len(rotation)], "system", "churn")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, store.currentCount("id-1"))
}

func TestCurrentGuestFallback(t *testing.T) {
	ledger := NewLedger(&fakeStore{})
	role, err := ledger.Current(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, models.RoleGuest, role)
}
