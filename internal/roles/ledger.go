package roles

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"storegate/internal/models"
)

// Store persists ledger rows. Swap must revoke the identity's current row
// and insert the next one as a single atomic unit.
type Store interface {
	Current(ctx context.Context, identityID string) (*models.RoleAssignment, error)
	Swap(ctx context.Context, identityID string, next *models.RoleAssignment, revokeReason string) error
}

// Ledger is the append-only history of role grants. Role changes are
// revoke-old plus insert-new, never in-place mutation.
type Ledger struct {
	store Store
	now   func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store, now: time.Now, locks: make(map[string]*sync.Mutex)}
}

func (l *Ledger) lockFor(identityID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[identityID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[identityID] = m
	}
	return m
}

// Assign makes role the identity's current role. Calls for the same identity
// are serialized so no observer can see two current rows at once.
func (l *Ledger) Assign(ctx context.Context, identityID string, role models.Role, actor, reason string) (*models.RoleAssignment, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	m := l.lockFor(identityID)
	m.Lock()
	defer m.Unlock()

	next := &models.RoleAssignment{
		ID:         uuid.NewString(),
		IdentityID: identityID,
		Role:       role,
		AssignedBy: actor,
		Reason:     reason,
		IsCurrent:  true,
		CreatedAt:  l.now(),
	}
	if err := l.store.Swap(ctx, identityID, next, "role changed to "+string(role)); err != nil {
		return nil, err
	}
	return next, nil
}

// Current returns the governing role, or the guest sentinel when the
// identity has no current non-revoked assignment.
func (l *Ledger) Current(ctx context.Context, identityID string) (models.Role, error) {
	row, err := l.store.Current(ctx, identityID)
	if err != nil {
		return models.RoleGuest, err
	}
	if row == nil {
		return models.RoleGuest, nil
	}
	return row.Role, nil
}
