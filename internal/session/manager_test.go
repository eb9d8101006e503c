package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storegate/internal/audit"
	"storegate/internal/models"
	"storegate/internal/roles"
)

type fakeStore struct {
	mu         sync.Mutex
	sessions   map[string]*models.Session
	identities map[string]*models.Identity
	touches    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions:   make(map[string]*models.Session),
		identities: make(map[string]*models.Identity),
	}
}

func (s *fakeStore) Insert(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.Token] = &cp
	return nil
}

func (s *fakeStore) FindByToken(_ context.Context, token string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (s *fakeStore) MarkRevoked(_ context.Context, token string, at time.Time, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[token]; ok && !sess.Revoked {
		sess.Revoked = true
		sess.RevokedAt = &at
		sess.RevokedReason = reason
	}
	return nil
}

func (s *fakeStore) TouchActivity(_ context.Context, token string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[token]; ok {
		sess.LastActivityAt = at
	}
	s.touches++
	return nil
}

func (s *fakeStore) IdentityByID(_ context.Context, id string) (*models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ident, ok := s.identities[id]
	if !ok {
		return nil, nil
	}
	cp := *ident
	return &cp, nil
}

func (s *fakeStore) touchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touches
}

type nullRoleStore struct{}

func (nullRoleStore) Current(context.Context, string) (*models.RoleAssignment, error) {
	return nil, nil
}

func (nullRoleStore) Swap(context.Context, string, *models.RoleAssignment, string) error {
	return nil
}

type fakeAuditStore struct {
	mu     sync.Mutex
	events []models.AuditEvent
}

func (s *fakeAuditStore) Insert(_ context.Context, ev *models.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *ev)
	return nil
}

func (s *fakeAuditStore) List(context.Context, string, int) ([]models.AuditEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AuditEvent(nil), s.events...), nil
}

func (s *fakeAuditStore) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.EventType)
	}
	return out
}

func newTestManager(store *fakeStore, auditStore *fakeAuditStore) *Manager {
	lg := zap.NewNop().Sugar()
	ledger := roles.NewLedger(nullRoleStore{})
	return NewManager(store, ledger, audit.NewRecorder(auditStore, lg), lg, 0)
}

func TestCreateAndValidate(t *testing.T) {
	store := newFakeStore()
	auditStore := &fakeAuditStore{}
	m := newTestManager(store, auditStore)
	store.identities["id-1"] = &models.Identity{ID: "id-1", Status: models.IdentityActive}

	sess, err := m.Create(context.Background(), "id-1")
	require.NoError(t, err)
	assert.Len(t, sess.Token, 64)
	assert.Equal(t, sess.IssuedAt.Add(DefaultTTL), sess.ExpiresAt)

	ident, role, ok := m.Validate(context.Background(), sess.Token)
	require.True(t, ok)
	assert.Equal(t, "id-1", ident.ID)
	assert.Equal(t, models.RoleGuest, role)
	assert.Contains(t, auditStore.types(), audit.EventSessionCreated)

	require.Eventually(t, func() bool { return store.touchCount() > 0 }, time.Second, 10*time.Millisecond)
}

func TestValidateUnknownToken(t *testing.T) {
	m := newTestManager(newFakeStore(), &fakeAuditStore{})
	_, _, ok := m.Validate(context.Background(), "nope")
	assert.False(t, ok)
}

func TestValidateExpiredBeatsRevoked(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store, &fakeAuditStore{})
	store.identities["id-1"] = &models.Identity{ID: "id-1", Status: models.IdentityActive}

	sess, err := m.Create(context.Background(), "id-1")
	require.NoError(t, err)

	// A session past its expiry is invalid regardless of the revoked flag.
	m.now = func() time.Time { return sess.ExpiresAt.Add(time.Minute) }
	_, _, ok := m.Validate(context.Background(), sess.Token)
	assert.False(t, ok)
	assert.Zero(t, store.touchCount())
}

func TestValidateRevoked(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store, &fakeAuditStore{})
	store.identities["id-1"] = &models.Identity{ID: "id-1", Status: models.IdentityActive}

	sess, err := m.Create(context.Background(), "id-1")
	require.NoError(t, err)
	require.True(t, m.Revoke(context.Background(), sess.Token, "compromised"))

	_, _, ok := m.Validate(context.Background(), sess.Token)
	assert.False(t, ok)
}

func TestValidateInactiveIdentity(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store, &fakeAuditStore{})
	store.identities["id-1"] = &models.Identity{ID: "id-1", Status: models.IdentityActive}

	sess, err := m.Create(context.Background(), "id-1")
	require.NoError(t, err)

	store.mu.Lock()
	store.identities["id-1"].Status = models.IdentitySuspended
	store.mu.Unlock()

	_, _, ok := m.Validate(context.Background(), sess.Token)
	assert.False(t, ok)
}

func TestRevokeIdempotentAndAudited(t *testing.T) {
	store := newFakeStore()
	auditStore := &fakeAuditStore{}
	m := newTestManager(store, auditStore)
	store.identities["id-1"] = &models.Identity{ID: "id-1", Status: models.IdentityActive}

	sess, err := m.Create(context.Background(), "id-1")
	require.NoError(t, err)

	assert.False(t, m.Revoke(context.Background(), "unknown", "x"))
	assert.True(t, m.Revoke(context.Background(), sess.Token, UserLogoutReason))
	assert.True(t, m.Revoke(context.Background(), sess.Token, UserLogoutReason))

	types := auditStore.types()
	logouts := 0
	for _, ty := range types {
		if ty == audit.EventLogout {
			logouts++
		}
	}
	assert.Equal(t, 1, logouts)
}
