package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storegate/internal/audit"
	"storegate/internal/auth"
	"storegate/internal/models"
	"storegate/internal/roles"
)

// DefaultTTL is the session lifetime when none is configured.
const DefaultTTL = 168 * time.Hour

// UserLogoutReason marks a revocation as user-initiated; the manager audits
// it as a logout rather than a generic revocation.
const UserLogoutReason = "User logout"

type Store interface {
	Insert(ctx context.Context, s *models.Session) error
	FindByToken(ctx context.Context, token string) (*models.Session, error)
	MarkRevoked(ctx context.Context, token string, at time.Time, reason string) error
	TouchActivity(ctx context.Context, token string, at time.Time) error
	IdentityByID(ctx context.Context, id string) (*models.Identity, error)
}

type Manager struct {
	store Store
	roles *roles.Ledger
	audit *audit.Recorder
	lg    *zap.SugaredLogger
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(store Store, ledger *roles.Ledger, rec *audit.Recorder, lg *zap.SugaredLogger, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, roles: ledger, audit: rec, lg: lg, ttl: ttl, now: time.Now}
}

// Create issues a new session for the identity. Existing sessions are left
// alone: concurrent sessions are allowed.
func (m *Manager) Create(ctx context.Context, identityID string) (*models.Session, error) {
	now := m.now()
	s := &models.Session{
		Token:          auth.GenerateToken(),
		IdentityID:     identityID,
		IssuedAt:       now,
		ExpiresAt:      now.Add(m.ttl),
		LastActivityAt: now,
	}
	if err := m.store.Insert(ctx, s); err != nil {
		return nil, err
	}
	m.audit.Record(ctx, audit.Event{
		Type:       audit.EventSessionCreated,
		IdentityID: identityID,
		Metadata:   map[string]any{"expires_at": s.ExpiresAt},
	})
	return s, nil
}

// Validate resolves a bearer token to its identity and governing role.
// Expiry is evaluated before the revoked flag; either one invalidates the
// session, as does a non-active identity. The activity touch is off the
// critical path and may silently fail.
func (m *Manager) Validate(ctx context.Context, token string) (*models.Identity, models.Role, bool) {
	s, err := m.store.FindByToken(ctx, token)
	if err != nil || s == nil {
		return nil, models.RoleGuest, false
	}
	now := m.now()
	if !s.ExpiresAt.After(now) {
		return nil, models.RoleGuest, false
	}
	if s.Revoked {
		return nil, models.RoleGuest, false
	}
	ident, err := m.store.IdentityByID(ctx, s.IdentityID)
	if err != nil || ident == nil || ident.Status != models.IdentityActive {
		return nil, models.RoleGuest, false
	}

	go func() {
		if err := m.store.TouchActivity(context.Background(), token, now); err != nil {
			m.lg.Debugw("session activity touch failed", "error", err)
		}
	}()

	role, err := m.roles.Current(ctx, ident.ID)
	if err != nil {
		role = models.RoleGuest
	}
	return ident, role, true
}

// Revoke marks the session revoked. It is idempotent and reports whether the
// token referenced a known session.
func (m *Manager) Revoke(ctx context.Context, token, reason string) bool {
	s, err := m.store.FindByToken(ctx, token)
	if err != nil || s == nil {
		return false
	}
	if s.Revoked {
		return true
	}
	if err := m.store.MarkRevoked(ctx, token, m.now(), reason); err != nil {
		m.lg.Warnw("session revoke failed", "error", err)
		return false
	}
	eventType := audit.EventSessionRevoked
	if reason == UserLogoutReason {
		eventType = audit.EventLogout
	}
	m.audit.Record(ctx, audit.Event{
		Type:       eventType,
		IdentityID: s.IdentityID,
		Metadata:   map[string]any{"reason": reason},
	})
	return true
}
