package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storegate/internal/audit"
	"storegate/internal/auth"
	"storegate/internal/models"
	"storegate/internal/roles"
	"storegate/internal/session"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
	ErrValidation         = errors.New("invalid input")
)

// Store is the accounts service's view of the identity tables.
type Store interface {
	IdentityByEmail(ctx context.Context, email string) (*models.Identity, error)
	IdentityByID(ctx context.Context, id string) (*models.Identity, error)
	ListIdentities(ctx context.Context, limit int) ([]models.Identity, error)
	CreateIdentity(ctx context.Context, ident *models.Identity, cred *models.Credential) error
	SaveIdentity(ctx context.Context, ident *models.Identity) error
	CredentialFor(ctx context.Context, identityID string) (*models.Credential, error)
	SaveCredential(ctx context.Context, cred *models.Credential) error
	ReplaceCredential(ctx context.Context, oldID string, next *models.Credential) error
	UpdateProfileRole(ctx context.Context, identityID string, role models.Role) error
}

// Service orchestrates signup, login, logout, and role changes over the
// credential store, session manager, role ledger, and audit recorder.
type Service struct {
	store    Store
	sessions *session.Manager
	roles    *roles.Ledger
	audit    *audit.Recorder
	lg       *zap.SugaredLogger
	now      func() time.Time
}

func NewService(store Store, sessions *session.Manager, ledger *roles.Ledger, rec *audit.Recorder, lg *zap.SugaredLogger) *Service {
	return &Service{store: store, sessions: sessions, roles: ledger, audit: rec, lg: lg, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// Signup registers a new identity with the default retail role and opens its
// first session. A failure after identity creation demotes the identity to
// deleted so no half-registered account stays active.
func (s *Service) Signup(ctx context.Context, email, password, fullName string) (*models.Identity, *models.Session, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") || password == "" {
		return nil, nil, ErrValidation
	}
	existing, err := s.store.IdentityByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, ErrEmailTaken
	}

	now := s.now()
	ident := &models.Identity{
		ID:        uuid.NewString(),
		Email:     email,
		FullName:  strings.TrimSpace(fullName),
		Status:    models.IdentityActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	salt := auth.GenerateSalt()
	cred := &models.Credential{
		ID:           uuid.NewString(),
		IdentityID:   ident.ID,
		PasswordHash: auth.HashPassword(password, salt),
		Salt:         salt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateIdentity(ctx, ident, cred); err != nil {
		return nil, nil, err
	}
	if _, err := s.roles.Assign(ctx, ident.ID, models.RoleRetail, "system", "signup default"); err != nil {
		ident.Status = models.IdentityDeleted
		ident.UpdatedAt = s.now()
		if cerr := s.store.SaveIdentity(ctx, ident); cerr != nil {
			s.lg.Errorw("signup compensation failed", "identity_id", ident.ID, "error", cerr)
		}
		return nil, nil, err
	}
	s.audit.Record(ctx, audit.Event{Type: audit.EventSignup, IdentityID: ident.ID, Metadata: map[string]any{"email": email}})

	sess, err := s.sessions.Create(ctx, ident.ID)
	if err != nil {
		return nil, nil, err
	}
	return ident, sess, nil
}

// Login authenticates by email and password. A lockout in force fails before
// any password comparison and leaves the attempt counter untouched.
func (s *Service) Login(ctx context.Context, email, password string) (*models.Identity, *models.Session, error) {
	email = normalizeEmail(email)
	ident, err := s.store.IdentityByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if ident == nil || ident.Status != models.IdentityActive {
		return nil, nil, ErrInvalidCredentials
	}
	cred, err := s.store.CredentialFor(ctx, ident.ID)
	if err != nil {
		return nil, nil, err
	}
	if cred == nil {
		return nil, nil, ErrInvalidCredentials
	}

	now := s.now()
	if cred.LockedUntil != nil && cred.LockedUntil.After(now) {
		s.audit.Record(ctx, audit.Event{
			Type:       audit.EventLoginFailed,
			IdentityID: ident.ID,
			Metadata:   map[string]any{"reason": "account_locked"},
		})
		return nil, nil, ErrAccountLocked
	}

	if !auth.CheckPassword(cred.PasswordHash, password, cred.Salt) {
		cred.FailedAttempts++
		cred.UpdatedAt = now
		if err := s.store.SaveCredential(ctx, cred); err != nil {
			s.lg.Warnw("failed-attempt counter update failed", "identity_id", ident.ID, "error", err)
		}
		s.audit.Record(ctx, audit.Event{
			Type:       audit.EventLoginFailed,
			IdentityID: ident.ID,
			Metadata:   map[string]any{"reason": "bad_password", "failed_attempts": cred.FailedAttempts},
		})
		return nil, nil, ErrInvalidCredentials
	}

	if cred.FailedAttempts != 0 {
		cred.FailedAttempts = 0
		cred.UpdatedAt = now
		if err := s.store.SaveCredential(ctx, cred); err != nil {
			s.lg.Warnw("failed-attempt counter reset failed", "identity_id", ident.ID, "error", err)
		}
	}
	t := now
	ident.LastLoginAt = &t
	ident.LoginCount++
	ident.UpdatedAt = now
	if err := s.store.SaveIdentity(ctx, ident); err != nil {
		s.lg.Warnw("login counter update failed", "identity_id", ident.ID, "error", err)
	}

	role, err := s.roles.Current(ctx, ident.ID)
	if err != nil {
		role = models.RoleGuest
	}
	s.audit.Record(ctx, audit.Event{Type: audit.EventLogin, IdentityID: ident.ID, Metadata: map[string]any{"role": string(role)}})

	sess, err := s.sessions.Create(ctx, ident.ID)
	if err != nil {
		return nil, nil, err
	}
	return ident, sess, nil
}

// Logout revokes the session behind the token. An unknown token is a no-op
// reported as false, not an error.
func (s *Service) Logout(ctx context.Context, token string) bool {
	return s.sessions.Revoke(ctx, token, session.UserLogoutReason)
}

// ValidateSession resolves a bearer token to an identity and its current
// role. Callers treat a false result as unauthenticated.
func (s *Service) ValidateSession(ctx context.Context, token string) (*models.Identity, models.Role, bool) {
	return s.sessions.Validate(ctx, token)
}

// Principal adapts ValidateSession for the HTTP middleware.
func (s *Service) Principal(ctx context.Context, token string) (auth.Principal, bool) {
	ident, role, ok := s.ValidateSession(ctx, token)
	if !ok {
		return auth.Principal{}, false
	}
	return auth.Principal{ID: ident.ID, Email: ident.Email, Role: role}, true
}

// ChangeRole reassigns the identity's current role through the ledger and
// refreshes the denormalized profile role.
func (s *Service) ChangeRole(ctx context.Context, identityID string, newRole models.Role, actor, reason string) (bool, error) {
	ident, err := s.store.IdentityByID(ctx, identityID)
	if err != nil {
		return false, err
	}
	if ident == nil {
		return false, nil
	}
	if _, err := s.roles.Assign(ctx, identityID, newRole, actor, reason); err != nil {
		return false, err
	}
	if err := s.store.UpdateProfileRole(ctx, identityID, newRole); err != nil {
		s.lg.Warnw("profile role update failed", "identity_id", identityID, "error", err)
	}
	s.audit.Record(ctx, audit.Event{
		Type:       audit.EventRoleChanged,
		IdentityID: identityID,
		ActorID:    actor,
		Metadata:   map[string]any{"role": string(newRole), "reason": reason},
	})
	return true, nil
}

// ChangeStatus transitions the account lifecycle state. Deleted is terminal.
func (s *Service) ChangeStatus(ctx context.Context, identityID string, status models.IdentityStatus, actor string) (bool, error) {
	if !status.Valid() {
		return false, ErrValidation
	}
	ident, err := s.store.IdentityByID(ctx, identityID)
	if err != nil {
		return false, err
	}
	if ident == nil {
		return false, nil
	}
	if ident.Status == models.IdentityDeleted {
		return false, ErrValidation
	}
	if ident.Status == status {
		return true, nil
	}
	ident.Status = status
	ident.UpdatedAt = s.now()
	if err := s.store.SaveIdentity(ctx, ident); err != nil {
		return false, err
	}
	s.audit.Record(ctx, audit.Event{
		Type:       audit.EventStatusChanged,
		IdentityID: identityID,
		ActorID:    actor,
		Metadata:   map[string]any{"status": string(status)},
	})
	return true, nil
}

// ChangePassword verifies the current password and replaces the credential
// row with a freshly salted one.
func (s *Service) ChangePassword(ctx context.Context, identityID, current, next string) error {
	if next == "" {
		return ErrValidation
	}
	cred, err := s.store.CredentialFor(ctx, identityID)
	if err != nil {
		return err
	}
	if cred == nil {
		return ErrInvalidCredentials
	}
	if !auth.CheckPassword(cred.PasswordHash, current, cred.Salt) {
		return ErrInvalidCredentials
	}
	now := s.now()
	salt := auth.GenerateSalt()
	replacement := &models.Credential{
		ID:           uuid.NewString(),
		IdentityID:   identityID,
		PasswordHash: auth.HashPassword(next, salt),
		Salt:         salt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.ReplaceCredential(ctx, cred.ID, replacement); err != nil {
		return err
	}
	s.audit.Record(ctx, audit.Event{Type: audit.EventPasswordChanged, IdentityID: identityID})
	return nil
}

// ListIdentities returns accounts for the admin surface, newest first.
func (s *Service) ListIdentities(ctx context.Context, limit int) ([]models.Identity, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.ListIdentities(ctx, limit)
}
