package audit

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"storegate/internal/models"
)

// Event types recorded by the platform.
const (
	EventSignup               = "signup"
	EventLogin                = "login"
	EventLoginFailed          = "login_failed"
	EventLogout               = "logout"
	EventSessionCreated       = "session_created"
	EventSessionRevoked       = "session_revoked"
	EventRoleChanged          = "role_changed"
	EventStatusChanged        = "status_changed"
	EventPasswordChanged      = "password_changed"
	EventSubscriptionEnforced = "subscription_enforced"
	EventPromoUsageTracked    = "promo_usage_tracked"
)

type Event struct {
	Type       string
	IdentityID string
	ActorID    string
	Metadata   map[string]any
}

type Store interface {
	Insert(ctx context.Context, ev *models.AuditEvent) error
	List(ctx context.Context, identityID string, limit int) ([]models.AuditEvent, error)
}

// Recorder appends audit events best-effort. It never fails the caller:
// insert errors are logged and swallowed.
type Recorder struct {
	store Store
	lg    *zap.SugaredLogger
	now   func() time.Time
}

func NewRecorder(store Store, lg *zap.SugaredLogger) *Recorder {
	return &Recorder{store: store, lg: lg, now: time.Now}
}

func (r *Recorder) Record(ctx context.Context, ev Event) {
	row := &models.AuditEvent{
		EventType: ev.Type,
		CreatedAt: r.now(),
	}
	if ev.IdentityID != "" {
		id := ev.IdentityID
		row.IdentityID = &id
	}
	if ev.ActorID != "" {
		actor := ev.ActorID
		row.ActorID = &actor
	}
	if len(ev.Metadata) > 0 {
		if b, err := json.Marshal(ev.Metadata); err == nil {
			row.Metadata = models.JSONB(b)
		}
	}
	if err := r.store.Insert(ctx, row); err != nil {
		r.lg.Warnw("audit insert failed", "event", ev.Type, "error", err)
	}
}

// Recent returns audit events, newest first. An empty identityID returns
// events for all identities.
func (r *Recorder) Recent(ctx context.Context, identityID string, limit int) ([]models.AuditEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	return r.store.List(ctx, identityID, limit)
}
