package enforce

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storegate/internal/audit"
	"storegate/internal/models"
)

// Blocker strings are reported in this fixed order.
const (
	BlockerNotApproved    = "Vendor is not approved"
	BlockerNoSubscription = "No active subscription"
	BlockerNoAgreement    = "Vendor agreement not signed"
)

// Visibility refusal reasons, first failing condition wins.
const (
	ReasonNotVisibleOnSite = "Product not visible on this site"
	ReasonProductInactive  = "Product is not active"
	ReasonVendorNotLive    = "Vendor cannot go live"
)

// GoLiveStatus is the derived eligibility state permitting a vendor's
// products to be sold.
type GoLiveStatus struct {
	CanGoLive             bool     `json:"can_go_live"`
	IsApproved            bool     `json:"is_approved"`
	HasActiveSubscription bool     `json:"has_active_subscription"`
	HasSignedAgreement    bool     `json:"has_signed_agreement"`
	Blockers              []string `json:"blockers"`
}

type Visibility struct {
	IsVisible bool   `json:"is_visible"`
	Reason    string `json:"reason,omitempty"`
}

type PromoValidation struct {
	IsValid   bool     `json:"is_valid"`
	CanBeUsed bool     `json:"can_be_used"`
	Errors    []string `json:"errors"`
}

// Store is the engine's read view of the vendor, catalog, and promotion
// tables, plus the two compensating writes it owns.
type Store interface {
	VendorByID(ctx context.Context, id string) (*models.Vendor, error)
	ActiveSubscription(ctx context.Context, vendorID string) (*models.VendorSubscription, error)
	HasSignedAgreement(ctx context.Context, vendorID string) (bool, error)
	ProductByID(ctx context.Context, id string) (*models.Product, error)
	ProductVisibleOnSite(ctx context.Context, productID, siteID string) (bool, error)
	VisibleProductIDs(ctx context.Context, siteID string, limit int) ([]string, error)
	CategoryVisibleOnSite(ctx context.Context, categoryID, siteID string) (bool, error)
	PromotionByID(ctx context.Context, id string) (*models.Promotion, error)
	ArchiveVendorProducts(ctx context.Context, vendorID string) (int64, error)
	MarkSubscriptionExpired(ctx context.Context, subscriptionID string) error
	InsertPromoUsage(ctx context.Context, usage *models.PromoUsage) error
}

// Engine re-derives visibility and eligibility server-side on every check.
// Any failure during a check resolves to the closed outcome.
type Engine struct {
	store Store
	audit *audit.Recorder
	lg    *zap.SugaredLogger
	now   func() time.Time
}

func NewEngine(store Store, rec *audit.Recorder, lg *zap.SugaredLogger) *Engine {
	return &Engine{store: store, audit: rec, lg: lg, now: time.Now}
}

// VendorGoLiveStatus evaluates the three go-live preconditions. All three
// are always checked so the blocker list is complete.
func (e *Engine) VendorGoLiveStatus(ctx context.Context, vendorID string) GoLiveStatus {
	st := GoLiveStatus{Blockers: []string{}}

	vendor, err := e.store.VendorByID(ctx, vendorID)
	if err != nil {
		e.lg.Warnw("vendor lookup failed", "vendor_id", vendorID, "error", err)
	}
	st.IsApproved = err == nil && vendor != nil && vendor.Status == models.VendorApproved

	sub, err := e.store.ActiveSubscription(ctx, vendorID)
	if err != nil {
		e.lg.Warnw("subscription lookup failed", "vendor_id", vendorID, "error", err)
	}
	st.HasActiveSubscription = err == nil && sub != nil && sub.BillingPeriodEnd.After(e.now())

	signed, err := e.store.HasSignedAgreement(ctx, vendorID)
	if err != nil {
		e.lg.Warnw("agreement lookup failed", "vendor_id", vendorID, "error", err)
	}
	st.HasSignedAgreement = err == nil && signed

	if !st.IsApproved {
		st.Blockers = append(st.Blockers, BlockerNotApproved)
	}
	if !st.HasActiveSubscription {
		st.Blockers = append(st.Blockers, BlockerNoSubscription)
	}
	if !st.HasSignedAgreement {
		st.Blockers = append(st.Blockers, BlockerNoAgreement)
	}
	st.CanGoLive = st.IsApproved && st.HasActiveSubscription && st.HasSignedAgreement
	return st
}

// ProductVisibility short-circuits on the first failing condition:
// site visibility row, product status, then vendor go-live.
func (e *Engine) ProductVisibility(ctx context.Context, productID, siteID string) Visibility {
	visible, err := e.store.ProductVisibleOnSite(ctx, productID, siteID)
	if err != nil || !visible {
		return Visibility{Reason: ReasonNotVisibleOnSite}
	}
	product, err := e.store.ProductByID(ctx, productID)
	if err != nil || product == nil || product.Status != models.ProductActive {
		return Visibility{Reason: ReasonProductInactive}
	}
	if !e.VendorGoLiveStatus(ctx, product.VendorID).CanGoLive {
		return Visibility{Reason: ReasonVendorNotLive}
	}
	return Visibility{IsVisible: true}
}

// VisibleProductsForSite filters the site's opted-in products by status and
// vendor go-live. Go-live outcomes are memoized per vendor within the call
// so many products of one vendor cost one derivation.
func (e *Engine) VisibleProductsForSite(ctx context.Context, siteID string, limit int) []string {
	if limit <= 0 {
		limit = 50
	}
	ids, err := e.store.VisibleProductIDs(ctx, siteID, limit)
	if err != nil {
		e.lg.Warnw("visible product listing failed", "site_id", siteID, "error", err)
		return nil
	}
	goLive := make(map[string]bool)
	visible := make([]string, 0, len(ids))
	for _, id := range ids {
		product, err := e.store.ProductByID(ctx, id)
		if err != nil || product == nil || product.Status != models.ProductActive {
			continue
		}
		live, seen := goLive[product.VendorID]
		if !seen {
			live = e.VendorGoLiveStatus(ctx, product.VendorID).CanGoLive
			goLive[product.VendorID] = live
		}
		if live {
			visible = append(visible, id)
		}
	}
	return visible
}

// ValidatePromotion runs every applicable check without short-circuiting so
// the error list reports all simultaneous problems.
func (e *Engine) ValidatePromotion(ctx context.Context, promoID, siteID string, role models.Role) PromoValidation {
	out := PromoValidation{Errors: []string{}}
	promo, err := e.store.PromotionByID(ctx, promoID)
	if err != nil || promo == nil {
		out.Errors = append(out.Errors, "Promotion not found")
		return out
	}

	now := e.now()
	if promo.Status == models.PromotionActive {
		out.IsValid = true
	} else {
		out.Errors = append(out.Errors, "Promotion is not active")
	}
	if promo.SiteID != nil && *promo.SiteID != siteID {
		out.Errors = append(out.Errors, "Promotion is not available on this site")
	}
	if now.Before(promo.StartsAt) {
		out.Errors = append(out.Errors, "Promotion has not started yet")
	}
	if promo.EndsAt != nil && now.After(*promo.EndsAt) {
		out.Errors = append(out.Errors, "Promotion has ended")
	}
	if len(promo.AllowedRoles) > 0 && !promo.AllowedRoles.Contains(string(role)) {
		out.Errors = append(out.Errors, "Promotion is not available for this role")
	}
	if promo.UsageLimit != nil && promo.UsageCount >= *promo.UsageLimit {
		out.Errors = append(out.Errors, "Promotion usage limit reached")
	}
	if !e.VendorGoLiveStatus(ctx, promo.VendorID).CanGoLive {
		out.Errors = append(out.Errors, ReasonVendorNotLive)
	}

	out.CanBeUsed = len(out.Errors) == 0
	return out
}

// EnforceVendorSubscription is the compensating action keeping product
// visibility consistent with billing state. A missing or elapsed
// subscription archives the vendor's active products and reports false.
func (e *Engine) EnforceVendorSubscription(ctx context.Context, vendorID string) bool {
	sub, err := e.store.ActiveSubscription(ctx, vendorID)
	if err != nil {
		// Uncertain billing state fails closed without archiving.
		e.lg.Warnw("subscription lookup failed", "vendor_id", vendorID, "error", err)
		return false
	}
	if sub == nil {
		e.archiveProducts(ctx, vendorID, "no_subscription")
		return false
	}
	if !sub.BillingPeriodEnd.After(e.now()) {
		if err := e.store.MarkSubscriptionExpired(ctx, sub.ID); err != nil {
			e.lg.Warnw("subscription expiry update failed", "subscription_id", sub.ID, "error", err)
		}
		e.archiveProducts(ctx, vendorID, "subscription_expired")
		return false
	}
	return true
}

func (e *Engine) archiveProducts(ctx context.Context, vendorID, reason string) {
	archived, err := e.store.ArchiveVendorProducts(ctx, vendorID)
	if err != nil {
		e.lg.Warnw("product archiving failed", "vendor_id", vendorID, "error", err)
		return
	}
	e.audit.Record(ctx, audit.Event{
		Type:     audit.EventSubscriptionEnforced,
		Metadata: map[string]any{"vendor_id": vendorID, "reason": reason, "archived": archived},
	})
}

// TrackPromoUsage records one redemption. The discount is debited against
// the owning vendor. Unknown promos are a no-op.
func (e *Engine) TrackPromoUsage(ctx context.Context, promoID, orderID, userID string, discountAmount int64) {
	promo, err := e.store.PromotionByID(ctx, promoID)
	if err != nil || promo == nil {
		return
	}
	usage := &models.PromoUsage{
		PromoID:        promo.ID,
		VendorID:       promo.VendorID,
		OrderID:        orderID,
		DiscountAmount: discountAmount,
		VendorCost:     discountAmount,
		CreatedAt:      e.now(),
	}
	if userID != "" {
		uid := userID
		usage.IdentityID = &uid
	}
	if err := e.store.InsertPromoUsage(ctx, usage); err != nil {
		e.lg.Warnw("promo usage insert failed", "promo_id", promoID, "error", err)
		return
	}
	e.audit.Record(ctx, audit.Event{
		Type:       audit.EventPromoUsageTracked,
		IdentityID: userID,
		Metadata:   map[string]any{"promo_id": promoID, "order_id": orderID, "vendor_cost": discountAmount},
	})
}

// CategoryVisibility is a flag lookup defaulting to false.
func (e *Engine) CategoryVisibility(ctx context.Context, categoryID, siteID string) bool {
	visible, err := e.store.CategoryVisibleOnSite(ctx, categoryID, siteID)
	if err != nil {
		e.lg.Warnw("category visibility lookup failed", "category_id", categoryID, "error", err)
		return false
	}
	return visible
}
