package enforce

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
)

type fakeStore struct {
	mu            sync.Mutex
	vendors       map[string]*models.Vendor
	subscriptions map[string]*models.VendorSubscription // keyed by vendor id
	signed        map[string]bool
	products      map[string]*models.Product
	visibility    map[string]bool // productID|siteID
	visibleIDs    map[string][]string
	categories    map[string]bool // categoryID|siteID
	promotions    map[string]*models.Promotion
	usages        []models.PromoUsage
	goLiveChecks  int
}

func newEngineStore() *fakeStore {
	return &fakeStore{
		vendors:       make(map[string]*models.Vendor),
		subscriptions: make(map[string]*models.VendorSubscription),
		signed:        make(map[string]bool),
		products:      make(map[string]*models.Product),
		visibility:    make(map[string]bool),
		visibleIDs:    make(map[string][]string),
		categories:    make(map[string]bool),
		promotions:    make(map[string]*models.Promotion),
	}
}

func (s *fakeStore) VendorByID(_ context.Context, id string) (*models.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goLiveChecks++
	v, ok := s.vendors[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (s *fakeStore) ActiveSubscription(_ context.Context, vendorID string) (*models.VendorSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subscriptions[vendorID]
	if !ok || sub.Status != models.SubscriptionActive {
		return nil, nil
	}
	cp := *sub
	return &cp, nil
}

func (s *fakeStore) HasSignedAgreement(_ context.Context, vendorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signed[vendorID], nil
}

func (s *fakeStore) ProductByID(_ context.Context, id string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) ProductVisibleOnSite(_ context.Context, productID, siteID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibility[productID+"|"+siteID], nil
}

func (s *fakeStore) VisibleProductIDs(_ context.Context, siteID string, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.visibleIDs[siteID]
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return append([]string(nil), ids...), nil
}

func (s *fakeStore) CategoryVisibleOnSite(_ context.Context, categoryID, siteID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categories[categoryID+"|"+siteID], nil
}

func (s *fakeStore) PromotionByID(_ context.Context, id string) (*models.Promotion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.promotions[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) ArchiveVendorProducts(_ context.Context, vendorID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range s.products {
		if p.VendorID == vendorID && p.Status == models.ProductActive {
			p.Status = models.ProductArchived
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) MarkSubscriptionExpired(_ context.Context, subscriptionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subscriptions {
		if sub.ID == subscriptionID {
			sub.Status = models.SubscriptionExpired
		}
	}
	return nil
}

func (s *fakeStore) InsertPromoUsage(_ context.Context, usage *models.PromoUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usages = append(s.usages, *usage)
	if p, ok := s.promotions[usage.PromoID]; ok {
		p.UsageCount++
		p.TotalDiscountGiven += usage.DiscountAmount
		p.TotalVendorCost += usage.VendorCost
	}
	return nil
}

type nopAuditStore struct{}

func (nopAuditStore) Insert(context.Context, *models.AuditEvent) error { return nil }
func (nopAuditStore) List(context.Context, string, int) ([]models.AuditEvent, error) {
	return nil, nil
}

func newTestEngine(store *fakeStore) *Engine {
	lg := zap.NewNop().Sugar()
	return NewEngine(store, audit.NewRecorder(nopAuditStore{}, lg), lg)
}

func seedLiveVendor(store *fakeStore, vendorID string) {
	store.vendors[vendorID] = &models.Vendor{ID: vendorID, Status: models.VendorApproved}
	store.subscriptions[vendorID] = &models.VendorSubscription{
		ID: vendorID + "-sub", VendorID: vendorID,
		Status: models.SubscriptionActive, BillingPeriodEnd: time.Now().Add(time.Hour),
	}
	store.signed[vendorID] = true
}

func TestVendorGoLiveAllConditionsMet(t *testing.T) {
	store := newEngineStore()
	seedLiveVendor(store, "v1")
	engine := newTestEngine(store)

	st := engine.VendorGoLiveStatus(context.Background(), "v1")
	assert.True(t, st.CanGoLive)
	assert.True(t, st.IsApproved)
	assert.True(t, st.HasActiveSubscription)
	assert.True(t, st.HasSignedAgreement)
	assert.Empty(t, st.Blockers)
}

func TestVendorGoLiveBlockers(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*fakeStore)
		blocker string
	}{
		{"not approved", func(s *fakeStore) { s.vendors["v1"].Status = models.VendorPending }, BlockerNotApproved},
		{"subscription elapsed", func(s *fakeStore) {
			s.subscriptions["v1"].BillingPeriodEnd = time.Now().Add(-time.Hour)
		}, BlockerNoSubscription},
		{"no subscription", func(s *fakeStore) { delete(s.subscriptions, "v1") }, BlockerNoSubscription},
		{"no signed agreement", func(s *fakeStore) { s.signed["v1"] = false }, BlockerNoAgreement},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newEngineStore()
			seedLiveVendor(store, "v1")
			tc.mutate(store)
			engine := newTestEngine(store)

			st := engine.VendorGoLiveStatus(context.Background(), "v1")
			assert.False(t, st.CanGoLive)
			require.Len(t, st.Blockers, 1)
			assert.Equal(t, tc.blocker, st.Blockers[0])
		})
	}
}

func TestVendorGoLiveUnknownVendor(t *testing.T) {
	engine := newTestEngine(newEngineStore())
	st := engine.VendorGoLiveStatus(context.Background(), "missing")
	assert.False(t, st.CanGoLive)
	assert.Equal(t, []string{BlockerNotApproved, BlockerNoSubscription, BlockerNoAgreement}, st.Blockers)
}

func TestProductVisibilityShortCircuitOrder(t *testing.T) {
	store := newEngineStore()
	seedLiveVendor(store, "v1")
	store.products["p1"] = &models.Product{ID: "p1", VendorID: "v1", Status: models.ProductActive}
	engine := newTestEngine(store)

	// No visibility row.
	vis := engine.ProductVisibility(context.Background(), "p1", "s1")
	assert.False(t, vis.IsVisible)
	assert.Equal(t, ReasonNotVisibleOnSite, vis.Reason)

	// Visible but product inactive.
	store.visibility["p1|s1"] = true
	store.products["p1"].Status = models.ProductDraft
	vis = engine.ProductVisibility(context.Background(), "p1", "s1")
	assert.Equal(t, ReasonProductInactive, vis.Reason)

	// Active but vendor blocked.
	store.products["p1"].Status = models.ProductActive
	store.signed["v1"] = false
	vis = engine.ProductVisibility(context.Background(), "p1", "s1")
	assert.Equal(t, ReasonVendorNotLive, vis.Reason)

	// All conditions met.
	store.signed["v1"] = true
	vis = engine.ProductVisibility(context.Background(), "p1", "s1")
	assert.True(t, vis.IsVisible)
	assert.Empty(t, vis.Reason)
}

func TestVisibleProductsForSiteMemoizesVendor(t *testing.T) {
	store := newEngineStore()
	seedLiveVendor(store, "v1")
	store.vendors["v2"] = &models.Vendor{ID: "v2", Status: models.VendorPending}
	for _, id := range []string{"p1", "p2", "p3"} {
		store.products[id] = &models.Product{ID: id, VendorID: "v1", Status: models.ProductActive}
	}
	store.products["p4"] = &models.Product{ID: "p4", VendorID: "v2", Status: models.ProductActive}
	store.products["p5"] = &models.Product{ID: "p5", VendorID: "v1", Status: models.ProductDraft}
	store.visibleIDs["s1"] = []string{"p1", "p2", "p3", "p4", "p5"}
	engine := newTestEngine(store)

	ids := engine.VisibleProductsForSite(context.Background(), "s1", 0)
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids)
	// One go-live derivation per distinct vendor, not per product.
	assert.Equal(t, 2, store.goLiveChecks)
}

func TestVisibleProductsForSiteLimit(t *testing.T) {
	store := newEngineStore()
	seedLiveVendor(store, "v1")
	store.products["p1"] = &models.Product{ID: "p1", VendorID: "v1", Status: models.ProductActive}
	store.products["p2"] = &models.Product{ID: "p2", VendorID: "v1", Status: models.ProductActive}
	store.visibleIDs["s1"] = []string{"p1", "p2"}
	engine := newTestEngine(store)

	assert.Equal(t, []string{"p1"}, engine.VisibleProductsForSite(context.Background(), "s1", 1))
}

func seedPromo(store *fakeStore) *models.Promotion {
	seedLiveVendor(store, "v1")
	p := &models.Promotion{
		ID: "promo-1", VendorID: "v1", Code: "SAVE10",
		Status:   models.PromotionActive,
		StartsAt: time.Now().Add(-time.Hour),
	}
	store.promotions[p.ID] = p
	return p
}

func TestValidatePromotionUsable(t *testing.T) {
	store := newEngineStore()
	seedPromo(store)
	engine := newTestEngine(store)

	out := engine.ValidatePromotion(context.Background(), "promo-1", "s1", models.RoleRetail)
	assert.True(t, out.IsValid)
	assert.True(t, out.CanBeUsed)
	assert.Empty(t, out.Errors)
}

func TestValidatePromotionNotFound(t *testing.T) {
	engine := newTestEngine(newEngineStore())
	out := engine.ValidatePromotion(context.Background(), "missing", "s1", models.RoleRetail)
	assert.False(t, out.IsValid)
	assert.False(t, out.CanBeUsed)
	assert.Equal(t, []string{"Promotion not found"}, out.Errors)
}

func TestValidatePromotionUsageLimitReached(t *testing.T) {
	store := newEngineStore()
	promo := seedPromo(store)
	limit := 10
	promo.UsageLimit = &limit
	promo.UsageCount = 10
	engine := newTestEngine(store)

	out := engine.ValidatePromotion(context.Background(), "promo-1", "s1", models.RoleRetail)
	assert.True(t, out.IsValid)
	assert.False(t, out.CanBeUsed)
	assert.Contains(t, out.Errors, "Promotion usage limit reached")
}

func TestValidatePromotionAccumulatesErrors(t *testing.T) {
	store := newEngineStore()
	promo := seedPromo(store)
	promo.Status = models.PromotionPaused
	siteID := "other-site"
	promo.SiteID = &siteID
	promo.StartsAt = time.Now().Add(time.Hour)
	promo.AllowedRoles = models.StringList{"wholesale"}
	limit := 1
	promo.UsageLimit = &limit
	promo.UsageCount = 5
	store.signed["v1"] = false
	engine := newTestEngine(store)

	out := engine.ValidatePromotion(context.Background(), "promo-1", "s1", models.RoleRetail)
	assert.False(t, out.IsValid)
	assert.False(t, out.CanBeUsed)
	assert.Len(t, out.Errors, 6)
}

func TestValidatePromotionEnded(t *testing.T) {
	store := newEngineStore()
	promo := seedPromo(store)
	ended := time.Now().Add(-time.Minute)
	promo.EndsAt = &ended
	engine := newTestEngine(store)

	out := engine.ValidatePromotion(context.Background(), "promo-1", "s1", models.RoleRetail)
	assert.Contains(t, out.Errors, "Promotion has ended")
}

func TestEnforceVendorSubscription(t *testing.T) {
	t.Run("current", func(t *testing.T) {
		store := newEngineStore()
		seedLiveVendor(store, "v1")
		store.products["p1"] = &models.Product{ID: "p1", VendorID: "v1", Status: models.ProductActive}
		engine := newTestEngine(store)

		assert.True(t, engine.EnforceVendorSubscription(context.Background(), "v1"))
		assert.Equal(t, models.ProductActive, store.products["p1"].Status)
	})

	t.Run("missing archives products", func(t *testing.T) {
		store := newEngineStore()
		store.vendors["v1"] = &models.Vendor{ID: "v1", Status: models.VendorApproved}
		store.products["p1"] = &models.Product{ID: "p1", VendorID: "v1", Status: models.ProductActive}
		engine := newTestEngine(store)

		assert.False(t, engine.EnforceVendorSubscription(context.Background(), "v1"))
		assert.Equal(t, models.ProductArchived, store.products["p1"].Status)
	})

	t.Run("elapsed marks expired and archives", func(t *testing.T) {
		store := newEngineStore()
		seedLiveVendor(store, "v1")
		store.subscriptions["v1"].BillingPeriodEnd = time.Now().Add(-time.Hour)
		store.products["p1"] = &models.Product{ID: "p1", VendorID: "v1", Status: models.ProductActive}
		engine := newTestEngine(store)

		assert.False(t, engine.EnforceVendorSubscription(context.Background(), "v1"))
		assert.Equal(t, models.SubscriptionExpired, store.subscriptions["v1"].Status)
		assert.Equal(t, models.ProductArchived, store.products["p1"].Status)
	})
}

func TestTrackPromoUsage(t *testing.T) {
	store := newEngineStore()
	seedPromo(store)
	engine := newTestEngine(store)

	engine.TrackPromoUsage(context.Background(), "promo-1", "order-1", "user-1", 250)
	engine.TrackPromoUsage(context.Background(), "missing", "order-2", "", 100)

	require.Len(t, store.usages, 1)
	usage := store.usages[0]
	assert.Equal(t, "v1", usage.VendorID)
	assert.Equal(t, int64(250), usage.DiscountAmount)
	assert.Equal(t, int64(250), usage.VendorCost)
	require.NotNil(t, usage.IdentityID)
	assert.Equal(t, "user-1", *usage.IdentityID)

	promo := store.promotions["promo-1"]
	assert.Equal(t, 1, promo.UsageCount)
	assert.Equal(t, int64(250), promo.TotalVendorCost)
}

func TestCategoryVisibility(t *testing.T) {
	store := newEngineStore()
	store.categories["c1|s1"] = true
	engine := newTestEngine(store)

	assert.True(t, engine.CategoryVisibility(context.Background(), "c1", "s1"))
	assert.False(t, engine.CategoryVisibility(context.Background(), "c1", "s2"))
	assert.False(t, engine.CategoryVisibility(context.Background(), "missing", "s1"))
}
