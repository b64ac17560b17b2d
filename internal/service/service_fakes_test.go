package service

import (
	"context"
	"strings"
	"time"

	"beneficiary-portal/internal/models"
	"beneficiary-portal/internal/repository/scylla"
)

// Shared in-memory fakes for the service tests that exercise features,
// notifications and packages.

type fakeFeatureRepo struct {
	features map[string]*models.SystemFeature
}

func newFakeFeatureRepo() *fakeFeatureRepo {
	return &fakeFeatureRepo{features: make(map[string]*models.SystemFeature)}
}

func (r *fakeFeatureRepo) GetFeature(ctx context.Context, key string) (*models.SystemFeature, error) {
	feature, ok := r.features[key]
	if !ok {
		return nil, scylla.ErrRecordNotFound
	}
	return feature, nil
}

func (r *fakeFeatureRepo) UpdateFeature(ctx context.Context, key string, enabled bool, settings map[string]string, updatedBy string) error {
	r.features[key] = &models.SystemFeature{
		FeatureKey: key,
		IsEnabled:  enabled,
		Settings:   settings,
		UpdatedBy:  updatedBy,
		UpdatedAt:  time.Now().UTC(),
	}
	return nil
}

func (r *fakeFeatureRepo) enable(key string, settings map[string]string) {
	r.features[key] = &models.SystemFeature{FeatureKey: key, IsEnabled: true, Settings: settings}
}

type fakeSnapshotCache struct {
	snapshot *models.PortalSnapshot
	sets     int
}

func (c *fakeSnapshotCache) GetSnapshot(ctx context.Context) (*models.PortalSnapshot, error) {
	return c.snapshot, nil
}

func (c *fakeSnapshotCache) SetSnapshot(ctx context.Context, snapshot *models.PortalSnapshot) error {
	c.snapshot = snapshot
	c.sets++
	return nil
}

func (c *fakeSnapshotCache) Invalidate(ctx context.Context) error {
	c.snapshot = nil
	return nil
}

type fakeNotificationRepo struct {
	notifications map[string]*models.WhatsAppNotification
	order         []string
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{notifications: make(map[string]*models.WhatsAppNotification)}
}

func (r *fakeNotificationRepo) CreateNotification(ctx context.Context, n *models.WhatsAppNotification) error {
	n.CreatedAt = time.Now().UTC()
	r.notifications[n.ID] = n
	r.order = append(r.order, n.ID)
	return nil
}

func (r *fakeNotificationRepo) GetNotificationByID(ctx context.Context, id string) (*models.WhatsAppNotification, error) {
	n, ok := r.notifications[id]
	if !ok {
		return nil, scylla.ErrRecordNotFound
	}
	return n, nil
}

func (r *fakeNotificationRepo) GetNotificationsByStatus(ctx context.Context, status string, limit int) ([]*models.WhatsAppNotification, error) {
	var out []*models.WhatsAppNotification
	for _, id := range r.order {
		if len(out) == limit {
			break
		}
		if r.notifications[id].Status == status {
			out = append(out, r.notifications[id])
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) GetNotificationsByBeneficiary(ctx context.Context, beneficiaryID string, limit int) ([]*models.WhatsAppNotification, error) {
	var out []*models.WhatsAppNotification
	for _, id := range r.order {
		if len(out) == limit {
			break
		}
		if r.notifications[id].BeneficiaryID == beneficiaryID {
			out = append(out, r.notifications[id])
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) UpdateNotificationStatus(ctx context.Context, n *models.WhatsAppNotification) error {
	r.notifications[n.ID] = n
	return nil
}

func (r *fakeNotificationRepo) CountByStatus(ctx context.Context) (*models.NotificationStats, error) {
	stats := &models.NotificationStats{}
	for _, n := range r.notifications {
		stats.Total++
		switch n.Status {
		case models.NotificationStatusPending:
			stats.Pending++
		case models.NotificationStatusSent:
			stats.Sent++
		case models.NotificationStatusFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

type fakeBeneficiaryRepo struct {
	byID         map[string]*models.Beneficiary
	portalAccess map[string]time.Time
}

func newFakeBeneficiaryRepo() *fakeBeneficiaryRepo {
	return &fakeBeneficiaryRepo{
		byID:         make(map[string]*models.Beneficiary),
		portalAccess: make(map[string]time.Time),
	}
}

func (r *fakeBeneficiaryRepo) CreateBeneficiary(ctx context.Context, b *models.Beneficiary) error {
	b.CreatedAt = time.Now().UTC()
	r.byID[b.ID] = b
	return nil
}

func (r *fakeBeneficiaryRepo) GetBeneficiaryByID(ctx context.Context, id string) (*models.Beneficiary, error) {
	b, ok := r.byID[id]
	if !ok {
		return nil, scylla.ErrRecordNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *fakeBeneficiaryRepo) GetBeneficiaryByNationalID(ctx context.Context, nationalID string) (*models.Beneficiary, error) {
	for _, b := range r.byID {
		if b.NationalID == nationalID {
			clone := *b
			return &clone, nil
		}
	}
	return nil, scylla.ErrRecordNotFound
}

func (r *fakeBeneficiaryRepo) UpdateBeneficiary(ctx context.Context, b *models.Beneficiary) error {
	r.byID[b.ID] = b
	return nil
}

func (r *fakeBeneficiaryRepo) UpdatePortalAccess(ctx context.Context, id string, at time.Time) error {
	r.portalAccess[id] = at
	return nil
}

func (r *fakeBeneficiaryRepo) HealthCheck(ctx context.Context) error { return nil }

type fakeSearchIndex struct {
	docs map[string]*models.Beneficiary
}

func newFakeSearchIndex() *fakeSearchIndex {
	return &fakeSearchIndex{docs: make(map[string]*models.Beneficiary)}
}

func (i *fakeSearchIndex) IndexBeneficiary(ctx context.Context, b *models.Beneficiary) error {
	i.docs[b.ID] = b
	return nil
}

func (i *fakeSearchIndex) SearchByNationalID(ctx context.Context, nationalID string) ([]*models.PublicBeneficiary, error) {
	for _, b := range i.docs {
		if b.NationalID == nationalID {
			return []*models.PublicBeneficiary{{
				Name:       b.Name,
				NationalID: b.NationalID,
				Status:     b.Status,
			}}, nil
		}
	}
	return nil, nil
}

func (i *fakeSearchIndex) SearchByName(ctx context.Context, name string, limit int) ([]*models.PublicBeneficiary, error) {
	var out []*models.PublicBeneficiary
	for _, b := range i.docs {
		if len(out) == limit {
			break
		}
		if strings.Contains(b.Name, name) {
			out = append(out, &models.PublicBeneficiary{
				Name:       b.Name,
				NationalID: b.NationalID,
				Status:     b.Status,
			})
		}
	}
	return out, nil
}

type fakePackageRepo struct {
	packages map[string]*models.Package
}

func newFakePackageRepo() *fakePackageRepo {
	return &fakePackageRepo{packages: make(map[string]*models.Package)}
}

func (r *fakePackageRepo) CreatePackage(ctx context.Context, pkg *models.Package) error {
	pkg.CreatedAt = time.Now().UTC()
	r.packages[pkg.ID] = pkg
	return nil
}

func (r *fakePackageRepo) GetPackagesByBeneficiary(ctx context.Context, beneficiaryID string) ([]*models.Package, error) {
	var out []*models.Package
	for _, pkg := range r.packages {
		if pkg.BeneficiaryID == beneficiaryID {
			out = append(out, pkg)
		}
	}
	return out, nil
}

func (r *fakePackageRepo) GetPackageByID(ctx context.Context, beneficiaryID, packageID string) (*models.Package, error) {
	pkg, ok := r.packages[packageID]
	if !ok || pkg.BeneficiaryID != beneficiaryID {
		return nil, scylla.ErrRecordNotFound
	}
	clone := *pkg
	return &clone, nil
}

func (r *fakePackageRepo) UpdatePackageStatus(ctx context.Context, beneficiaryID, packageID, status string, deliveredAt *time.Time) error {
	pkg := r.packages[packageID]
	pkg.Status = status
	pkg.DeliveredAt = deliveredAt
	return nil
}

type fakeDirectoryRepo struct {
	couriers map[string]*models.Courier
}

func (r *fakeDirectoryRepo) GetOrganization(ctx context.Context, id string) (*models.Organization, error) {
	return nil, scylla.ErrRecordNotFound
}

func (r *fakeDirectoryRepo) GetFamily(ctx context.Context, id string) (*models.Family, error) {
	return nil, scylla.ErrRecordNotFound
}

func (r *fakeDirectoryRepo) GetCourier(ctx context.Context, id string) (*models.Courier, error) {
	courier, ok := r.couriers[id]
	if !ok {
		return nil, scylla.ErrRecordNotFound
	}
	return courier, nil
}

type fakeActivityStore struct {
	entries []*models.ActivityEntry
}

func (s *fakeActivityStore) InsertActivity(ctx context.Context, entry *models.ActivityEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *fakeActivityStore) GetRecent(ctx context.Context, limit int) ([]*models.ActivityEntry, error) {
	if len(s.entries) > limit {
		return s.entries[len(s.entries)-limit:], nil
	}
	return s.entries, nil
}

func (s *fakeActivityStore) GetByBeneficiary(ctx context.Context, beneficiaryID string, limit int) ([]*models.ActivityEntry, error) {
	var out []*models.ActivityEntry
	for _, entry := range s.entries {
		if entry.BeneficiaryID == beneficiaryID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *fakeActivityStore) CountByType(ctx context.Context, since time.Time) (map[string]uint64, error) {
	counts := make(map[string]uint64)
	for _, entry := range s.entries {
		counts[entry.Type]++
	}
	return counts, nil
}

func (s *fakeActivityStore) CountBySource(ctx context.Context, since time.Time) (map[string]uint64, error) {
	counts := make(map[string]uint64)
	for _, entry := range s.entries {
		counts[entry.Source]++
	}
	return counts, nil
}
