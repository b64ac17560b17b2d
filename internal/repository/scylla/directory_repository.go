package scylla

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"beneficiary-portal/internal/models"
	"beneficiary-portal/internal/util"
)

// directoryRepository reads the rarely-changing lookup tables. These are
// cold paths so the queries are not prepared at startup.
type directoryRepository struct {
	client *ScyllaClient
}

func NewDirectoryRepository(client *ScyllaClient) DirectoryRepository {
	return &directoryRepository{client: client}
}

func (r *directoryRepository) GetOrganization(ctx context.Context, id string) (*models.Organization, error) {
	org := &models.Organization{}

	err := r.client.Query(`
        SELECT organization_id, name, status, phone, created_at
        FROM organizations WHERE organization_id = ?`, id).
		WithContext(ctx).
		Scan(&org.ID, &org.Name, &org.Status, &org.Phone, &org.CreatedAt)

	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrRecordNotFound
		}
		util.Error("Failed to get organization",
			zap.String("organization_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return org, nil
}

func (r *directoryRepository) GetFamily(ctx context.Context, id string) (*models.Family, error) {
	family := &models.Family{}

	err := r.client.Query(`
        SELECT family_id, name, head_of_family, member_count, created_at
        FROM families WHERE family_id = ?`, id).
		WithContext(ctx).
		Scan(&family.ID, &family.Name, &family.HeadOfFamily, &family.MemberCount, &family.CreatedAt)

	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrRecordNotFound
		}
		util.Error("Failed to get family",
			zap.String("family_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get family: %w", err)
	}

	return family, nil
}

func (r *directoryRepository) GetCourier(ctx context.Context, id string) (*models.Courier, error) {
	courier := &models.Courier{}

	err := r.client.Query(`
        SELECT courier_id, name, phone, status, latitude, longitude, created_at
        FROM couriers WHERE courier_id = ?`, id).
		WithContext(ctx).
		Scan(&courier.ID, &courier.Name, &courier.Phone, &courier.Status,
			&courier.Latitude, &courier.Longitude, &courier.CreatedAt)

	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrRecordNotFound
		}
		util.Error("Failed to get courier",
			zap.String("courier_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get courier: %w", err)
	}

	return courier, nil
}
