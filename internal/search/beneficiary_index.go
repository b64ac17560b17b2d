package search

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"beneficiary-portal/internal/client"
	"beneficiary-portal/internal/config"
	"beneficiary-portal/internal/models"
	"beneficiary-portal/internal/util"
)

// beneficiaryDoc is the indexed projection; phone and credential fields
// never reach the index.
type beneficiaryDoc struct {
	BeneficiaryID string `json:"beneficiary_id"`
	Name          string `json:"name"`
	NationalID    string `json:"national_id"`
	Status        string `json:"status"`
	Governorate   string `json:"governorate"`
}

// BeneficiaryIndex mirrors searchable beneficiary fields into Elasticsearch
// for the admin dashboard search.
type BeneficiaryIndex struct {
	client *client.ESClient
	index  string
}

func NewBeneficiaryIndex(esClient *client.ESClient, cfg *config.Config) *BeneficiaryIndex {
	return &BeneficiaryIndex{
		client: esClient,
		index:  cfg.Elasticsearch.BeneficiaryIndex,
	}
}

func (i *BeneficiaryIndex) IndexBeneficiary(ctx context.Context, b *models.Beneficiary) error {
	doc := beneficiaryDoc{
		BeneficiaryID: b.ID,
		Name:          b.Name,
		NationalID:    b.NationalID,
		Status:        b.Status,
		Governorate:   b.Governorate,
	}

	if err := i.client.Index(ctx, i.index, b.ID, doc); err != nil {
		util.Error("Failed to index beneficiary",
			zap.String("beneficiary_id", b.ID),
			zap.Error(err))
		return fmt.Errorf("failed to index beneficiary: %w", err)
	}

	return nil
}

// SearchByName runs a fuzzy match on the indexed name field
func (i *BeneficiaryIndex) SearchByName(ctx context.Context, name string, limit int) ([]*models.PublicBeneficiary, error) {
	query := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"match": map[string]interface{}{
				"name": map[string]interface{}{
					"query":     name,
					"fuzziness": "AUTO",
				},
			},
		},
	}

	return i.search(ctx, query)
}

// SearchByNationalID runs an exact term lookup
func (i *BeneficiaryIndex) SearchByNationalID(ctx context.Context, nationalID string) ([]*models.PublicBeneficiary, error) {
	query := map[string]interface{}{
		"size": 1,
		"query": map[string]interface{}{
			"term": map[string]interface{}{
				"national_id": nationalID,
			},
		},
	}

	return i.search(ctx, query)
}

func (i *BeneficiaryIndex) search(ctx context.Context, query map[string]interface{}) ([]*models.PublicBeneficiary, error) {
	hits, err := i.client.Search(ctx, i.index, query)
	if err != nil {
		util.Error("Beneficiary search failed", zap.Error(err))
		return nil, fmt.Errorf("beneficiary search failed: %w", err)
	}

	results := make([]*models.PublicBeneficiary, 0, len(hits))
	for _, hit := range hits {
		doc := beneficiaryDoc{}
		if err := json.Unmarshal(hit, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode search hit: %w", err)
		}
		results = append(results, &models.PublicBeneficiary{
			Name:       doc.Name,
			NationalID: doc.NationalID,
			Status:     doc.Status,
		})
	}

	return results, nil
}
