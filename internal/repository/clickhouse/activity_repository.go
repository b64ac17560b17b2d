package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"beneficiary-portal/internal/client"
	"beneficiary-portal/internal/models"
	"beneficiary-portal/internal/util"
)

// ActivityRepository appends audit entries to ClickHouse and serves the
// dashboard feeds. The table is append-only; no updates, no deletes.
type ActivityRepository struct {
	client *client.ClickHouseClient
}

func NewActivityRepository(client *client.ClickHouseClient) *ActivityRepository {
	return &ActivityRepository{client: client}
}

func (r *ActivityRepository) InsertActivity(ctx context.Context, entry *models.ActivityEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	err := r.client.Conn.AsyncInsert(ctx, `
        INSERT INTO portal_activity_log
            (action, user_name, role, type, beneficiary_id, details, source, timestamp)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, false,
		entry.Action, entry.UserName, entry.Role, entry.Type,
		entry.BeneficiaryID, entry.Details, entry.Source, entry.Timestamp)

	if err != nil {
		util.Error("Failed to insert activity entry",
			zap.String("type", entry.Type),
			zap.Error(err))
		return fmt.Errorf("failed to insert activity entry: %w", err)
	}

	return nil
}

func (r *ActivityRepository) InsertActivities(ctx context.Context, entries []*models.ActivityEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch, err := r.client.Conn.PrepareBatch(ctx, `
        INSERT INTO portal_activity_log
            (action, user_name, role, type, beneficiary_id, details, source, timestamp)`)
	if err != nil {
		return fmt.Errorf("failed to prepare activity batch: %w", err)
	}

	for _, entry := range entries {
		ts := entry.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		if err := batch.Append(
			entry.Action, entry.UserName, entry.Role, entry.Type,
			entry.BeneficiaryID, entry.Details, entry.Source, ts); err != nil {
			return fmt.Errorf("failed to append activity entry: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		util.Error("Failed to send activity batch",
			zap.Int("count", len(entries)),
			zap.Error(err))
		return fmt.Errorf("failed to send activity batch: %w", err)
	}

	return nil
}

func (r *ActivityRepository) GetRecent(ctx context.Context, limit int) ([]*models.ActivityEntry, error) {
	rows, err := r.client.Conn.Query(ctx, `
        SELECT action, user_name, role, type, beneficiary_id, details, source, timestamp
        FROM portal_activity_log
        ORDER BY timestamp DESC
        LIMIT ?`, limit)
	if err != nil {
		util.Error("Failed to query recent activity", zap.Error(err))
		return nil, fmt.Errorf("failed to query recent activity: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *ActivityRepository) GetByBeneficiary(ctx context.Context, beneficiaryID string, limit int) ([]*models.ActivityEntry, error) {
	rows, err := r.client.Conn.Query(ctx, `
        SELECT action, user_name, role, type, beneficiary_id, details, source, timestamp
        FROM portal_activity_log
        WHERE beneficiary_id = ?
        ORDER BY timestamp DESC
        LIMIT ?`, beneficiaryID, limit)
	if err != nil {
		util.Error("Failed to query beneficiary activity",
			zap.String("beneficiary_id", beneficiaryID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to query beneficiary activity: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows driver.Rows) ([]*models.ActivityEntry, error) {
	var entries []*models.ActivityEntry

	for rows.Next() {
		entry := &models.ActivityEntry{}
		if err := rows.Scan(
			&entry.Action, &entry.UserName, &entry.Role, &entry.Type,
			&entry.BeneficiaryID, &entry.Details, &entry.Source, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read activity entries: %w", err)
	}

	return entries, nil
}

// CountByType returns activity counts per entry type since the given time
func (r *ActivityRepository) CountByType(ctx context.Context, since time.Time) (map[string]uint64, error) {
	rows, err := r.client.Conn.Query(ctx, `
        SELECT type, count() AS total
        FROM portal_activity_log
        WHERE timestamp >= ?
        GROUP BY type`, since)
	if err != nil {
		util.Error("Failed to count activity by type", zap.Error(err))
		return nil, fmt.Errorf("failed to count activity by type: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]uint64)
	for rows.Next() {
		var entryType string
		var total uint64
		if err := rows.Scan(&entryType, &total); err != nil {
			return nil, fmt.Errorf("failed to scan activity count: %w", err)
		}
		counts[entryType] = total
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read activity counts: %w", err)
	}

	return counts, nil
}

// CountBySource returns activity counts per source channel since the given time
func (r *ActivityRepository) CountBySource(ctx context.Context, since time.Time) (map[string]uint64, error) {
	rows, err := r.client.Conn.Query(ctx, `
        SELECT source, count() AS total
        FROM portal_activity_log
        WHERE timestamp >= ?
        GROUP BY source`, since)
	if err != nil {
		util.Error("Failed to count activity by source", zap.Error(err))
		return nil, fmt.Errorf("failed to count activity by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]uint64)
	for rows.Next() {
		var source string
		var total uint64
		if err := rows.Scan(&source, &total); err != nil {
			return nil, fmt.Errorf("failed to scan activity count: %w", err)
		}
		counts[source] = total
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read activity counts: %w", err)
	}

	return counts, nil
}
