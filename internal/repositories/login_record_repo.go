package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jmcallister/riskgate/internal/database"
	"github.com/jmcallister/riskgate/internal/models"
)

// LoginRecordRepository is the durable archive of committed login records.
// The engine analyzes from its in-memory store; this archive backs startup
// hydration and retention beyond process lifetime.
type LoginRecordRepository struct {
	db *database.DB
}

// NewLoginRecordRepository creates a new LoginRecordRepository
func NewLoginRecordRepository(db *database.DB) *LoginRecordRepository {
	return &LoginRecordRepository{db: db}
}

// ArchiveRecord persists a committed login record.
func (r *LoginRecordRepository) ArchiveRecord(ctx context.Context, record *models.LoginRecord) error {
	query := `
		INSERT INTO login_records (id, user_id, attempt_time, ip_address, latitude, longitude, country, city, device_id, user_agent, success)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	var lat, lon *float64
	var country, city *string
	if loc := record.Location; loc != nil {
		lat, lon = &loc.Latitude, &loc.Longitude
		country, city = &loc.Country, &loc.City
	}

	_, err := r.db.Pool.Exec(ctx, query,
		record.ID,
		record.UserID,
		record.Timestamp,
		record.IPAddress,
		lat,
		lon,
		country,
		city,
		record.DeviceID,
		record.UserAgent,
		record.Success,
	)
	if err != nil {
		return fmt.Errorf("failed to archive login record: %w", err)
	}
	return nil
}

// RecentRecords returns up to limit most recent records for a user, oldest
// first, ready to hydrate the in-memory store.
func (r *LoginRecordRepository) RecentRecords(ctx context.Context, userID string, limit int) ([]*models.LoginRecord, error) {
	query := `
		SELECT id, user_id, attempt_time, ip_address, latitude, longitude, country, city, device_id, user_agent, success
		FROM (
			SELECT * FROM login_records
			WHERE user_id = $1
			ORDER BY attempt_time DESC
			LIMIT $2
		) recent
		ORDER BY attempt_time ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query login records: %w", err)
	}
	defer rows.Close()

	var records []*models.LoginRecord
	for rows.Next() {
		var rec models.LoginRecord
		var lat, lon *float64
		var country, city *string

		err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.Timestamp,
			&rec.IPAddress,
			&lat,
			&lon,
			&country,
			&city,
			&rec.DeviceID,
			&rec.UserAgent,
			&rec.Success,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan login record: %w", err)
		}

		if lat != nil && lon != nil {
			rec.Location = &models.GeoLocation{Latitude: *lat, Longitude: *lon}
			if country != nil {
				rec.Location.Country = *country
			}
			if city != nil {
				rec.Location.City = *city
			}
		}

		records = append(records, &rec)
	}

	return records, rows.Err()
}

// ActiveUserIDs returns users with at least one archived record since the
// cutoff. Used to bound startup hydration to recently active identities.
func (r *LoginRecordRepository) ActiveUserIDs(ctx context.Context, since time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT user_id FROM login_records
		WHERE attempt_time >= $1
	`

	rows, err := r.db.Pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}

	return userIDs, rows.Err()
}

// DeleteExpired removes archived records older than the cutoff and returns
// how many were deleted.
func (r *LoginRecordRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM login_records WHERE attempt_time < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired login records: %w", err)
	}
	return tag.RowsAffected(), nil
}
