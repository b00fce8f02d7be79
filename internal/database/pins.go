package database

import (
	"context"
	"errors"
	"servebeer/internal/models"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

var ErrPinAlreadyExists = errors.New("this CID is already pinned by the user")

type CommitPinParams struct {
	UserID     int64
	CID        string
	Filename   *string
	SizeBytes  int64
	UploadType string
}

// CommitPin inserts the pin row and bumps the owner's storage counter in one
// transaction; a crash between the two must not be observable. The
// UNIQUE(user_id, cid) constraint is what makes concurrent duplicate requests
// safe, not the admission-level pre-check.
func (s *PostgresStore) CommitPin(ctx context.Context, arg CommitPinParams) (*models.Pin, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO pins (user_id, cid, filename, size_bytes, upload_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, cid, filename, size_bytes, upload_type, status, pinned_at
	`
	row := tx.QueryRow(ctx, query, arg.UserID, arg.CID, arg.Filename, arg.SizeBytes, arg.UploadType)

	var pin models.Pin
	err = row.Scan(
		&pin.ID,
		&pin.UserID,
		&pin.CID,
		&pin.Filename,
		&pin.SizeBytes,
		&pin.UploadType,
		&pin.Status,
		&pin.PinnedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrPinAlreadyExists
		}
		return nil, err
	}

	updateQuery := `
		UPDATE users
		SET storage_used_bytes = storage_used_bytes + $1, last_active = NOW()
		WHERE id = $2
	`
	if _, err := tx.Exec(ctx, updateQuery, arg.SizeBytes, arg.UserID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &pin, nil
}

func (s *PostgresStore) HasPin(ctx context.Context, userID int64, cid string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM pins WHERE user_id = $1 AND cid = $2 AND status = 'active')`
	err := s.pool.QueryRow(ctx, query, userID, cid).Scan(&exists)
	return exists, err
}

// ListPins returns the newest active pins first, capped at limit. A non-empty
// search term matches case-insensitively against filename or CID.
func (s *PostgresStore) ListPins(ctx context.Context, userID int64, search string, limit int) ([]models.Pin, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	query := `
		SELECT id, user_id, cid, filename, size_bytes, upload_type, status, pinned_at
		FROM pins
		WHERE user_id = $1 AND status = 'active'
	`
	args := []interface{}{userID}

	if search != "" {
		query += ` AND (filename ILIKE $2 OR cid ILIKE $2)`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY pinned_at DESC LIMIT ` + strconv.Itoa(limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pins []models.Pin
	for rows.Next() {
		var pin models.Pin
		err := rows.Scan(
			&pin.ID,
			&pin.UserID,
			&pin.CID,
			&pin.Filename,
			&pin.SizeBytes,
			&pin.UploadType,
			&pin.Status,
			&pin.PinnedAt,
		)
		if err != nil {
			return nil, err
		}
		pins = append(pins, pin)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if pins == nil {
		return []models.Pin{}, nil
	}

	return pins, nil
}

type DailyUsage struct {
	Date  time.Time `json:"date"`
	Bytes int64     `json:"bytes"`
}

// DailyStorage sums pinned bytes per calendar day inside the trailing window,
// ascending by date.
func (s *PostgresStore) DailyStorage(ctx context.Context, userID int64, windowDays int) ([]DailyUsage, error) {
	query := `
		SELECT date_trunc('day', pinned_at) AS day, COALESCE(SUM(size_bytes), 0)
		FROM pins
		WHERE user_id = $1 AND pinned_at > NOW() - make_interval(days => $2)
		GROUP BY day
		ORDER BY day ASC
	`
	rows, err := s.pool.Query(ctx, query, userID, windowDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usage []DailyUsage
	for rows.Next() {
		var day DailyUsage
		if err := rows.Scan(&day.Date, &day.Bytes); err != nil {
			return nil, err
		}
		usage = append(usage, day)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if usage == nil {
		return []DailyUsage{}, nil
	}

	return usage, nil
}

type PinOutcomes struct {
	Total  int64
	Active int64
}

// CountPinOutcomes tallies pins created since the cutoff and how many of them
// are still active; the status aggregator derives its success rate from this.
func (s *PostgresStore) CountPinOutcomes(ctx context.Context, since time.Time) (PinOutcomes, error) {
	var out PinOutcomes
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'active')
		FROM pins
		WHERE pinned_at > $1
	`
	err := s.pool.QueryRow(ctx, query, since).Scan(&out.Total, &out.Active)
	return out, err
}

type DashboardCounts struct {
	TotalPins   int64
	TodayPins   int64
	UploadCount int64
	PinCount    int64
}

func (s *PostgresStore) CountDashboardPins(ctx context.Context, userID int64) (DashboardCounts, error) {
	var c DashboardCounts
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE pinned_at::date = NOW()::date),
			COUNT(*) FILTER (WHERE upload_type = 'upload'),
			COUNT(*) FILTER (WHERE upload_type = 'pin')
		FROM pins
		WHERE user_id = $1 AND status = 'active'
	`
	err := s.pool.QueryRow(ctx, query, userID).Scan(&c.TotalPins, &c.TodayPins, &c.UploadCount, &c.PinCount)
	return c, err
}
