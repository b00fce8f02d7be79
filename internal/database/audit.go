package database

import (
	"context"
	"encoding/json"
	"servebeer/internal/models"
)

type LogAuditParams struct {
	EventType string
	UserID    *int64
	IPAddress string
	Details   string
}

// LogAudit appends to the audit log and pushes the event to the owner's
// connected dashboard clients. Callers treat failures as best effort: a
// failed audit write must never abort the business operation it describes.
func (s *PostgresStore) LogAudit(ctx context.Context, arg LogAuditParams) error {
	query := `
		INSERT INTO audit_log (event_type, user_id, ip_address, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id, event_time
	`
	event := models.AuditEvent{
		EventType: arg.EventType,
		UserID:    arg.UserID,
		IPAddress: &arg.IPAddress,
		Details:   &arg.Details,
	}
	err := s.pool.QueryRow(ctx, query, arg.EventType, arg.UserID, arg.IPAddress, arg.Details).
		Scan(&event.ID, &event.EventTime)
	if err != nil {
		return err
	}

	if s.wsHub != nil && arg.UserID != nil {
		if payload, err := json.Marshal(event); err == nil {
			s.wsHub.PublishEvent(*arg.UserID, payload)
		}
	}

	return nil
}

// RecentActivity returns the newest audit events, scoped to one user when
// userID is non-nil or global otherwise (status page, admin views).
func (s *PostgresStore) RecentActivity(ctx context.Context, userID *int64, limit int) ([]models.AuditEvent, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, event_type, user_id, ip_address, details, event_time
		FROM audit_log
		WHERE $1::bigint IS NULL OR user_id = $1
		ORDER BY event_time DESC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.AuditEvent
	for rows.Next() {
		var event models.AuditEvent
		err := rows.Scan(
			&event.ID,
			&event.EventType,
			&event.UserID,
			&event.IPAddress,
			&event.Details,
			&event.EventTime,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if events == nil {
		return []models.AuditEvent{}, nil
	}

	return events, nil
}
