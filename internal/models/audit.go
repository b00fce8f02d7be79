package models

import "time"

// Audit event types. The set is closed; the activity feed renders anything
// unknown with a generic icon.
const (
	EventCIDPinned       = "CID_PINNED"
	EventFileUploaded    = "FILE_UPLOADED"
	EventLoginSuccess    = "LOGIN_SUCCESS"
	EventLoginFailed     = "LOGIN_FAILED"
	EventRegisterSuccess = "REGISTER_SUCCESS"
	EventRegisterFailed  = "REGISTER_FAILED"
	EventUploadFailed    = "UPLOAD_FAILED"
	EventContactForm     = "CONTACT_FORM"
)

// AuditEvent is append-only; rows are never mutated or deleted. UserID is nil
// for unauthenticated events such as failed logins.
type AuditEvent struct {
	ID        int64     `json:"id"`
	EventType string    `json:"event_type"`
	UserID    *int64    `json:"user_id"`
	IPAddress *string   `json:"ip_address"`
	Details   *string   `json:"details"`
	EventTime time.Time `json:"event_time"`
}
