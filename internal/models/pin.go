package models

import "time"

const (
	UploadTypePin    = "pin"
	UploadTypeUpload = "upload"

	PinStatusActive = "active"
)

type Pin struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	CID        string    `json:"cid"`
	Filename   *string   `json:"filename"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadType string    `json:"upload_type"`
	Status     string    `json:"status"`
	PinnedAt   time.Time `json:"pinned_at"`
}
