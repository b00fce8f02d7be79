package admission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"servebeer/internal/config"
	"servebeer/internal/database"
	"servebeer/internal/ipfs"
	"servebeer/internal/models"
)

var (
	ErrMissingCID      = errors.New("cid is required")
	ErrNoFile          = errors.New("no file provided")
	ErrUserNotFound    = errors.New("user not found")
	ErrNotFoundInStore = errors.New("CID not found in IPFS network")
	ErrQuotaExceeded   = errors.New("storage limit exceeded")
	// ErrStoreFailed wraps transport/remote failures from the content store.
	// Safe to retry later; never retried automatically.
	ErrStoreFailed = errors.New("IPFS operation failed")
)

// ContentStore is the slice of the IPFS client the admission flow needs.
type ContentStore interface {
	Exists(ctx context.Context, cid string) bool
	ResolveSize(ctx context.Context, cid string) (int64, bool)
	Pin(ctx context.Context, cid string) error
	Add(ctx context.Context, content io.Reader, filename, mimeType string) (*ipfs.AddResult, error)
}

// Ledger is the slice of the database store the admission flow needs.
type Ledger interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	HasPin(ctx context.Context, userID int64, cid string) (bool, error)
	CommitPin(ctx context.Context, arg database.CommitPinParams) (*models.Pin, error)
	LogAudit(ctx context.Context, arg database.LogAuditParams) error
}

// Controller runs the pin/upload admission workflow: validate, verify or
// store, resolve size, check quota, commit to the ledger, audit. Quota policy
// is fixed at construction so metered and unmetered behavior can be tested
// side by side.
type Controller struct {
	store  ContentStore
	ledger Ledger
	quota  config.QuotaConfig
}

func NewController(store ContentStore, ledger Ledger, quota config.QuotaConfig) *Controller {
	return &Controller{
		store:  store,
		ledger: ledger,
		quota:  quota,
	}
}

type PinRequest struct {
	UserID   int64
	CID      string
	Filename string
	ClientIP string
}

// PinCID attaches an existing CID to the user's account. The ledger's
// UNIQUE(user_id, cid) constraint backs the duplicate pre-check, so two
// concurrent identical requests yield one success and one conflict.
func (c *Controller) PinCID(ctx context.Context, req PinRequest) (*models.Pin, error) {
	if req.CID == "" {
		return nil, ErrMissingCID
	}

	user, err := c.ledger.GetUserByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if !c.store.Exists(ctx, req.CID) {
		return nil, ErrNotFoundInStore
	}

	// Unknown size is treated as 0 rather than failing the request.
	size, _ := c.store.ResolveSize(ctx, req.CID)

	if !c.hasCapacity(user, size) {
		return nil, ErrQuotaExceeded
	}

	exists, err := c.ledger.HasPin(ctx, req.UserID, req.CID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, database.ErrPinAlreadyExists
	}

	if err := c.store.Pin(ctx, req.CID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}

	filename := req.Filename
	if filename == "" {
		filename = defaultPinName(req.CID)
	}

	pin, err := c.ledger.CommitPin(ctx, database.CommitPinParams{
		UserID:     req.UserID,
		CID:        req.CID,
		Filename:   &filename,
		SizeBytes:  size,
		UploadType: models.UploadTypePin,
	})
	if err != nil {
		return nil, err
	}

	c.audit(ctx, models.EventCIDPinned, &req.UserID, req.ClientIP,
		fmt.Sprintf("CID: %s, Size: %d", req.CID, size))

	return pin, nil
}

type UploadRequest struct {
	UserID int64
	// Content is the raw file payload; ObservedSize is the byte length seen
	// on the wire, used when the node reports size 0.
	Content      io.Reader
	ObservedSize int64
	Filename     string
	MimeType     string
	Description  string
	ClientIP     string
}

// Upload adds new content to the node and commits the resulting pin. The
// node already stored the bytes by the time quota is checked, matching the
// pin-path semantics: over-quota content is simply never committed.
func (c *Controller) Upload(ctx context.Context, req UploadRequest) (*models.Pin, error) {
	if req.Content == nil || req.Filename == "" {
		return nil, ErrNoFile
	}

	user, err := c.ledger.GetUserByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	added, err := c.store.Add(ctx, req.Content, req.Filename, req.MimeType)
	if err != nil {
		c.audit(ctx, models.EventUploadFailed, &req.UserID, req.ClientIP,
			fmt.Sprintf("Error: %v", err))
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}

	size := added.Size
	if size == 0 {
		size = req.ObservedSize
	}

	if !c.hasCapacity(user, size) {
		return nil, ErrQuotaExceeded
	}

	description := req.Description
	if description == "" {
		description = req.Filename
	}

	pin, err := c.ledger.CommitPin(ctx, database.CommitPinParams{
		UserID:     req.UserID,
		CID:        added.CID,
		Filename:   &description,
		SizeBytes:  size,
		UploadType: models.UploadTypeUpload,
	})
	if err != nil {
		return nil, err
	}

	c.audit(ctx, models.EventFileUploaded, &req.UserID, req.ClientIP,
		fmt.Sprintf("CID: %s, Size: %d", added.CID, size))

	return pin, nil
}

// hasCapacity enforces the tier quota unless the deployment runs unmetered.
func (c *Controller) hasCapacity(user *models.User, additionalBytes int64) bool {
	if c.quota.TestingMode {
		return true
	}
	return user.StorageUsed+additionalBytes <= user.StorageLimit
}

// audit is best effort: a lost audit row must not fail the user-visible
// operation.
func (c *Controller) audit(ctx context.Context, eventType string, userID *int64, ip, details string) {
	err := c.ledger.LogAudit(ctx, database.LogAuditParams{
		EventType: eventType,
		UserID:    userID,
		IPAddress: ip,
		Details:   details,
	})
	if err != nil {
		log.Printf("WARN: failed to write audit event %s: %v", eventType, err)
	}
}

func defaultPinName(cid string) string {
	if len(cid) > 8 {
		cid = cid[:8]
	}
	return "pinned-" + cid
}
