package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"servebeer/internal/admission"
	"servebeer/internal/database"
	"servebeer/internal/models"
)

type PinCIDRequest struct {
	CID      string `json:"cid" example:"bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"`
	Filename string `json:"filename,omitempty" example:"whitepaper.pdf"`
}

// @Summary      Pin an existing CID
// @Description  Verifies the CID against the IPFS node, checks the account quota and records the pin.
// @Tags         pins
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        pinRequest  body      PinCIDRequest  true  "CID to pin"
// @Success      201         {object}  models.Pin
// @Failure      400         {string}  string "CID is required"
// @Failure      401         {string}  string "Unauthorized"
// @Failure      404         {string}  string "CID not found in IPFS network"
// @Failure      409         {string}  string "CID already pinned"
// @Failure      413         {string}  string "Storage limit exceeded"
// @Failure      500         {string}  string "IPFS pin failed"
// @Router       /pins [post]
func (s *Server) PinHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req PinCIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	pin, err := s.admission.PinCID(r.Context(), admission.PinRequest{
		UserID:   claims.UserID,
		CID:      strings.TrimSpace(req.CID),
		Filename: strings.TrimSpace(req.Filename),
		ClientIP: r.RemoteAddr,
	})
	if err != nil {
		s.writeAdmissionError(w, models.UploadTypePin, err)
		return
	}

	recordAdmission(models.UploadTypePin, "accepted")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(pin)
}

type UploadResponse struct {
	CID      string `json:"cid"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// @Summary      Upload a file
// @Description  Streams the file to the IPFS node, checks the account quota and records the resulting pin.
// @Tags         pins
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file         formData  file    true   "File payload"
// @Param        description  formData  string  false  "Display name, defaults to the filename"
// @Success      201          {object}  UploadResponse
// @Failure      400          {string}  string "No file selected"
// @Failure      401          {string}  string "Unauthorized"
// @Failure      413          {string}  string "Storage limit exceeded"
// @Failure      500          {string}  string "IPFS upload failed"
// @Router       /uploads [post]
func (s *Server) UploadHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<30)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Error parsing multipart form", http.StatusBadRequest)
		return
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file selected", http.StatusBadRequest)
		return
	}
	defer file.Close()

	pin, err := s.admission.Upload(r.Context(), admission.UploadRequest{
		UserID:       claims.UserID,
		Content:      file,
		ObservedSize: handler.Size,
		Filename:     handler.Filename,
		MimeType:     handler.Header.Get("Content-Type"),
		Description:  strings.TrimSpace(r.FormValue("description")),
		ClientIP:     r.RemoteAddr,
	})
	if err != nil {
		s.writeAdmissionError(w, models.UploadTypeUpload, err)
		return
	}

	recordAdmission(models.UploadTypeUpload, "accepted")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(UploadResponse{
		CID:      pin.CID,
		Filename: handler.Filename,
		Size:     pin.SizeBytes,
	})
}

// writeAdmissionError maps the admission taxonomy 1:1 onto status codes.
// Genuinely unexpected failures become a minimal 500, never a traceback.
func (s *Server) writeAdmissionError(w http.ResponseWriter, kind string, err error) {
	switch {
	case errors.Is(err, admission.ErrMissingCID):
		recordAdmission(kind, "bad_request")
		http.Error(w, "Error: CID is required", http.StatusBadRequest)
	case errors.Is(err, admission.ErrNoFile):
		recordAdmission(kind, "bad_request")
		http.Error(w, "Error: No file selected", http.StatusBadRequest)
	case errors.Is(err, admission.ErrUserNotFound):
		recordAdmission(kind, "unauthenticated")
		http.Error(w, "Authentication required", http.StatusUnauthorized)
	case errors.Is(err, admission.ErrNotFoundInStore):
		recordAdmission(kind, "not_found")
		http.Error(w, "Error: CID not found in IPFS network", http.StatusNotFound)
	case errors.Is(err, admission.ErrQuotaExceeded):
		recordAdmission(kind, "quota_exceeded")
		http.Error(w, "Error: Storage limit exceeded", http.StatusRequestEntityTooLarge)
	case errors.Is(err, database.ErrPinAlreadyExists):
		recordAdmission(kind, "conflict")
		http.Error(w, "Error: CID already pinned", http.StatusConflict)
	case errors.Is(err, admission.ErrStoreFailed):
		recordAdmission(kind, "store_error")
		http.Error(w, "Error: IPFS operation failed", http.StatusInternalServerError)
	default:
		recordAdmission(kind, "internal_error")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

type FileEntry struct {
	Filename   string    `json:"filename"`
	CID        string    `json:"cid"`
	CIDShort   string    `json:"cid_short"`
	SizeKB     int64     `json:"size_kb"`
	UploadType string    `json:"upload_type"`
	PinnedAt   time.Time `json:"pinned_at"`
}

type FileListResponse struct {
	Files []FileEntry `json:"files"`
}

// @Summary      List pinned files
// @Description  Returns the account's active pins, newest first, capped at 50, with an optional case-insensitive filename/CID filter.
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Substring to match against filename or CID"
// @Success      200     {object}  FileListResponse
// @Failure      401     {string}  string "Unauthorized"
// @Failure      500     {string}  string "Internal Server Error"
// @Router       /dashboard/files [get]
func (s *Server) ListFilesHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	search := strings.TrimSpace(r.URL.Query().Get("search"))

	pins, err := s.store.ListPins(r.Context(), claims.UserID, search, 50)
	if err != nil {
		http.Error(w, "Failed to list files", http.StatusInternalServerError)
		return
	}

	files := make([]FileEntry, 0, len(pins))
	for _, pin := range pins {
		filename := defaultFileName(pin)
		files = append(files, FileEntry{
			Filename:   filename,
			CID:        pin.CID,
			CIDShort:   shortenCID(pin.CID),
			SizeKB:     pin.SizeBytes / 1024,
			UploadType: pin.UploadType,
			PinnedAt:   pin.PinnedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(FileListResponse{Files: files})
}

func defaultFileName(pin models.Pin) string {
	if pin.Filename != nil && *pin.Filename != "" {
		return *pin.Filename
	}
	cid := pin.CID
	if len(cid) > 8 {
		cid = cid[:8]
	}
	return "file-" + cid
}

// shortenCID keeps the first 12 and last 6 characters for display; short
// CIDs pass through untouched.
func shortenCID(cid string) string {
	if len(cid) <= 18 {
		return cid
	}
	return cid[:12] + "..." + cid[len(cid)-6:]
}
