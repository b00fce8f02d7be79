package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"servebeer/internal/mail"
	"servebeer/internal/models"
)

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// @Summary      Contact form
// @Description  Records the message in the audit log and hands it to the mail transport.
// @Tags         contact
// @Accept       json
// @Success      202  {string}  string "Accepted"
// @Failure      400  {string}  string "All fields are required"
// @Router       /contact [post]
func (s *Server) ContactHandler(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.Email == "" || req.Subject == "" || req.Message == "" {
		http.Error(w, "All fields are required", http.StatusBadRequest)
		return
	}

	preview := req.Message
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	s.audit(r, models.EventContactForm, nil,
		strings.Join([]string{"From: " + req.Email, "Subject: " + req.Subject, "Message: " + preview}, ", "))

	err := s.mailer.Send(r.Context(), mail.Message{
		Name:    req.Name,
		From:    req.Email,
		Subject: req.Subject,
		Body:    req.Message,
	})
	if err != nil {
		// The message is already in the audit log; delivery is best effort.
		log.Printf("WARN: contact mail delivery failed: %v", err)
	}

	w.WriteHeader(http.StatusAccepted)
}
