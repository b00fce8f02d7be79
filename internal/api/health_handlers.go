package api

import (
	"encoding/json"
	"net/http"
	"time"

	"servebeer/internal/ipfs"
)

type HealthResponse struct {
	Status      string    `json:"status"`
	IPFS        string    `json:"ipfs"`
	Database    string    `json:"database"`
	TestingMode bool      `json:"testing_mode"`
	Timestamp   time.Time `json:"timestamp"`
}

// @Summary      Health check
// @Description  Probes the IPFS node and the database.
// @Tags         status
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func (s *Server) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ipfsHealthy := s.ipfs.Version(r.Context()) != ipfs.VersionUnknown
	dbHealthy := s.store.Ping(r.Context()) == nil

	response := HealthResponse{
		Status:      "healthy",
		IPFS:        "ok",
		Database:    "ok",
		TestingMode: s.config.Quota.TestingMode,
		Timestamp:   time.Now(),
	}
	if !ipfsHealthy {
		response.Status = "unhealthy"
		response.IPFS = "error"
	}
	if !dbHealthy {
		response.Status = "unhealthy"
		response.Database = "error"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
