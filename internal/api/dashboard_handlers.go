package api

import (
	"encoding/json"
	"math"
	"net/http"
)

type DashboardStatsResponse struct {
	StorageUsedMB      float64 `json:"storage_used_mb"`
	StorageLimitMB     float64 `json:"storage_limit_mb"`
	StorageAvailableMB float64 `json:"storage_available_mb"`
	TotalPins          int64   `json:"total_pins"`
	TodayPins          int64   `json:"today_pins"`
	UploadCount        int64   `json:"upload_count"`
	PinCount           int64   `json:"pin_count"`
	UserEmail          string  `json:"user_email"`
	UserTier           string  `json:"user_tier"`
}

// @Summary      Dashboard statistics
// @Description  Storage usage and pin counters for the authenticated account.
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  DashboardStatsResponse
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {string}  string "User not found"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /dashboard/stats [get]
func (s *Server) DashboardStatsHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	user, err := s.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "Failed to retrieve user data", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	counts, err := s.store.CountDashboardPins(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "Failed to retrieve pin counts", http.StatusInternalServerError)
		return
	}

	usedMB := roundMB(user.StorageUsed)
	limitMB := math.Round(float64(user.StorageLimit) / (1024 * 1024))

	email := ""
	if user.Email != nil {
		email = *user.Email
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(DashboardStatsResponse{
		StorageUsedMB:      usedMB,
		StorageLimitMB:     limitMB,
		StorageAvailableMB: math.Round((limitMB-usedMB)*10) / 10,
		TotalPins:          counts.TotalPins,
		TodayPins:          counts.TodayPins,
		UploadCount:        counts.UploadCount,
		PinCount:           counts.PinCount,
		UserEmail:          email,
		UserTier:           user.Tier,
	})
}

// @Summary      Network health
// @Description  IPFS node health combined with the recent pin success rate. Always returns a well-formed payload, degrading to sentinels when the node is unreachable.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  status.NetworkStatus
// @Router       /dashboard/network [get]
func (s *Server) DashboardNetworkHandler(w http.ResponseWriter, r *http.Request) {
	data := s.aggregator.NetworkStatus(r.Context())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

type StorageUsageChart struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

type AnalyticsResponse struct {
	StorageUsage StorageUsageChart `json:"storage_usage"`
	// Placeholder marks the demo series rendered for accounts with no pins
	// in the window; the numbers are not measurements.
	Placeholder bool `json:"placeholder"`
}

// The demo series shown for empty accounts, kept from the beta dashboard.
var placeholderChart = StorageUsageChart{
	Labels: []string{"2025-01-25", "2025-01-26", "2025-01-27"},
	Data:   []float64{5.2, 12.8, 18.4},
}

// @Summary      Storage analytics
// @Description  Daily storage growth over the trailing 30 days. Accounts with no data get a flagged placeholder series.
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  AnalyticsResponse
// @Failure      401  {string}  string "Unauthorized"
// @Router       /dashboard/analytics [get]
func (s *Server) DashboardAnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	series := s.aggregator.StorageGrowth(r.Context(), claims.UserID, 30)

	response := AnalyticsResponse{}
	if series.NoData {
		response.StorageUsage = placeholderChart
		response.Placeholder = true
	} else {
		chart := StorageUsageChart{
			Labels: make([]string, 0, len(series.Days)),
			Data:   make([]float64, 0, len(series.Days)),
		}
		for _, day := range series.Days {
			chart.Labels = append(chart.Labels, day.Date.Format("2006-01-02"))
			chart.Data = append(chart.Data, roundMB(day.Bytes))
		}
		response.StorageUsage = chart
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

type ActivityResponse struct {
	Activities interface{} `json:"activities"`
}

// @Summary      Recent activity
// @Description  The account's last 10 audit events rendered for the activity feed.
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ActivityResponse
// @Failure      401  {string}  string "Unauthorized"
// @Router       /dashboard/activity [get]
func (s *Server) DashboardActivityHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	feed := s.aggregator.ActivityFeed(r.Context(), &claims.UserID, 10)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ActivityResponse{Activities: feed})
}

// @Summary      Global activity
// @Description  The last 10 audit events across all accounts (status page feed).
// @Tags         status
// @Produce      json
// @Success      200  {object}  ActivityResponse
// @Router       /status/activity [get]
func (s *Server) StatusActivityHandler(w http.ResponseWriter, r *http.Request) {
	feed := s.aggregator.ActivityFeed(r.Context(), nil, 10)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ActivityResponse{Activities: feed})
}

func roundMB(bytes int64) float64 {
	return math.Round(float64(bytes)/(1024*1024)*10) / 10
}
