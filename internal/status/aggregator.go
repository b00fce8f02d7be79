package status

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"servebeer/internal/database"
	"servebeer/internal/ipfs"
	"servebeer/internal/models"
)

// NeutralSuccessRate is the documented placeholder returned when there is no
// pin activity to measure. It means "no data, assume healthy" and is flagged
// via Measured=false so callers can tell it apart from a real measurement.
const NeutralSuccessRate = 99.8

const (
	NodeOnline  = "Online"
	NodeOffline = "Offline"
)

// NodeInfo is the read-only slice of the IPFS client the aggregator uses.
type NodeInfo interface {
	PeerCount(ctx context.Context) int
	Version(ctx context.Context) string
}

// LedgerStats is the read-only slice of the database store the aggregator uses.
type LedgerStats interface {
	CountPinOutcomes(ctx context.Context, since time.Time) (database.PinOutcomes, error)
	DailyStorage(ctx context.Context, userID int64, windowDays int) ([]database.DailyUsage, error)
	RecentActivity(ctx context.Context, userID *int64, limit int) ([]models.AuditEvent, error)
}

// Aggregator computes derived views fresh on every call; there is no cache
// and no background refresh.
type Aggregator struct {
	node NodeInfo
	db   LedgerStats
}

func NewAggregator(node NodeInfo, db LedgerStats) *Aggregator {
	return &Aggregator{node: node, db: db}
}

type NetworkStatus struct {
	PeerCount      int     `json:"peer_count"`
	ResponseTimeMs int64   `json:"response_time_ms"`
	SuccessRate    float64 `json:"success_rate"`
	// Measured is false when SuccessRate is the neutral placeholder.
	Measured    bool   `json:"success_rate_measured"`
	IPFSVersion string `json:"ipfs_version"`
	NodeStatus  string `json:"node_status"`
}

// NetworkStatus probes the node and derives the recent pin success rate.
// It always returns a well-formed value, degrading to sentinels on failure.
func (a *Aggregator) NetworkStatus(ctx context.Context) NetworkStatus {
	start := time.Now()

	version := a.node.Version(ctx)
	peerCount := a.node.PeerCount(ctx)
	responseTime := time.Since(start).Milliseconds()

	nodeStatus := NodeOnline
	if version == ipfs.VersionUnknown {
		nodeStatus = NodeOffline
	}

	rate, measured := a.successRate(ctx)

	return NetworkStatus{
		PeerCount:      peerCount,
		ResponseTimeMs: responseTime,
		SuccessRate:    rate,
		Measured:       measured,
		IPFSVersion:    version,
		NodeStatus:     nodeStatus,
	}
}

// successRate is the share of still-active pins among those created in the
// last 24 hours; an empty day widens to 7 days; an empty week yields the
// neutral placeholder.
func (a *Aggregator) successRate(ctx context.Context) (float64, bool) {
	for _, window := range []time.Duration{24 * time.Hour, 7 * 24 * time.Hour} {
		outcomes, err := a.db.CountPinOutcomes(ctx, time.Now().Add(-window))
		if err != nil {
			log.Printf("WARN: success rate query failed: %v", err)
			return NeutralSuccessRate, false
		}
		if outcomes.Total > 0 {
			rate := float64(outcomes.Active) / float64(outcomes.Total) * 100
			return math.Round(rate*10) / 10, true
		}
	}
	return NeutralSuccessRate, false
}

// StorageSeries is a per-day storage growth series. NoData marks an account
// with no pins in the window; the presentation layer decides how to render
// that, the data here stays honest.
type StorageSeries struct {
	Days   []database.DailyUsage `json:"days"`
	NoData bool                  `json:"no_data"`
}

func (a *Aggregator) StorageGrowth(ctx context.Context, userID int64, windowDays int) StorageSeries {
	if windowDays <= 0 {
		windowDays = 30
	}
	days, err := a.db.DailyStorage(ctx, userID, windowDays)
	if err != nil {
		log.Printf("WARN: daily storage query failed for user %d: %v", userID, err)
		return StorageSeries{Days: []database.DailyUsage{}, NoData: true}
	}
	return StorageSeries{Days: days, NoData: len(days) == 0}
}

type ActivityItem struct {
	Icon         string    `json:"icon"`
	Message      string    `json:"message"`
	RelativeTime string    `json:"relative_time"`
	Timestamp    time.Time `json:"timestamp"`
}

type activityRendering struct {
	icon    string
	message string
}

// Fixed rendering table for the closed audit event set.
var activityRenderings = map[string]activityRendering{
	models.EventCIDPinned:       {"pin", "Pinned content to IPFS"},
	models.EventFileUploaded:    {"upload", "Uploaded file to IPFS"},
	models.EventLoginSuccess:    {"login", "Logged in"},
	models.EventLoginFailed:     {"warning", "Failed login attempt"},
	models.EventRegisterSuccess: {"user", "New user registered"},
	models.EventRegisterFailed:  {"warning", "Registration failed"},
	models.EventUploadFailed:    {"error", "File upload failed"},
	models.EventContactForm:     {"mail", "Contact form submitted"},
}

// ActivityFeed renders the newest audit events for one account, or globally
// when userID is nil. Failures degrade to an empty feed.
func (a *Aggregator) ActivityFeed(ctx context.Context, userID *int64, limit int) []ActivityItem {
	if limit <= 0 {
		limit = 10
	}
	events, err := a.db.RecentActivity(ctx, userID, limit)
	if err != nil {
		log.Printf("WARN: activity query failed: %v", err)
		return []ActivityItem{}
	}

	items := make([]ActivityItem, 0, len(events))
	for _, event := range events {
		items = append(items, renderActivity(event, time.Now()))
	}
	return items
}

func renderActivity(event models.AuditEvent, now time.Time) ActivityItem {
	rendering, ok := activityRenderings[event.EventType]
	if !ok {
		rendering = activityRendering{"activity", humanizeEventType(event.EventType)}
	}
	return ActivityItem{
		Icon:         rendering.icon,
		Message:      rendering.message,
		RelativeTime: formatTimeAgo(now, event.EventTime),
		Timestamp:    event.EventTime,
	}
}

func humanizeEventType(eventType string) string {
	words := strings.Split(strings.ToLower(eventType), "_")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

func formatTimeAgo(now, then time.Time) string {
	diff := now.Sub(then)
	switch {
	case diff >= 48*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	case diff >= 24*time.Hour:
		return "1 day ago"
	case diff >= 2*time.Hour:
		return fmt.Sprintf("%d hours ago", int(diff.Hours()))
	case diff >= time.Hour:
		return "1 hour ago"
	case diff >= 2*time.Minute:
		return fmt.Sprintf("%d minutes ago", int(diff.Minutes()))
	case diff >= time.Minute:
		return "1 minute ago"
	default:
		return "Just now"
	}
}
