package status

import (
	"context"
	"errors"
	"testing"
	"time"

	"servebeer/internal/database"
	"servebeer/internal/ipfs"
	"servebeer/internal/models"

	"github.com/stretchr/testify/require"
)

type stubNode struct {
	peers   int
	version string
}

func (n *stubNode) PeerCount(ctx context.Context) int  { return n.peers }
func (n *stubNode) Version(ctx context.Context) string { return n.version }

// stubStats zwraca wyniki per okno czasowe; klucz to długość okna w godzinach.
type stubStats struct {
	outcomesByWindow map[int]database.PinOutcomes
	outcomesErr      error
	usage            []database.DailyUsage
	usageErr         error
	events           []models.AuditEvent
	eventsErr        error
}

func (s *stubStats) CountPinOutcomes(ctx context.Context, since time.Time) (database.PinOutcomes, error) {
	if s.outcomesErr != nil {
		return database.PinOutcomes{}, s.outcomesErr
	}
	hours := int(time.Until(since).Abs().Round(time.Hour).Hours())
	return s.outcomesByWindow[hours], nil
}

func (s *stubStats) DailyStorage(ctx context.Context, userID int64, windowDays int) ([]database.DailyUsage, error) {
	return s.usage, s.usageErr
}

func (s *stubStats) RecentActivity(ctx context.Context, userID *int64, limit int) ([]models.AuditEvent, error) {
	if s.eventsErr != nil {
		return nil, s.eventsErr
	}
	if limit < len(s.events) {
		return s.events[:limit], nil
	}
	return s.events, nil
}

func TestNetworkStatusOnline(t *testing.T) {
	node := &stubNode{peers: 42, version: "0.28.0"}
	stats := &stubStats{outcomesByWindow: map[int]database.PinOutcomes{
		24: {Total: 10, Active: 9},
	}}
	aggregator := NewAggregator(node, stats)

	status := aggregator.NetworkStatus(context.Background())

	require.Equal(t, 42, status.PeerCount)
	require.Equal(t, "0.28.0", status.IPFSVersion)
	require.Equal(t, NodeOnline, status.NodeStatus)
	require.Equal(t, 90.0, status.SuccessRate)
	require.True(t, status.Measured)
	require.GreaterOrEqual(t, status.ResponseTimeMs, int64(0))
}

func TestNetworkStatusOffline(t *testing.T) {
	node := &stubNode{peers: 0, version: ipfs.VersionUnknown}
	stats := &stubStats{outcomesByWindow: map[int]database.PinOutcomes{}}
	aggregator := NewAggregator(node, stats)

	status := aggregator.NetworkStatus(context.Background())

	require.Equal(t, NodeOffline, status.NodeStatus)
	require.Equal(t, ipfs.VersionUnknown, status.IPFSVersion)
	require.Equal(t, 0, status.PeerCount)
}

func TestSuccessRateWindows(t *testing.T) {
	// Puste 24h: okno rozszerza się do 7 dni
	stats := &stubStats{outcomesByWindow: map[int]database.PinOutcomes{
		24:  {Total: 0, Active: 0},
		168: {Total: 8, Active: 6},
	}}
	aggregator := NewAggregator(&stubNode{version: "0.28.0"}, stats)

	rate, measured := aggregator.successRate(context.Background())
	require.True(t, measured)
	require.Equal(t, 75.0, rate)

	// Zaokrąglenie do jednego miejsca po przecinku
	stats.outcomesByWindow[24] = database.PinOutcomes{Total: 3, Active: 2}
	rate, measured = aggregator.successRate(context.Background())
	require.True(t, measured)
	require.Equal(t, 66.7, rate)
}

func TestSuccessRateNeutralDefault(t *testing.T) {
	// Brak aktywności w obu oknach: neutralna wartość, oznaczona jako niemierzona
	stats := &stubStats{outcomesByWindow: map[int]database.PinOutcomes{}}
	aggregator := NewAggregator(&stubNode{version: "0.28.0"}, stats)

	rate, measured := aggregator.successRate(context.Background())
	require.False(t, measured)
	require.Equal(t, NeutralSuccessRate, rate)

	// Błąd zapytania też degraduje do neutralnej wartości
	stats.outcomesErr = errors.New("db down")
	rate, measured = aggregator.successRate(context.Background())
	require.False(t, measured)
	require.Equal(t, NeutralSuccessRate, rate)
}

func TestStorageGrowth(t *testing.T) {
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	stats := &stubStats{usage: []database.DailyUsage{
		{Date: day, Bytes: 1024},
		{Date: day.AddDate(0, 0, 1), Bytes: 2048},
	}}
	aggregator := NewAggregator(&stubNode{}, stats)

	series := aggregator.StorageGrowth(context.Background(), 1, 30)
	require.False(t, series.NoData)
	require.Len(t, series.Days, 2)
	require.Equal(t, int64(1024), series.Days[0].Bytes)
}

func TestStorageGrowthNoData(t *testing.T) {
	stats := &stubStats{usage: []database.DailyUsage{}}
	aggregator := NewAggregator(&stubNode{}, stats)

	series := aggregator.StorageGrowth(context.Background(), 1, 30)
	require.True(t, series.NoData)
	require.NotNil(t, series.Days)
	require.Empty(t, series.Days)

	// Błąd zapytania: seria degraduje do NoData zamiast zwracać błąd
	stats.usageErr = errors.New("db down")
	series = aggregator.StorageGrowth(context.Background(), 1, 30)
	require.True(t, series.NoData)
	require.Empty(t, series.Days)
}

func TestActivityFeed(t *testing.T) {
	now := time.Now()
	stats := &stubStats{events: []models.AuditEvent{
		{EventType: models.EventCIDPinned, EventTime: now.Add(-30 * time.Second)},
		{EventType: models.EventLoginFailed, EventTime: now.Add(-5 * time.Minute)},
		{EventType: "SOMETHING_NEW", EventTime: now.Add(-3 * time.Hour)},
	}}
	aggregator := NewAggregator(&stubNode{}, stats)

	items := aggregator.ActivityFeed(context.Background(), nil, 10)
	require.Len(t, items, 3)

	require.Equal(t, "pin", items[0].Icon)
	require.Equal(t, "Pinned content to IPFS", items[0].Message)
	require.Equal(t, "Just now", items[0].RelativeTime)

	require.Equal(t, "warning", items[1].Icon)
	require.Equal(t, "Failed login attempt", items[1].Message)

	// Nieznany typ zdarzenia dostaje ogólną ikonę i uczłowieczoną nazwę
	require.Equal(t, "activity", items[2].Icon)
	require.Equal(t, "Something New", items[2].Message)
}

func TestActivityFeedDegradesToEmpty(t *testing.T) {
	stats := &stubStats{eventsErr: errors.New("db down")}
	aggregator := NewAggregator(&stubNode{}, stats)

	items := aggregator.ActivityFeed(context.Background(), nil, 10)
	require.NotNil(t, items)
	require.Empty(t, items)
}

func TestFormatTimeAgo(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "Just now"},
		{90 * time.Second, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{90 * time.Minute, "1 hour ago"},
		{5 * time.Hour, "5 hours ago"},
		{30 * time.Hour, "1 day ago"},
		{72 * time.Hour, "3 days ago"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, formatTimeAgo(now, now.Add(-tc.ago)), "for %s", tc.ago)
	}
}
