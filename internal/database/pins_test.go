package database

import (
	"context"
	"servebeer/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func commitTestPin(t *testing.T, userID int64, cid, filename string, size int64, uploadType string) *models.Pin {
	pin, err := testStore.CommitPin(context.Background(), CommitPinParams{
		UserID:     userID,
		CID:        cid,
		Filename:   &filename,
		SizeBytes:  size,
		UploadType: uploadType,
	})
	require.NoError(t, err)
	require.NotNil(t, pin)
	return pin
}

func TestCommitPin(t *testing.T) {
	user := createTestUser(t, "commit_pin@example.com")

	pin := commitTestPin(t, user.ID, "QmCommitPinTest1", "report.pdf", 1024, models.UploadTypePin)

	require.NotZero(t, pin.ID)
	require.Equal(t, user.ID, pin.UserID)
	require.Equal(t, "QmCommitPinTest1", pin.CID)
	require.NotNil(t, pin.Filename)
	require.Equal(t, "report.pdf", *pin.Filename)
	require.Equal(t, int64(1024), pin.SizeBytes)
	require.Equal(t, models.PinStatusActive, pin.Status)
	require.NotZero(t, pin.PinnedAt)

	// Licznik zajętego miejsca musi wzrosnąć w tej samej transakcji
	updated, err := testStore.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1024), updated.StorageUsed)
}

func TestCommitPinDuplicate(t *testing.T) {
	user := createTestUser(t, "commit_pin_dup@example.com")

	commitTestPin(t, user.ID, "QmDuplicateCID", "first.txt", 500, models.UploadTypePin)

	filename := "second.txt"
	dup, err := testStore.CommitPin(context.Background(), CommitPinParams{
		UserID:     user.ID,
		CID:        "QmDuplicateCID",
		Filename:   &filename,
		SizeBytes:  500,
		UploadType: models.UploadTypePin,
	})
	require.ErrorIs(t, err, ErrPinAlreadyExists)
	require.Nil(t, dup)

	// Odrzucony duplikat nie może zwiększyć licznika zajętego miejsca
	updated, err := testStore.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, int64(500), updated.StorageUsed)

	// Ten sam CID u innego użytkownika nie jest duplikatem
	otherUser := createTestUser(t, "commit_pin_dup_other@example.com")
	commitTestPin(t, otherUser.ID, "QmDuplicateCID", "theirs.txt", 500, models.UploadTypePin)
}

func TestHasPin(t *testing.T) {
	user := createTestUser(t, "has_pin@example.com")
	commitTestPin(t, user.ID, "QmHasPinCID", "plik.txt", 100, models.UploadTypePin)

	exists, err := testStore.HasPin(context.Background(), user.ID, "QmHasPinCID")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = testStore.HasPin(context.Background(), user.ID, "QmMissingCID")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestListPins(t *testing.T) {
	user := createTestUser(t, "list_pins@example.com")

	commitTestPin(t, user.ID, "QmListOldest", "holiday-photo.jpg", 100, models.UploadTypeUpload)
	commitTestPin(t, user.ID, "QmListMiddle", "Annual-Report.pdf", 200, models.UploadTypeUpload)
	commitTestPin(t, user.ID, "QmListNewest", "notes.txt", 300, models.UploadTypePin)

	// Wymuszamy deterministyczną kolejność pinned_at
	for i, cid := range []string{"QmListOldest", "QmListMiddle", "QmListNewest"} {
		_, err := testStore.pool.Exec(context.Background(),
			`UPDATE pins SET pinned_at = NOW() - make_interval(mins => $1) WHERE user_id = $2 AND cid = $3`,
			10-i, user.ID, cid)
		require.NoError(t, err)
	}

	// Test 1: bez filtra, najnowsze najpierw
	pins, err := testStore.ListPins(context.Background(), user.ID, "", 50)
	require.NoError(t, err)
	require.Len(t, pins, 3)
	require.Equal(t, "QmListNewest", pins[0].CID)
	require.Equal(t, "QmListOldest", pins[2].CID)

	// Test 2: wyszukiwanie bez rozróżniania wielkości liter, po nazwie pliku
	pins, err = testStore.ListPins(context.Background(), user.ID, "report", 50)
	require.NoError(t, err)
	require.Len(t, pins, 1)
	require.Equal(t, "QmListMiddle", pins[0].CID)

	// Test 3: wyszukiwanie po CID
	pins, err = testStore.ListPins(context.Background(), user.ID, "qmlistnewest", 50)
	require.NoError(t, err)
	require.Len(t, pins, 1)

	// Test 4: limit
	pins, err = testStore.ListPins(context.Background(), user.ID, "", 2)
	require.NoError(t, err)
	require.Len(t, pins, 2)

	// Test 5: brak wyników to pusta lista, nie nil
	pins, err = testStore.ListPins(context.Background(), user.ID, "no-such-file", 50)
	require.NoError(t, err)
	require.NotNil(t, pins)
	require.Len(t, pins, 0)
}

func TestDailyStorage(t *testing.T) {
	user := createTestUser(t, "daily_storage@example.com")

	commitTestPin(t, user.ID, "QmDailyToday1", "a.txt", 100, models.UploadTypePin)
	commitTestPin(t, user.ID, "QmDailyToday2", "b.txt", 200, models.UploadTypePin)
	commitTestPin(t, user.ID, "QmDailyOld", "old.txt", 999, models.UploadTypePin)

	// Przesuwamy jeden pin poza 30-dniowe okno
	_, err := testStore.pool.Exec(context.Background(),
		`UPDATE pins SET pinned_at = NOW() - INTERVAL '40 days' WHERE user_id = $1 AND cid = 'QmDailyOld'`,
		user.ID)
	require.NoError(t, err)

	usage, err := testStore.DailyStorage(context.Background(), user.ID, 30)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	require.Equal(t, int64(300), usage[0].Bytes)

	// Użytkownik bez pinów dostaje pustą serię
	emptyUser := createTestUser(t, "daily_storage_empty@example.com")
	usage, err = testStore.DailyStorage(context.Background(), emptyUser.ID, 30)
	require.NoError(t, err)
	require.NotNil(t, usage)
	require.Len(t, usage, 0)
}

func TestCountPinOutcomes(t *testing.T) {
	before, err := testStore.CountPinOutcomes(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)

	user := createTestUser(t, "pin_outcomes@example.com")
	commitTestPin(t, user.ID, "QmOutcomeActive1", "a.txt", 10, models.UploadTypePin)
	commitTestPin(t, user.ID, "QmOutcomeActive2", "b.txt", 10, models.UploadTypePin)
	commitTestPin(t, user.ID, "QmOutcomeFailed", "c.txt", 10, models.UploadTypePin)

	_, err = testStore.pool.Exec(context.Background(),
		`UPDATE pins SET status = 'failed' WHERE user_id = $1 AND cid = 'QmOutcomeFailed'`, user.ID)
	require.NoError(t, err)

	after, err := testStore.CountPinOutcomes(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, before.Total+3, after.Total)
	require.Equal(t, before.Active+2, after.Active)

	// Okno w przyszłości nie obejmuje żadnych pinów
	none, err := testStore.CountPinOutcomes(context.Background(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(0), none.Total)
	require.Equal(t, int64(0), none.Active)
}

func TestCountDashboardPins(t *testing.T) {
	user := createTestUser(t, "dashboard_counts@example.com")

	commitTestPin(t, user.ID, "QmDashUpload", "u.txt", 10, models.UploadTypeUpload)
	commitTestPin(t, user.ID, "QmDashPin1", "p1.txt", 10, models.UploadTypePin)
	commitTestPin(t, user.ID, "QmDashPin2", "p2.txt", 10, models.UploadTypePin)

	counts, err := testStore.CountDashboardPins(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), counts.TotalPins)
	require.Equal(t, int64(3), counts.TodayPins)
	require.Equal(t, int64(1), counts.UploadCount)
	require.Equal(t, int64(2), counts.PinCount)
}
