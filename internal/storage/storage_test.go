package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hojoonlee/pilltick/internal/model"
)

func setupTestDB(t *testing.T) *DB {
	db, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMedicineRepoCRUD(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMedicineRepo(db)

	med := model.NewMedicine("user-1", "Aspirin", []string{"08:00", "20:00"}, nil)
	require.NoError(t, repo.Create(med))
	assert.NotEmpty(t, med.Key)

	got, err := repo.Get(med.Key)
	require.NoError(t, err)
	assert.Equal(t, "Aspirin", got.Name)
	assert.Equal(t, []string{"08:00", "20:00"}, got.Times)
	assert.True(t, got.Enabled)

	got.Enabled = false
	require.NoError(t, repo.Update(got))

	updated, err := repo.Get(med.Key)
	require.NoError(t, err)
	assert.False(t, updated.Enabled)

	require.NoError(t, repo.Delete(med.Key))
	_, err = repo.Get(med.Key)
	assert.True(t, IsErrKeyNotFound(err))
}

func TestMedicineRepoListEnabledFiltersByUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMedicineRepo(db)

	mine := model.NewMedicine("user-1", "Mine", []string{"08:00"}, nil)
	require.NoError(t, repo.Create(mine))

	off := model.NewMedicine("user-1", "Off", []string{"09:00"}, nil)
	off.Enabled = false
	require.NoError(t, repo.Create(off))

	theirs := model.NewMedicine("user-2", "Theirs", []string{"10:00"}, nil)
	require.NoError(t, repo.Create(theirs))

	enabled, err := repo.ListEnabled("user-1")
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, "Mine", enabled[0].Name)
}

func TestMedicineRepoGetByShortID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMedicineRepo(db)

	med := model.NewMedicine("user-1", "Aspirin", []string{"08:00"}, nil)
	require.NoError(t, repo.Create(med))

	got, err := repo.GetByShortID(med.ShortID())
	require.NoError(t, err)
	assert.Equal(t, med.Key, got.Key)

	_, err = repo.GetByShortID("zzzzzz")
	assert.True(t, IsErrKeyNotFound(err))
}

func TestDoseLogRepoListToday(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDoseLogRepo(db)

	today := model.NewDoseLog("user-1", "Aspirin", "08:00")
	require.NoError(t, repo.Record(today))

	yesterday := model.NewDoseLog("user-1", "Aspirin", "08:00")
	yesterday.TakenAt = time.Now().AddDate(0, 0, -1)
	require.NoError(t, repo.Record(yesterday))

	other := model.NewDoseLog("user-2", "Theirs", "09:00")
	require.NoError(t, repo.Record(other))

	logs, err := repo.ListToday("user-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Aspirin", logs[0].MedicineName)
	assert.Equal(t, "08:00", logs[0].ScheduledTime)
}

func TestSubscriptionRepoUpsertByEndpoint(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubscriptionRepo(db)

	sub := &model.PushSubscription{
		UserID:    "user-1",
		Endpoint:  "https://push.example/abc",
		P256dhKey: "p256dh-1",
		AuthKey:   "auth-1",
	}
	require.NoError(t, repo.Save(sub))
	firstKey := sub.Key

	// Same endpoint again updates in place.
	renewed := &model.PushSubscription{
		UserID:    "user-1",
		Endpoint:  "https://push.example/abc",
		P256dhKey: "p256dh-2",
		AuthKey:   "auth-2",
	}
	require.NoError(t, repo.Save(renewed))
	assert.Equal(t, firstKey, renewed.Key)

	subs, err := repo.ListByUser("user-1")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "p256dh-2", subs[0].P256dhKey)
}

func TestSubscriptionRepoDeleteByEndpoint(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubscriptionRepo(db)

	sub := &model.PushSubscription{UserID: "user-1", Endpoint: "https://push.example/abc"}
	require.NoError(t, repo.Save(sub))

	require.NoError(t, repo.DeleteByEndpoint("user-1", "https://push.example/abc"))

	subs, err := repo.ListByUser("user-1")
	require.NoError(t, err)
	assert.Empty(t, subs)

	// Deleting an unknown endpoint is not an error.
	require.NoError(t, repo.DeleteByEndpoint("user-1", "https://push.example/gone"))
}

func TestMedicineCacheTTL(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMedicineRepo(db)

	med := model.NewMedicine("user-1", "Aspirin", []string{"08:00"}, nil)
	require.NoError(t, repo.Create(med))

	cache := NewMedicineCache(repo, 30*time.Second)
	current := time.Now()
	cache.now = func() time.Time { return current }

	first, err := cache.List("user-1")
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A new medicine is invisible while the cache is fresh.
	require.NoError(t, repo.Create(model.NewMedicine("user-1", "Second", []string{"09:00"}, nil)))

	cached, err := cache.List("user-1")
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	// After the TTL elapses the list is refetched.
	current = current.Add(time.Minute)
	fresh, err := cache.List("user-1")
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
}

func TestMedicineCacheInvalidate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMedicineRepo(db)
	cache := NewMedicineCache(repo, time.Hour)

	_, err := cache.List("user-1")
	require.NoError(t, err)

	require.NoError(t, repo.Create(model.NewMedicine("user-1", "Aspirin", []string{"08:00"}, nil)))
	cache.Invalidate()

	fresh, err := cache.List("user-1")
	require.NoError(t, err)
	assert.Len(t, fresh, 1)
}

func TestDBSize(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMedicineRepo(db)
	require.NoError(t, repo.Create(model.NewMedicine("user-1", "Aspirin", []string{"08:00"}, nil)))

	lsm, vlog := db.Size()
	assert.GreaterOrEqual(t, lsm, int64(0))
	assert.GreaterOrEqual(t, vlog, int64(0))
}
