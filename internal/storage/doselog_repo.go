package storage

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hojoonlee/pilltick/internal/model"
)

// DoseLogRepo provides operations for DoseLog entities.
type DoseLogRepo struct {
	db *DB
}

// NewDoseLogRepo creates a new dose log repository.
func NewDoseLogRepo(db *DB) *DoseLogRepo {
	return &DoseLogRepo{db: db}
}

// Record stores a completed dose with a generated key.
func (r *DoseLogRepo) Record(entry *model.DoseLog) error {
	if entry.Key == "" {
		entry.Key = model.GenerateDoseLogKey(uuid.New().String())
	}
	if entry.TakenAt.IsZero() {
		entry.TakenAt = time.Now()
	}
	return r.db.Set(entry)
}

// List retrieves all dose logs for the given user, oldest first.
func (r *DoseLogRepo) List(userID string) ([]*model.DoseLog, error) {
	all, err := GetAllByPrefix(r.db, model.PrefixDoseLog+":", func() *model.DoseLog {
		return &model.DoseLog{}
	})
	if err != nil {
		return nil, err
	}

	var owned []*model.DoseLog
	for _, entry := range all {
		if entry.UserID == userID {
			owned = append(owned, entry)
		}
	}

	sort.Slice(owned, func(i, j int) bool {
		return owned[i].TakenAt.Before(owned[j].TakenAt)
	})
	return owned, nil
}

// ListToday retrieves the user's dose logs taken on the current calendar day.
func (r *DoseLogRepo) ListToday(userID string) ([]*model.DoseLog, error) {
	return r.ListOn(userID, time.Now())
}

// ListOn retrieves the user's dose logs taken on the given calendar day.
func (r *DoseLogRepo) ListOn(userID string, day time.Time) ([]*model.DoseLog, error) {
	owned, err := r.List(userID)
	if err != nil {
		return nil, err
	}

	var logs []*model.DoseLog
	for _, entry := range owned {
		if entry.IsOn(day) {
			logs = append(logs, entry)
		}
	}
	return logs, nil
}
