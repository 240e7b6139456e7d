package storage

import (
	"time"

	"github.com/google/uuid"

	"github.com/hojoonlee/pilltick/internal/model"
)

// MedicineRepo provides operations for Medicine entities.
type MedicineRepo struct {
	db *DB
}

// NewMedicineRepo creates a new medicine repository.
func NewMedicineRepo(db *DB) *MedicineRepo {
	return &MedicineRepo{db: db}
}

// Create creates a new medicine with a generated key.
func (r *MedicineRepo) Create(med *model.Medicine) error {
	if med.Key == "" {
		med.Key = model.GenerateMedicineKey(uuid.New().String())
	}
	if med.CreatedAt.IsZero() {
		med.CreatedAt = time.Now()
	}
	return r.db.Set(med)
}

// Get retrieves a medicine by key.
func (r *MedicineRepo) Get(key string) (*model.Medicine, error) {
	med := &model.Medicine{}
	if err := r.db.Get(key, med); err != nil {
		return nil, err
	}
	return med, nil
}

// GetByShortID retrieves a medicine whose key starts with the given short ID.
func (r *MedicineRepo) GetByShortID(shortID string) (*model.Medicine, error) {
	all, err := r.List()
	if err != nil {
		return nil, err
	}

	var matches []*model.Medicine
	for _, med := range all {
		id := med.ShortID()
		if len(shortID) <= len(id) && id[:len(shortID)] == shortID {
			matches = append(matches, med)
		}
	}

	if len(matches) == 0 {
		return nil, ErrKeyNotFound
	}
	if len(matches) > 1 {
		return nil, &AmbiguousMatchError{Matches: len(matches)}
	}
	return matches[0], nil
}

// AmbiguousMatchError is returned when multiple medicines match a short ID.
type AmbiguousMatchError struct {
	Matches int
}

func (e *AmbiguousMatchError) Error() string {
	return "multiple medicines match the given ID"
}

// Update stores changes to an existing medicine.
func (r *MedicineRepo) Update(med *model.Medicine) error {
	if med.Key == "" {
		return ErrKeyNotFound
	}
	return r.db.Set(med)
}

// Delete removes a medicine.
func (r *MedicineRepo) Delete(key string) error {
	return r.db.Delete(key)
}

// List retrieves all medicines.
func (r *MedicineRepo) List() ([]*model.Medicine, error) {
	return GetAllByPrefix(r.db, model.PrefixMedicine+":", func() *model.Medicine {
		return &model.Medicine{}
	})
}

// ListByUser retrieves all medicines owned by the given user.
func (r *MedicineRepo) ListByUser(userID string) ([]*model.Medicine, error) {
	all, err := r.List()
	if err != nil {
		return nil, err
	}

	var owned []*model.Medicine
	for _, med := range all {
		if med.UserID == userID {
			owned = append(owned, med)
		}
	}
	return owned, nil
}

// ListEnabled retrieves all enabled medicines owned by the given user.
func (r *MedicineRepo) ListEnabled(userID string) ([]*model.Medicine, error) {
	owned, err := r.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	var enabled []*model.Medicine
	for _, med := range owned {
		if med.Enabled {
			enabled = append(enabled, med)
		}
	}
	return enabled, nil
}
