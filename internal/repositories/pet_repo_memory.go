package repositories

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"usersvc/internal/common"
	"usersvc/internal/models"
)

// MemoryPetRepository is an in-memory implementation of PetRepository.
type MemoryPetRepository struct {
	pets  map[string]models.Pet
	order []string
	mu    sync.RWMutex
}

// NewMemoryPetRepository creates a new instance of MemoryPetRepository.
func NewMemoryPetRepository() *MemoryPetRepository {
	return &MemoryPetRepository{
		pets: make(map[string]models.Pet),
	}
}

// FindAll returns all pets in insertion order.
func (r *MemoryPetRepository) FindAll(_ context.Context) ([]models.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pets := make([]models.Pet, 0, len(r.order))
	for _, id := range r.order {
		pets = append(pets, r.pets[id].Clone())
	}
	return pets, nil
}

// FindByID returns a pet by its ID.
func (r *MemoryPetRepository) FindByID(_ context.Context, id string) (*models.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pet, ok := r.pets[id]
	if !ok {
		return nil, oops.Code("PET_NOT_FOUND").With("id", id).Wrap(common.ErrNotFound)
	}
	pet = pet.Clone()
	return &pet, nil
}

// ExistsByID reports whether a pet with the given ID is stored.
func (r *MemoryPetRepository) ExistsByID(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.pets[id]
	return ok, nil
}

// Save adds or replaces a pet.
func (r *MemoryPetRepository) Save(_ context.Context, pet *models.Pet) (*models.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pet.ID == "" {
		pet.ID = uuid.New().String()
	}
	if _, ok := r.pets[pet.ID]; !ok {
		r.order = append(r.order, pet.ID)
	}
	r.pets[pet.ID] = pet.Clone()

	stored := pet.Clone()
	return &stored, nil
}

// DeleteByID removes a pet by its ID.
func (r *MemoryPetRepository) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pets[id]; !ok {
		return oops.Code("PET_NOT_FOUND").With("id", id).Wrap(common.ErrNotFound)
	}
	delete(r.pets, id)
	r.order = removeID(r.order, id)
	return nil
}

// lookup returns a copy of the pet without taking part in the repository
// interface; accounts use it to resolve their reference.
func (r *MemoryPetRepository) lookup(id string) (models.Pet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pet, ok := r.pets[id]
	if !ok {
		return models.Pet{}, false
	}
	return pet.Clone(), true
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
