package repositories

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"usersvc/internal/common"
	"usersvc/internal/models"
)

// MemoryAccountRepository is an in-memory implementation of AccountRepository.
// When built with a pet repository, reads resolve the pet reference the way
// the GORM repository preloads it; a reference to a deleted pet reads as none.
type MemoryAccountRepository struct {
	accounts map[string]models.Account
	order    []string
	pets     *MemoryPetRepository
	mu       sync.RWMutex
}

// NewMemoryAccountRepository creates a new instance of MemoryAccountRepository.
// pets may be nil.
func NewMemoryAccountRepository(pets *MemoryPetRepository) *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts: make(map[string]models.Account),
		pets:     pets,
	}
}

// FindAll returns all accounts in insertion order.
func (r *MemoryAccountRepository) FindAll(_ context.Context) ([]models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]models.Account, 0, len(r.order))
	for _, id := range r.order {
		accounts = append(accounts, r.resolve(r.accounts[id]))
	}
	return accounts, nil
}

// FindByID returns an account by its ID.
func (r *MemoryAccountRepository) FindByID(_ context.Context, id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("id", id).Wrap(common.ErrNotFound)
	}
	account = r.resolve(account)
	return &account, nil
}

// FindByUsername returns an account by its username.
func (r *MemoryAccountRepository) FindByUsername(_ context.Context, username string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if account := r.accounts[id]; account.Username == username {
			account = r.resolve(account)
			return &account, nil
		}
	}
	return nil, oops.Code("ACCOUNT_NOT_FOUND").With("username", username).Wrap(common.ErrNotFound)
}

// ExistsByID reports whether an account with the given ID is stored.
func (r *MemoryAccountRepository) ExistsByID(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.accounts[id]
	return ok, nil
}

// Save adds or replaces an account, enforcing username uniqueness.
func (r *MemoryAccountRepository) Save(_ context.Context, account *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, other := range r.accounts {
		if id != account.ID && other.Username == account.Username {
			return nil, oops.Code("ACCOUNT_USERNAME_TAKEN").With("username", account.Username).Wrap(common.ErrConflict)
		}
	}

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if _, ok := r.accounts[account.ID]; !ok {
		r.order = append(r.order, account.ID)
	}

	stored := account.Clone()
	stored.Pet = nil
	r.accounts[account.ID] = stored

	out := r.resolve(stored)
	return &out, nil
}

// DeleteByID removes an account by its ID.
func (r *MemoryAccountRepository) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[id]; !ok {
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", id).Wrap(common.ErrNotFound)
	}
	delete(r.accounts, id)
	r.order = removeID(r.order, id)
	return nil
}

// resolve returns a copy of account with its pet attached. Callers hold mu.
func (r *MemoryAccountRepository) resolve(account models.Account) models.Account {
	out := account.Clone()
	if r.pets == nil || !out.HasPet() {
		return out
	}
	if pet, ok := r.pets.lookup(*out.PetID); ok {
		out.Pet = &pet
	} else {
		out.PetID = nil
		out.Pet = nil
	}
	return out
}
