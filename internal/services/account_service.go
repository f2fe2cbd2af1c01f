package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/samber/oops"

	"usersvc/internal/cache"
	"usersvc/internal/common"
	"usersvc/internal/models"
	"usersvc/internal/repositories"
	"usersvc/internal/security"
	"usersvc/internal/validation"
	"usersvc/pkg/rabbitmq"
)

// Defaults for the bootstrap administrator.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "password"
)

// EventPublisher receives account lifecycle events after a write commits.
type EventPublisher interface {
	PublishAccountEvent(ctx context.Context, ev rabbitmq.AccountEvent) error
}

// ListFilter selects and orders accounts for ListAccounts.
type ListFilter struct {
	// Name keeps accounts whose first or last name starts with it.
	Name           string
	SortByBirthday bool
}

// SearchFilter selects and orders accounts for SearchAccounts. Empty
// strings and a nil HasPet do not filter.
type SearchFilter struct {
	Firstname      string
	Lastname       string
	HasPet         *bool
	SortByBirthday bool
}

// AccountOption configures an AccountService.
type AccountOption func(*AccountService)

// WithPublisher sends lifecycle events to p.
func WithPublisher(p EventPublisher) AccountOption {
	return func(s *AccountService) { s.events = p }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) AccountOption {
	return func(s *AccountService) { s.logger = l }
}

// WithAdmin overrides the bootstrap administrator credentials.
func WithAdmin(username, password string) AccountOption {
	return func(s *AccountService) {
		s.adminUsername = username
		s.adminPassword = password
	}
}

// AccountService handles business logic for the account directory.
type AccountService struct {
	repo      repositories.AccountRepository
	pets      repositories.PetRepository
	cache     *cache.DirectoryCache
	gate      *security.Gate
	hasher    security.Hasher
	validator *validation.Validator
	events    EventPublisher
	logger    *slog.Logger

	adminUsername string
	adminPassword string
	bootstrapMu   sync.Mutex
}

// NewAccountService creates a new AccountService. pets may be nil, in which
// case pet references are not checked on write.
func NewAccountService(
	repo repositories.AccountRepository,
	pets repositories.PetRepository,
	directory *cache.DirectoryCache,
	gate *security.Gate,
	hasher security.Hasher,
	v *validation.Validator,
	opts ...AccountOption,
) *AccountService {
	s := &AccountService{
		repo:          repo,
		pets:          pets,
		cache:         directory,
		gate:          gate,
		hasher:        hasher,
		validator:     v,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		adminUsername: DefaultAdminUsername,
		adminPassword: DefaultAdminPassword,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BootstrapAdmin creates the default administrator unless some account
// already holds the ADMIN role. It is safe to call repeatedly.
func (s *AccountService) BootstrapAdmin(ctx context.Context) error {
	s.bootstrapMu.Lock()
	defer s.bootstrapMu.Unlock()

	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return err
	}
	for _, a := range all {
		if a.Roles.Has(models.RoleAdmin) {
			return nil
		}
	}

	digest, err := s.hasher.Hash(s.adminPassword)
	if err != nil {
		return err
	}
	admin := &models.Account{
		Firstname: "Admin",
		Lastname:  "Account",
		Birthday:  models.NewDate(1970, 1, 1),
		Username:  s.adminUsername,
		Secret:    digest,
		Roles:     models.NewRoleSet(models.RoleAdmin),
	}
	saved, err := s.repo.Save(ctx, admin)
	if errors.Is(err, common.ErrConflict) {
		// Another process may have created it first; only an administrator
		// holding the name counts as done.
		holder, findErr := s.repo.FindByUsername(ctx, s.adminUsername)
		if findErr == nil && holder.Roles.Has(models.RoleAdmin) {
			return nil
		}
		s.logger.Error("bootstrap username held by a non-admin account", "username", s.adminUsername)
		return oops.Code("BOOTSTRAP_FAILED").With("username", s.adminUsername).Wrap(err)
	}
	if err != nil {
		return oops.Code("BOOTSTRAP_FAILED").With("username", s.adminUsername).Wrap(err)
	}

	s.cache.PutRecord(*saved)
	s.logger.Info("bootstrap administrator created", "username", saved.Username, "id", saved.ID)
	s.publish(ctx, rabbitmq.EventAccountCreated, saved)
	return nil
}

// ListAccounts returns the accounts matching f, served from the listing
// cache when the same filter was answered before.
func (s *AccountService) ListAccounts(ctx context.Context, f ListFilter) ([]models.Account, error) {
	if err := s.gate.Require(ctx, security.ResourceAccount, security.ActionList, security.Target{}); err != nil {
		return nil, err
	}

	key := cache.ListKey{Name: f.Name, SortByBirthday: f.SortByBirthday}
	if accounts, ok := s.cache.Listing(key); ok {
		return accounts, nil
	}
	s.logger.Debug("account listing cache miss", "name", f.Name, "sort", f.SortByBirthday)

	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	accounts := filterAccounts(all, func(a models.Account) bool {
		return f.Name == "" || strings.HasPrefix(a.Firstname, f.Name) || strings.HasPrefix(a.Lastname, f.Name)
	})
	if f.SortByBirthday {
		sortByBirthday(accounts)
	}

	s.cache.PutListing(key, accounts)
	return accounts, nil
}

// SearchAccounts returns the accounts matching f. Results are not cached.
func (s *AccountService) SearchAccounts(ctx context.Context, f SearchFilter) ([]models.Account, error) {
	if err := s.gate.Require(ctx, security.ResourceAccount, security.ActionList, security.Target{}); err != nil {
		return nil, err
	}

	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	accounts := filterAccounts(all, func(a models.Account) bool {
		if !strings.Contains(a.Firstname, f.Firstname) || !strings.Contains(a.Lastname, f.Lastname) {
			return false
		}
		return f.HasPet == nil || *f.HasPet == a.HasPet()
	})
	if f.SortByBirthday {
		sortByBirthday(accounts)
	}
	return accounts, nil
}

// GetAccount returns the account with the given id.
func (s *AccountService) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	if err := s.gate.Require(ctx, security.ResourceAccount, security.ActionGet, security.Target{}); err != nil {
		return nil, err
	}

	if account, ok := s.cache.Record(id); ok {
		return &account, nil
	}
	s.logger.Debug("account record cache miss", "id", id)

	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.PutRecord(*account)
	return account, nil
}

// GetAccountByUsername reads the store directly. It is not gated because
// credential checks need it before a caller exists.
func (s *AccountService) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.repo.FindByUsername(ctx, username)
}

// CreateAccount validates, hashes and stores a new account.
func (s *AccountService) CreateAccount(ctx context.Context, req models.AccountRequest) (*models.Account, error) {
	if err := s.gate.Require(ctx, security.ResourceAccount, security.ActionCreate, security.Target{}); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	account := req.ToAccount()
	account.ID = ""
	digest, err := s.hasher.Hash(account.Secret)
	if err != nil {
		return nil, err
	}
	account.Secret = digest

	saved, err := s.repo.Save(ctx, &account)
	if err != nil {
		return nil, err
	}

	s.cache.PutRecord(*saved)
	s.logger.Info("account created", "id", saved.ID, "username", saved.Username)
	s.publish(ctx, rabbitmq.EventAccountCreated, saved)
	return saved, nil
}

// UpdateAccount replaces the account stored under id. Administrators may
// update any account; other callers only their own, and their roles are
// kept as stored.
func (s *AccountService) UpdateAccount(ctx context.Context, id string, req models.AccountRequest) (*models.Account, error) {
	stored, err := s.repo.FindByID(ctx, id)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	var target security.Target
	if stored != nil {
		target.Username = stored.Username
	}
	caller, err := s.gate.RequireCaller(ctx, security.ResourceAccount, security.ActionUpdate, target)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("id", id).Wrap(common.ErrNotFound)
	}
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	account := req.ToAccount()
	account.ID = id
	account.CreatedAt = stored.CreatedAt
	if !caller.IsAdmin() {
		account.Roles = stored.Roles.Clone()
	}
	digest, err := s.hasher.Hash(account.Secret)
	if err != nil {
		return nil, err
	}
	account.Secret = digest

	saved, err := s.repo.Save(ctx, &account)
	if err != nil {
		return nil, err
	}

	s.cache.PutRecord(*saved)
	s.logger.Info("account updated", "id", saved.ID, "username", saved.Username)
	s.publish(ctx, rabbitmq.EventAccountUpdated, saved)
	return saved, nil
}

// DeleteAccount removes the account with the given id. Deleting an absent
// account fails with common.ErrNotFound.
func (s *AccountService) DeleteAccount(ctx context.Context, id string) error {
	if err := s.gate.Require(ctx, security.ResourceAccount, security.ActionDelete, security.Target{}); err != nil {
		return err
	}

	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", id).Wrap(common.ErrNotFound)
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}

	s.cache.EvictRecord(id)
	s.logger.Info("account deleted", "id", id)
	s.publish(ctx, rabbitmq.EventAccountDeleted, &models.Account{ID: id})
	return nil
}

// validate checks the request fields and that a referenced pet exists.
func (s *AccountService) validate(ctx context.Context, req models.AccountRequest) error {
	if err := s.validator.Account(req); err != nil {
		return err
	}
	if s.pets == nil || req.PetID == nil || *req.PetID == "" {
		return nil
	}
	ok, err := s.pets.ExistsByID(ctx, *req.PetID)
	if err != nil {
		return err
	}
	if !ok {
		return &common.ValidationError{Fields: []common.FieldError{{
			Field:         "petId",
			Message:       "Pet does not exist",
			RejectedValue: *req.PetID,
		}}}
	}
	return nil
}

// publish emits a lifecycle event. Delivery failures are logged only; the
// write they describe has already committed.
func (s *AccountService) publish(ctx context.Context, eventType string, account *models.Account) {
	if s.events == nil {
		return
	}
	ev := rabbitmq.NewAccountEvent(eventType, account.ID, account.Username)
	if err := s.events.PublishAccountEvent(ctx, ev); err != nil {
		s.logger.Warn("account event not published", "type", eventType, "id", account.ID, "error", err)
	}
}

func filterAccounts(in []models.Account, keep func(models.Account) bool) []models.Account {
	out := make([]models.Account, 0, len(in))
	for _, a := range in {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// sortByBirthday orders accounts by ascending birthday, keeping store order
// for equal dates.
func sortByBirthday(accounts []models.Account) {
	slices.SortStableFunc(accounts, func(a, b models.Account) int {
		return a.Birthday.Compare(b.Birthday.Time)
	})
}
