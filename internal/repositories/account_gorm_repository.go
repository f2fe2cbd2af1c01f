package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"usersvc/internal/common"
	"usersvc/internal/models"
)

// GORMAccountRepository is a GORM implementation of AccountRepository.
// The gorm.DB must be opened with TranslateError so unique violations
// surface as gorm.ErrDuplicatedKey.
type GORMAccountRepository struct {
	db *gorm.DB
}

// NewGORMAccountRepository creates a new instance of GORMAccountRepository.
func NewGORMAccountRepository(db *gorm.DB) *GORMAccountRepository {
	return &GORMAccountRepository{
		db: db,
	}
}

// FindAll retrieves all accounts in insertion order.
func (r *GORMAccountRepository) FindAll(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.WithContext(ctx).Preload("Pet").Order("created_at, id").Find(&accounts).Error
	if err != nil {
		return nil, oops.Code("ACCOUNT_FIND_ALL_FAILED").Wrap(err)
	}
	return accounts, nil
}

// FindByID retrieves a single account by its ID.
func (r *GORMAccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByUsername retrieves a single account by its username.
func (r *GORMAccountRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *GORMAccountRepository) first(ctx context.Context, query string, arg string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).Preload("Pet").First(&account, query, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("query", query).With("arg", arg).Wrap(common.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").With("query", query).With("arg", arg).Wrap(err)
	}
	return &account, nil
}

// ExistsByID reports whether an account with the given ID is stored.
func (r *GORMAccountRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, oops.Code("ACCOUNT_EXISTS_FAILED").With("id", id).Wrap(err)
	}
	return n > 0, nil
}

// Save inserts or replaces an account. The referenced pet is linked by id
// only; pets are never written through an account.
func (r *GORMAccountRepository) Save(ctx context.Context, account *models.Account) (*models.Account, error) {
	db := r.db.WithContext(ctx)

	var err error
	if account.ID == "" {
		account.ID = uuid.New().String()
		err = db.Omit(clause.Associations).Create(account).Error
	} else {
		// Save falls back to an insert when no row matches the id.
		err = db.Omit(clause.Associations, "created_at").Save(account).Error
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, oops.Code("ACCOUNT_USERNAME_TAKEN").With("username", account.Username).Wrap(common.ErrConflict)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_SAVE_FAILED").With("id", account.ID).Wrap(err)
	}
	return r.FindByID(ctx, account.ID)
}

// DeleteByID deletes an account by its ID. The referenced pet is kept.
func (r *GORMAccountRepository) DeleteByID(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Account{}, "id = ?", id)
	if res.Error != nil {
		return oops.Code("ACCOUNT_DELETE_FAILED").With("id", id).Wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", id).Wrap(common.ErrNotFound)
	}
	return nil
}
