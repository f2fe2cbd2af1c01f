package repositories

import (
	"context"

	"usersvc/internal/models"
)

// AccountRepository defines the interface for account data access.
// Lookups of absent records fail with common.ErrNotFound and username
// collisions on Save fail with common.ErrConflict.
type AccountRepository interface {
	FindAll(ctx context.Context) ([]models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	// Save inserts the account, assigning an id when empty, or replaces the
	// stored account with the same id. It returns the stored form.
	Save(ctx context.Context, account *models.Account) (*models.Account, error)
	DeleteByID(ctx context.Context, id string) error
}
