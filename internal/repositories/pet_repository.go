package repositories

import (
	"context"

	"usersvc/internal/models"
)

// PetRepository defines the interface for pet data access.
type PetRepository interface {
	FindAll(ctx context.Context) ([]models.Pet, error)
	FindByID(ctx context.Context, id string) (*models.Pet, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	Save(ctx context.Context, pet *models.Pet) (*models.Pet, error)
	DeleteByID(ctx context.Context, id string) error
}
