package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"gorm.io/gorm"

	"usersvc/internal/common"
	"usersvc/internal/models"
)

// GORMPetRepository is a GORM implementation of PetRepository.
type GORMPetRepository struct {
	db *gorm.DB
}

// NewGORMPetRepository creates a new instance of GORMPetRepository.
func NewGORMPetRepository(db *gorm.DB) *GORMPetRepository {
	return &GORMPetRepository{
		db: db,
	}
}

// FindAll retrieves all pets in insertion order.
func (r *GORMPetRepository) FindAll(ctx context.Context) ([]models.Pet, error) {
	var pets []models.Pet
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&pets).Error; err != nil {
		return nil, oops.Code("PET_FIND_ALL_FAILED").Wrap(err)
	}
	return pets, nil
}

// FindByID retrieves a single pet by its ID.
func (r *GORMPetRepository) FindByID(ctx context.Context, id string) (*models.Pet, error) {
	var pet models.Pet
	err := r.db.WithContext(ctx).First(&pet, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, oops.Code("PET_NOT_FOUND").With("id", id).Wrap(common.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PET_GET_FAILED").With("id", id).Wrap(err)
	}
	return &pet, nil
}

// ExistsByID reports whether a pet with the given ID is stored.
func (r *GORMPetRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Pet{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, oops.Code("PET_EXISTS_FAILED").With("id", id).Wrap(err)
	}
	return n > 0, nil
}

// Save inserts or replaces a pet.
func (r *GORMPetRepository) Save(ctx context.Context, pet *models.Pet) (*models.Pet, error) {
	db := r.db.WithContext(ctx)

	var err error
	if pet.ID == "" {
		pet.ID = uuid.New().String()
		err = db.Create(pet).Error
	} else {
		err = db.Omit("created_at").Save(pet).Error
	}
	if err != nil {
		return nil, oops.Code("PET_SAVE_FAILED").With("id", pet.ID).Wrap(err)
	}
	return r.FindByID(ctx, pet.ID)
}

// DeleteByID deletes a pet and clears every account reference to it.
func (r *GORMPetRepository) DeleteByID(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Account{}).Where("pet_id = ?", id).Update("pet_id", nil).Error; err != nil {
			return oops.Code("PET_UNLINK_FAILED").With("id", id).Wrap(err)
		}
		res := tx.Delete(&models.Pet{}, "id = ?", id)
		if res.Error != nil {
			return oops.Code("PET_DELETE_FAILED").With("id", id).Wrap(res.Error)
		}
		if res.RowsAffected == 0 {
			return oops.Code("PET_NOT_FOUND").With("id", id).Wrap(common.ErrNotFound)
		}
		return nil
	})
}
