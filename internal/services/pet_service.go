package services

import (
	"context"

	"github.com/samber/oops"

	"usersvc/internal/common"
	"usersvc/internal/models"
	"usersvc/internal/repositories"
	"usersvc/internal/security"
	"usersvc/internal/validation"
)

// PetService handles business logic related to pets.
type PetService struct {
	repo      repositories.PetRepository
	gate      *security.Gate
	validator *validation.Validator
}

// NewPetService creates a new PetService.
func NewPetService(repo repositories.PetRepository, gate *security.Gate, v *validation.Validator) *PetService {
	return &PetService{
		repo:      repo,
		gate:      gate,
		validator: v,
	}
}

// ListPets retrieves all pets.
func (s *PetService) ListPets(ctx context.Context) ([]models.Pet, error) {
	if err := s.gate.Require(ctx, security.ResourcePet, security.ActionList, security.Target{}); err != nil {
		return nil, err
	}
	return s.repo.FindAll(ctx)
}

// GetPet retrieves a single pet by its ID.
func (s *PetService) GetPet(ctx context.Context, id string) (*models.Pet, error) {
	if err := s.gate.Require(ctx, security.ResourcePet, security.ActionGet, security.Target{}); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// CreatePet creates a new pet.
func (s *PetService) CreatePet(ctx context.Context, req models.PetRequest) (*models.Pet, error) {
	if err := s.gate.Require(ctx, security.ResourcePet, security.ActionCreate, security.Target{}); err != nil {
		return nil, err
	}
	if err := s.validator.Pet(req); err != nil {
		return nil, err
	}
	pet := req.ToPet()
	pet.ID = ""
	return s.repo.Save(ctx, &pet)
}

// UpdatePet replaces the pet stored under id.
func (s *PetService) UpdatePet(ctx context.Context, id string, req models.PetRequest) (*models.Pet, error) {
	if err := s.gate.Require(ctx, security.ResourcePet, security.ActionUpdate, security.Target{}); err != nil {
		return nil, err
	}
	stored, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Pet(req); err != nil {
		return nil, err
	}
	pet := req.ToPet()
	pet.ID = id
	pet.CreatedAt = stored.CreatedAt
	return s.repo.Save(ctx, &pet)
}

// DeletePet deletes a pet by its ID. Accounts referencing it lose the
// reference.
func (s *PetService) DeletePet(ctx context.Context, id string) error {
	if err := s.gate.Require(ctx, security.ResourcePet, security.ActionDelete, security.Target{}); err != nil {
		return err
	}
	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return oops.Code("PET_NOT_FOUND").With("id", id).Wrap(common.ErrNotFound)
	}
	return s.repo.DeleteByID(ctx, id)
}
