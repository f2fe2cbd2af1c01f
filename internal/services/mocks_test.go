package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"usersvc/internal/models"
	"usersvc/pkg/rabbitmq"
)

// MockAccountRepository is a mock implementation of repositories.AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindAll(ctx context.Context) ([]models.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// Save returns its argument unless the expectation supplies an account.
func (m *MockAccountRepository) Save(ctx context.Context, account *models.Account) (*models.Account, error) {
	args := m.Called(ctx, account)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	if saved, ok := args.Get(0).(*models.Account); ok {
		return saved, nil
	}
	out := account.Clone()
	return &out, nil
}

func (m *MockAccountRepository) DeleteByID(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockPetRepository is a mock implementation of repositories.PetRepository.
type MockPetRepository struct {
	mock.Mock
}

func (m *MockPetRepository) FindAll(ctx context.Context) ([]models.Pet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Pet), args.Error(1)
}

func (m *MockPetRepository) FindByID(ctx context.Context, id string) (*models.Pet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pet), args.Error(1)
}

func (m *MockPetRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockPetRepository) Save(ctx context.Context, pet *models.Pet) (*models.Pet, error) {
	args := m.Called(ctx, pet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pet), args.Error(1)
}

func (m *MockPetRepository) DeleteByID(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockPublisher records published account events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishAccountEvent(ctx context.Context, ev rabbitmq.AccountEvent) error {
	return m.Called(ctx, ev).Error(0)
}
