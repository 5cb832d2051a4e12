package identity

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sultan/backend/internal/domain/identity"
	"github.com/sultan/backend/internal/domain/shared/access"
)

// MockBranchRepository is a mock implementation of identity.BranchRepository
type MockBranchRepository struct {
	mock.Mock
}

func (m *MockBranchRepository) Create(ctx context.Context, id int64, branch *identity.BranchCreate) error {
	args := m.Called(ctx, id, branch)
	return args.Error(0)
}

func (m *MockBranchRepository) Update(ctx context.Context, id int64, branch *identity.BranchUpdate) error {
	args := m.Called(ctx, id, branch)
	return args.Error(0)
}

func (m *MockBranchRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBranchRepository) FindByID(ctx context.Context, id int64) (*identity.Branch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Branch), args.Error(1)
}

func (m *MockBranchRepository) FindAll(ctx context.Context) ([]identity.Branch, error) {
	args := m.Called(ctx)
	return args.Get(0).([]identity.Branch), args.Error(1)
}

// MockPermissionRepository is a mock implementation of identity.PermissionRepository
type MockPermissionRepository struct {
	mock.Mock
}

func (m *MockPermissionRepository) ListByUser(ctx context.Context, userID int64) ([]identity.Permission, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.Permission), args.Error(1)
}

func (m *MockPermissionRepository) Save(ctx context.Context, permission identity.Permission) error {
	args := m.Called(ctx, permission)
	return args.Error(0)
}

func (m *MockPermissionRepository) Delete(ctx context.Context, userID int64, scope access.Scope, resource access.Resource) error {
	args := m.Called(ctx, userID, scope, resource)
	return args.Error(0)
}

// MockPermissionCache is a mock implementation of identity.PermissionCache
type MockPermissionCache struct {
	mock.Mock
}

func (m *MockPermissionCache) Get(ctx context.Context, userID int64) ([]identity.Permission, bool, error) {
	args := m.Called(ctx, userID)
	var grants []identity.Permission
	if v := args.Get(0); v != nil {
		grants = v.([]identity.Permission)
	}
	return grants, args.Bool(1), args.Error(2)
}

func (m *MockPermissionCache) Generation(ctx context.Context, userID int64) (uint64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockPermissionCache) Set(ctx context.Context, userID int64, generation uint64, grants []identity.Permission) (bool, error) {
	args := m.Called(ctx, userID, generation, grants)
	return args.Bool(0), args.Error(1)
}

func (m *MockPermissionCache) Invalidate(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockIDGenerator is a mock implementation of snowflake.IDGenerator
type MockIDGenerator struct {
	mock.Mock
}

func (m *MockIDGenerator) Generate() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}
