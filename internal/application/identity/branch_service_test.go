package identity

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sultan/backend/internal/domain/identity"
	"github.com/sultan/backend/internal/domain/shared"
	"github.com/sultan/backend/internal/domain/shared/access"
)

func testBranch(id int64, code string) *identity.Branch {
	now := time.Now()
	return &identity.Branch{ID: id, Name: "Branch " + code, Code: code, CreatedAt: now, UpdatedAt: now}
}

func newBranchService() (*BranchService, *MockBranchRepository, *MockIDGenerator) {
	repo := new(MockBranchRepository)
	idGen := new(MockIDGenerator)
	return NewBranchService(repo, idGen, zap.NewNop()), repo, idGen
}

func TestBranchService_Create(t *testing.T) {
	ctx := context.Background()
	req := CreateBranchRequest{IsMain: true, Name: "Head Office", Code: "hq"}

	t.Run("requires a global create grant", func(t *testing.T) {
		svc, repo, idGen := newBranchService()
		branchAdmin := access.ForUser(1, access.Permissions{}.Grant(access.Admin, access.OnBranch(5), access.AllActions))

		_, err := svc.Create(ctx, branchAdmin, req)

		assert.True(t, shared.IsForbidden(err))
		idGen.AssertNotCalled(t, "Generate")
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("creates with generated id", func(t *testing.T) {
		svc, repo, idGen := newBranchService()
		ac := access.ForUser(1, access.Permissions{}.Grant(access.Branch, access.Global, access.Create|access.Read))

		idGen.On("Generate").Return(int64(77), nil)
		repo.On("Create", ctx, int64(77), mock.MatchedBy(func(b *identity.BranchCreate) bool {
			return b.Code == "HQ" && b.IsMain
		})).Return(nil)
		repo.On("FindByID", ctx, int64(77)).Return(testBranch(77, "HQ"), nil)

		resp, err := svc.Create(ctx, ac, req)

		require.NoError(t, err)
		assert.Equal(t, int64(77), resp.ID)
		repo.AssertExpectations(t)
	})
}

func TestBranchService_ScopedOperations(t *testing.T) {
	ctx := context.Background()
	branchAdmin := access.ForUser(1, access.Permissions{}.Grant(access.Admin, access.OnBranch(5), access.Read))

	t.Run("branch admin updates own branch", func(t *testing.T) {
		svc, repo, _ := newBranchService()

		var body UpdateBranchRequest
		require.NoError(t, json.Unmarshal([]byte(`{"image":null,"phone":"021-555"}`), &body))

		repo.On("Update", ctx, int64(5), mock.MatchedBy(func(u *identity.BranchUpdate) bool {
			return u.Image.IsClear() && u.Phone.IsSet() && u.Address.IsUnchanged()
		})).Return(nil)
		repo.On("FindByID", ctx, int64(5)).Return(testBranch(5, "B5"), nil)

		_, err := svc.Update(ctx, branchAdmin, 5, body)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("branch admin cannot touch another branch", func(t *testing.T) {
		svc, repo, _ := newBranchService()

		_, err := svc.Update(ctx, branchAdmin, 1, UpdateBranchRequest{})
		assert.True(t, shared.IsForbidden(err))
		assert.Contains(t, err.Error(), "on branch 1")

		assert.True(t, shared.IsForbidden(svc.Delete(ctx, branchAdmin, 1)))
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("branch delete grant", func(t *testing.T) {
		svc, repo, _ := newBranchService()
		ac := access.ForUser(2, access.Permissions{}.Grant(access.Branch, access.OnBranch(5), access.Delete))
		repo.On("Delete", ctx, int64(5)).Return(nil)

		assert.NoError(t, svc.Delete(ctx, ac, 5))
	})

	t.Run("get by id", func(t *testing.T) {
		svc, repo, _ := newBranchService()
		repo.On("FindByID", ctx, int64(5)).Return(testBranch(5, "B5"), nil)

		resp, err := svc.GetByID(ctx, branchAdmin, 5)
		require.NoError(t, err)
		assert.Equal(t, "B5", resp.Code)

		_, err = svc.GetByID(ctx, branchAdmin, 6)
		assert.True(t, shared.IsForbidden(err))
	})
}

func TestBranchService_List(t *testing.T) {
	ctx := context.Background()
	all := []identity.Branch{*testBranch(1, "A"), *testBranch(5, "B"), *testBranch(9, "C")}

	t.Run("global read sees everything", func(t *testing.T) {
		svc, repo, _ := newBranchService()
		repo.On("FindAll", ctx).Return(all, nil)
		ac := access.ForUser(1, access.Permissions{}.Grant(access.Branch, access.Global, access.Read))

		out, err := svc.List(ctx, ac)
		require.NoError(t, err)
		assert.Len(t, out, 3)
	})

	t.Run("branch grants filter the list", func(t *testing.T) {
		svc, repo, _ := newBranchService()
		repo.On("FindAll", ctx).Return(all, nil)
		ac := access.ForUser(1, access.Permissions{}.
			Grant(access.Branch, access.OnBranch(5), access.Read).
			Grant(access.Admin, access.OnBranch(9), access.Read))

		out, err := svc.List(ctx, ac)
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, int64(5), out[0].ID)
		assert.Equal(t, int64(9), out[1].ID)
	})

	t.Run("no grant is forbidden", func(t *testing.T) {
		svc, repo, _ := newBranchService()
		repo.On("FindAll", ctx).Return(all, nil)

		_, err := svc.List(ctx, access.Empty())
		assert.True(t, shared.IsForbidden(err))
	})
}
