package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sultan/backend/internal/domain/identity"
	"github.com/sultan/backend/internal/domain/shared"
	"github.com/sultan/backend/internal/domain/shared/access"
	"github.com/sultan/backend/internal/infrastructure/cache"
)

func int64Ptr(v int64) *int64 { return &v }

func storedGrants() []identity.Permission {
	return []identity.Permission{
		{UserID: 10, Resource: access.Customer, Action: access.Read | access.Create},
		{UserID: 10, BranchID: int64Ptr(5), Resource: access.Admin, Action: access.AllActions},
	}
}

func TestPermissionService_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("cache hit skips the repository", func(t *testing.T) {
		repo := new(MockPermissionRepository)
		cache := new(MockPermissionCache)
		cache.On("Get", mock.Anything, int64(10)).Return(storedGrants(), true, nil)

		svc := NewPermissionService(repo, cache, zap.NewNop())
		perms, err := svc.Load(ctx, 10)

		require.NoError(t, err)
		ac := access.ForUser(10, perms)
		assert.True(t, ac.HasAccess(access.Global, access.Customer, access.Create))
		assert.True(t, ac.HasAccess(access.OnBranch(5), access.Branch, access.Delete))
		repo.AssertNotCalled(t, "ListByUser", mock.Anything, mock.Anything)
	})

	t.Run("cache miss loads and fills", func(t *testing.T) {
		repo := new(MockPermissionRepository)
		cache := new(MockPermissionCache)
		cache.On("Get", mock.Anything, int64(10)).Return(nil, false, nil)
		cache.On("Generation", mock.Anything, int64(10)).Return(uint64(3), nil)
		repo.On("ListByUser", mock.Anything, int64(10)).Return(storedGrants(), nil)
		cache.On("Set", mock.Anything, int64(10), uint64(3), storedGrants()).Return(true, nil)

		svc := NewPermissionService(repo, cache, zap.NewNop())
		ac, err := svc.ContextFor(ctx, 10)

		require.NoError(t, err)
		id, ok := ac.UserID()
		assert.True(t, ok)
		assert.Equal(t, int64(10), id)
		assert.True(t, ac.HasAccess(access.Global, access.Customer, access.Read))
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("cache failures fall back to the repository", func(t *testing.T) {
		repo := new(MockPermissionRepository)
		cache := new(MockPermissionCache)
		cache.On("Get", mock.Anything, int64(10)).Return(nil, false, errors.New("redis down"))
		cache.On("Generation", mock.Anything, int64(10)).Return(uint64(0), nil)
		repo.On("ListByUser", mock.Anything, int64(10)).Return(storedGrants(), nil)
		cache.On("Set", mock.Anything, int64(10), uint64(0), mock.Anything).Return(false, errors.New("redis down"))

		svc := NewPermissionService(repo, cache, zap.NewNop())
		perms, err := svc.Load(ctx, 10)

		require.NoError(t, err)
		assert.Len(t, perms, 2)
	})

	t.Run("unknown generation skips the fill", func(t *testing.T) {
		repo := new(MockPermissionRepository)
		cache := new(MockPermissionCache)
		cache.On("Get", mock.Anything, int64(10)).Return(nil, false, nil)
		cache.On("Generation", mock.Anything, int64(10)).Return(uint64(0), errors.New("redis down"))
		repo.On("ListByUser", mock.Anything, int64(10)).Return(storedGrants(), nil)

		svc := NewPermissionService(repo, cache, zap.NewNop())
		perms, err := svc.Load(ctx, 10)

		require.NoError(t, err)
		assert.Len(t, perms, 2)
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("works without a cache", func(t *testing.T) {
		repo := new(MockPermissionRepository)
		repo.On("ListByUser", mock.Anything, int64(10)).Return([]identity.Permission{}, nil)

		svc := NewPermissionService(repo, nil, nil)
		perms, err := svc.Load(ctx, 10)

		require.NoError(t, err)
		assert.Empty(t, perms)
	})

	t.Run("repository error is returned", func(t *testing.T) {
		repo := new(MockPermissionRepository)
		repo.On("ListByUser", mock.Anything, int64(10)).Return(nil, errors.New("db down"))

		svc := NewPermissionService(repo, nil, nil)
		_, err := svc.Load(ctx, 10)
		assert.Error(t, err)
	})
}

func TestPermissionService_Grant(t *testing.T) {
	ctx := context.Background()
	userManager := access.ForUser(1, access.Permissions{}.Grant(access.User, access.Global, access.Update))

	t.Run("saves and invalidates", func(t *testing.T) {
		repo := new(MockPermissionRepository)
		cache := new(MockPermissionCache)
		want := identity.Permission{UserID: 10, BranchID: int64Ptr(5), Resource: access.Product, Action: access.Read}
		repo.On("Save", ctx, want).Return(nil)
		cache.On("Invalidate", ctx, int64(10)).Return(nil)

		svc := NewPermissionService(repo, cache, zap.NewNop())
		resp, err := svc.Grant(ctx, userManager, 10, GrantPermissionRequest{
			BranchID: int64Ptr(5),
			Resource: access.Product,
			Action:   access.Read,
		})

		require.NoError(t, err)
		assert.Equal(t, "PRODUCT", resp.ResourceName)
		assert.Equal(t, "READ", resp.ActionNames)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("admin grants need an admin", func(t *testing.T) {
		repo := new(MockPermissionRepository)
		svc := NewPermissionService(repo, nil, nil)

		_, err := svc.Grant(ctx, userManager, 10, GrantPermissionRequest{Resource: access.Admin, Action: access.AllActions})

		assert.True(t, shared.IsForbidden(err))
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("branch admin grants admin on own branch", func(t *testing.T) {
		repo := new(MockPermissionRepository)
		repo.On("Save", ctx, mock.Anything).Return(nil)
		branchAdmin := access.ForUser(2, access.Permissions{}.Grant(access.Admin, access.OnBranch(5), access.AllActions))

		svc := NewPermissionService(repo, nil, nil)
		_, err := svc.Grant(ctx, branchAdmin, 10, GrantPermissionRequest{
			BranchID: int64Ptr(5), Resource: access.Admin, Action: access.AllActions,
		})
		require.NoError(t, err)

		_, err = svc.Grant(ctx, branchAdmin, 10, GrantPermissionRequest{Resource: access.Customer, Action: access.Read})
		assert.True(t, shared.IsForbidden(err), "global grants are out of reach for a branch admin")
	})

	t.Run("invalid action mask", func(t *testing.T) {
		repo := new(MockPermissionRepository)
		svc := NewPermissionService(repo, nil, nil)

		_, err := svc.Grant(ctx, userManager, 10, GrantPermissionRequest{Resource: access.Product, Action: 64})

		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "INVALID_ACTION", de.Code)
	})
}

func TestPermissionService_Revoke(t *testing.T) {
	ctx := context.Background()
	userManager := access.ForUser(1, access.Permissions{}.Grant(access.User, access.Global, access.Update))

	t.Run("deletes and invalidates", func(t *testing.T) {
		repo := new(MockPermissionRepository)
		cache := new(MockPermissionCache)
		repo.On("Delete", ctx, int64(10), access.Global, access.Customer).Return(nil)
		cache.On("Invalidate", ctx, int64(10)).Return(nil)

		svc := NewPermissionService(repo, cache, zap.NewNop())
		err := svc.Revoke(ctx, userManager, 10, RevokePermissionRequest{Resource: access.Customer})

		require.NoError(t, err)
		cache.AssertExpectations(t)
	})

	t.Run("missing grant", func(t *testing.T) {
		repo := new(MockPermissionRepository)
		cache := new(MockPermissionCache)
		repo.On("Delete", ctx, int64(10), access.OnBranch(3), access.Customer).Return(shared.ErrNotFound)

		svc := NewPermissionService(repo, cache, nil)
		err := svc.Revoke(ctx, userManager, 10, RevokePermissionRequest{BranchID: int64Ptr(3), Resource: access.Customer})

		assert.True(t, shared.IsNotFound(err))
		cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
	})
}

func TestPermissionService_List(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPermissionRepository)
	repo.On("ListByUser", ctx, int64(10)).Return(storedGrants(), nil)
	svc := NewPermissionService(repo, nil, nil)

	_, err := svc.List(ctx, access.Empty(), 10)
	assert.True(t, shared.IsForbidden(err))

	reader := access.ForUser(1, access.Permissions{}.Grant(access.User, access.Global, access.Read))
	out, err := svc.List(ctx, reader, 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "CREATE|READ", out[0].ActionNames)
	assert.Equal(t, int64(5), *out[1].BranchID)
}

type recordingObserver struct {
	outcomes []string
}

func (o *recordingObserver) RecordPermissionLoad(_ context.Context, outcome string) {
	o.outcomes = append(o.outcomes, outcome)
}

func TestPermissionService_LoadObserver(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPermissionRepository)
	cache := new(MockPermissionCache)
	cache.On("Get", mock.Anything, int64(10)).Return(nil, false, nil).Once()
	cache.On("Get", mock.Anything, int64(10)).Return(storedGrants(), true, nil).Once()
	cache.On("Generation", mock.Anything, int64(10)).Return(uint64(0), nil)
	cache.On("Set", mock.Anything, int64(10), uint64(0), mock.Anything).Return(true, nil)
	repo.On("ListByUser", mock.Anything, int64(10)).Return(storedGrants(), nil)

	obs := &recordingObserver{}
	svc := NewPermissionService(repo, cache, nil).WithLoadObserver(obs)

	_, err := svc.Load(ctx, 10)
	require.NoError(t, err)
	_, err = svc.Load(ctx, 10)
	require.NoError(t, err)

	bare := NewPermissionService(repo, nil, nil).WithLoadObserver(obs)
	_, err = bare.Load(ctx, 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"miss", "hit", "none"}, obs.outcomes)
}

// gatedRepository holds ListByUser after it has taken its snapshot until
// release is closed. Only the first call is held.
type gatedRepository struct {
	mu      sync.Mutex
	grants  []identity.Permission
	held    bool
	read    chan struct{}
	release chan struct{}
}

func newGatedRepository(grants ...identity.Permission) *gatedRepository {
	return &gatedRepository{grants: grants, read: make(chan struct{}), release: make(chan struct{})}
}

func (r *gatedRepository) ListByUser(_ context.Context, userID int64) ([]identity.Permission, error) {
	r.mu.Lock()
	var snapshot []identity.Permission
	for _, g := range r.grants {
		if g.UserID == userID {
			snapshot = append(snapshot, g)
		}
	}
	hold := !r.held
	r.held = true
	r.mu.Unlock()

	if hold {
		close(r.read)
		<-r.release
	}
	return snapshot, nil
}

func (r *gatedRepository) Save(_ context.Context, p identity.Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grants = append(r.grants, p)
	return nil
}

func (r *gatedRepository) Delete(_ context.Context, userID int64, scope access.Scope, resource access.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.grants[:0]
	for _, g := range r.grants {
		if g.UserID == userID && g.Scope() == scope && g.Resource == resource {
			continue
		}
		kept = append(kept, g)
	}
	r.grants = kept
	return nil
}

func TestPermissionService_RevokeDuringLoad(t *testing.T) {
	ctx := context.Background()
	repo := newGatedRepository(identity.Permission{UserID: 9, Resource: access.Customer, Action: access.AllActions})
	permCache := cache.NewInMemoryPermissionCache(time.Minute)
	defer permCache.Close()
	svc := NewPermissionService(repo, permCache, nil)

	loaded := make(chan error, 1)
	go func() {
		_, err := svc.Load(ctx, 9)
		loaded <- err
	}()
	<-repo.read

	userManager := access.ForUser(1, access.Permissions{}.Grant(access.User, access.Global, access.Update))
	require.NoError(t, svc.Revoke(ctx, userManager, 9, RevokePermissionRequest{Resource: access.Customer}))
	close(repo.release)
	require.NoError(t, <-loaded)

	ac, err := svc.ContextFor(ctx, 9)
	require.NoError(t, err)
	assert.False(t, ac.HasAccess(access.Global, access.Customer, access.Delete),
		"the load that started before the revoke must not cache the old grant")

	grants, found, err := permCache.Get(ctx, 9)
	require.NoError(t, err)
	assert.True(t, found, "the load after the revoke fills the cache")
	assert.Empty(t, grants)
}
