package identity

import (
	"context"

	"go.uber.org/zap"

	"github.com/sultan/backend/internal/domain/identity"
	"github.com/sultan/backend/internal/domain/shared/access"
	"github.com/sultan/backend/internal/infrastructure/telemetry"
)

// LoadObserver is told how each permission load was served: "hit", "miss"
// or "none" when no cache is configured
type LoadObserver interface {
	RecordPermissionLoad(ctx context.Context, outcome string)
}

type nopObserver struct{}

func (nopObserver) RecordPermissionLoad(context.Context, string) {}

// PermissionService loads and manages per-user grants. Loads go through the
// cache; every change invalidates the user's cache entry.
type PermissionService struct {
	permissionRepo identity.PermissionRepository
	cache          identity.PermissionCache
	observer       LoadObserver
	logger         *zap.Logger
}

// NewPermissionService creates a new PermissionService. cache may be nil.
func NewPermissionService(permissionRepo identity.PermissionRepository, cache identity.PermissionCache, logger *zap.Logger) *PermissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionService{
		permissionRepo: permissionRepo,
		cache:          cache,
		observer:       nopObserver{},
		logger:         logger,
	}
}

// WithLoadObserver sets the observer of permission loads
func (s *PermissionService) WithLoadObserver(o LoadObserver) *PermissionService {
	if o != nil {
		s.observer = o
	}
	return s
}

// Load returns the permission map of a user. Cache failures are logged and
// fall back to the repository.
func (s *PermissionService) Load(ctx context.Context, userID int64) (access.Permissions, error) {
	grants, err := s.grants(ctx, userID)
	if err != nil {
		return nil, err
	}
	return identity.BuildPermissions(grants), nil
}

// ContextFor builds the access context of an authenticated user
func (s *PermissionService) ContextFor(ctx context.Context, userID int64) (*access.Context, error) {
	perms, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return access.ForUser(userID, perms), nil
}

// List returns the stored grants of a user
func (s *PermissionService) List(ctx context.Context, ac *access.Context, userID int64) ([]PermissionResponse, error) {
	if err := ac.RequireAccess(access.Global, access.User, access.Read); err != nil {
		return nil, err
	}
	grants, err := s.permissionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]PermissionResponse, len(grants))
	for i, g := range grants {
		out[i] = ToPermissionResponse(g)
	}
	return out, nil
}

// Grant stores the action mask for (user, branch, resource), replacing any
// previous mask. The caller needs USER|UPDATE on the target scope, and must
// be an admin of that scope to hand out admin grants.
func (s *PermissionService) Grant(ctx context.Context, ac *access.Context, userID int64, req GrantPermissionRequest) (*PermissionResponse, error) {
	scope := access.ScopeOf(req.BranchID)
	if err := s.requireManage(ac, scope, req.Resource); err != nil {
		return nil, err
	}

	p := identity.Permission{
		UserID:   userID,
		BranchID: req.BranchID,
		Resource: req.Resource,
		Action:   req.Action,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.permissionRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)

	granter, _ := ac.UserID()
	s.logger.Info("Permission granted",
		zap.Int64("user_id", userID),
		zap.Int64("granted_by", granter),
		zap.Stringer("scope", scope),
		zap.Stringer("resource", req.Resource),
		zap.Stringer("action", req.Action))

	resp := ToPermissionResponse(p)
	return &resp, nil
}

// Revoke removes the grant for (user, branch, resource)
func (s *PermissionService) Revoke(ctx context.Context, ac *access.Context, userID int64, req RevokePermissionRequest) error {
	scope := access.ScopeOf(req.BranchID)
	if err := s.requireManage(ac, scope, req.Resource); err != nil {
		return err
	}
	if err := s.permissionRepo.Delete(ctx, userID, scope, req.Resource); err != nil {
		return err
	}
	s.invalidate(ctx, userID)

	s.logger.Info("Permission revoked",
		zap.Int64("user_id", userID),
		zap.Stringer("scope", scope),
		zap.Stringer("resource", req.Resource))
	return nil
}

func (s *PermissionService) requireManage(ac *access.Context, scope access.Scope, resource access.Resource) error {
	if err := ac.RequireAccess(scope, access.User, access.Update); err != nil {
		return err
	}
	if resource == access.Admin || resource == access.SuperAdmin {
		return ac.RequireAccess(scope, access.Admin, access.Update)
	}
	return nil
}

func (s *PermissionService) grants(ctx context.Context, userID int64) (grants []identity.Permission, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "permission", "load", "user_id", userID)
	outcome := "none"
	defer func() {
		telemetry.SetAttributes(span, "cache", outcome)
		telemetry.RecordError(span, err)
		span.End()
		s.observer.RecordPermissionLoad(ctx, outcome)
	}()

	// cacheable stays false when the generation is unknown; the load is then
	// served from the repository without filling the cache
	var (
		generation uint64
		cacheable  bool
	)
	if s.cache != nil {
		outcome = "miss"
		cached, found, cacheErr := s.cache.Get(ctx, userID)
		switch {
		case cacheErr != nil:
			s.logger.Warn("Permission cache read failed", zap.Int64("user_id", userID), zap.Error(cacheErr))
		case found:
			outcome = "hit"
			return cached, nil
		}

		// read before the repository so a concurrent revoke voids the fill
		generation, cacheErr = s.cache.Generation(ctx, userID)
		if cacheErr != nil {
			s.logger.Warn("Permission cache generation read failed", zap.Int64("user_id", userID), zap.Error(cacheErr))
		} else {
			cacheable = true
		}
	}

	grants, err = s.permissionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if cacheable {
		stored, err := s.cache.Set(ctx, userID, generation, grants)
		switch {
		case err != nil:
			s.logger.Warn("Permission cache write failed", zap.Int64("user_id", userID), zap.Error(err))
		case !stored:
			s.logger.Debug("Permission cache fill skipped, grants changed during load", zap.Int64("user_id", userID))
		}
	}
	return grants, nil
}

func (s *PermissionService) invalidate(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("Permission cache invalidation failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}
