package identity

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sultan/backend/internal/domain/identity"
	"github.com/sultan/backend/internal/domain/shared/access"
	"github.com/sultan/backend/internal/domain/shared/snowflake"
)

// BranchService handles branch management. Operations on an existing branch
// are checked against that branch, so a branch admin can manage their own
// branch without any global grant.
type BranchService struct {
	branchRepo identity.BranchRepository
	idGen      snowflake.IDGenerator
	logger     *zap.Logger
}

// NewBranchService creates a new BranchService
func NewBranchService(branchRepo identity.BranchRepository, idGen snowflake.IDGenerator, logger *zap.Logger) *BranchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BranchService{
		branchRepo: branchRepo,
		idGen:      idGen,
		logger:     logger,
	}
}

// Create creates a branch. Requires a global grant.
func (s *BranchService) Create(ctx context.Context, ac *access.Context, req CreateBranchRequest) (*BranchResponse, error) {
	if err := ac.RequireAccess(access.Global, access.Branch, access.Create); err != nil {
		return nil, err
	}

	create := req.ToDomain()
	create.Normalize()
	if err := create.Validate(); err != nil {
		return nil, err
	}

	id, err := s.idGen.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate branch id: %w", err)
	}
	if err := s.branchRepo.Create(ctx, id, create); err != nil {
		return nil, err
	}

	s.logger.Info("Branch created", zap.Int64("branch_id", id), zap.String("code", create.Code))

	return s.load(ctx, id)
}

// Update applies a partial update to a branch
func (s *BranchService) Update(ctx context.Context, ac *access.Context, id int64, req UpdateBranchRequest) (*BranchResponse, error) {
	if err := ac.RequireAccess(access.OnBranch(id), access.Branch, access.Update); err != nil {
		return nil, err
	}

	upd := req.ToDomain()
	upd.Normalize()
	if err := upd.Validate(); err != nil {
		return nil, err
	}

	if err := s.branchRepo.Update(ctx, id, upd); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Delete soft deletes a branch
func (s *BranchService) Delete(ctx context.Context, ac *access.Context, id int64) error {
	if err := ac.RequireAccess(access.OnBranch(id), access.Branch, access.Delete); err != nil {
		return err
	}
	if err := s.branchRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Branch deleted", zap.Int64("branch_id", id))
	return nil
}

// GetByID returns one branch
func (s *BranchService) GetByID(ctx context.Context, ac *access.Context, id int64) (*BranchResponse, error) {
	if err := ac.RequireAccess(access.OnBranch(id), access.Branch, access.Read); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// List returns the branches the caller may read. A global read grant sees
// every branch; otherwise only branches readable through branch-scoped
// grants are returned.
func (s *BranchService) List(ctx context.Context, ac *access.Context) ([]BranchResponse, error) {
	branches, err := s.branchRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	global := ac.HasAccess(access.Global, access.Branch, access.Read)
	out := make([]BranchResponse, 0, len(branches))
	for i := range branches {
		if global || ac.HasAccess(access.OnBranch(branches[i].ID), access.Branch, access.Read) {
			out = append(out, ToBranchResponse(&branches[i]))
		}
	}

	if len(out) == 0 && !global {
		return nil, ac.RequireAccess(access.Global, access.Branch, access.Read)
	}
	return out, nil
}

func (s *BranchService) load(ctx context.Context, id int64) (*BranchResponse, error) {
	branch, err := s.branchRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToBranchResponse(branch)
	return &resp, nil
}
