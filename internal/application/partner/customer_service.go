package partner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sultan/backend/internal/domain/partner"
	"github.com/sultan/backend/internal/domain/shared"
	"github.com/sultan/backend/internal/domain/shared/access"
	"github.com/sultan/backend/internal/domain/shared/snowflake"
)

// CustomerService handles customer-related business operations. Customers
// are not branch scoped, so every check is made against the global scope.
type CustomerService struct {
	customerRepo partner.CustomerRepository
	idGen        snowflake.IDGenerator
	logger       *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo partner.CustomerRepository, idGen snowflake.IDGenerator, logger *zap.Logger) *CustomerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{
		customerRepo: customerRepo,
		idGen:        idGen,
		logger:       logger,
	}
}

func (s *CustomerService) require(ac *access.Context, action access.Action) error {
	if err := ac.RequireAccess(access.Global, access.Customer, action); err != nil {
		userID, _ := ac.UserID()
		s.logger.Debug("Customer access denied",
			zap.Int64("user_id", userID),
			zap.Stringer("action", action))
		return err
	}
	return nil
}

// Create creates a new customer
func (s *CustomerService) Create(ctx context.Context, ac *access.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	if err := s.require(ac, access.Create); err != nil {
		return nil, err
	}

	create := req.ToDomain()
	create.Normalize()
	if err := create.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.customerRepo.FindByNumber(ctx, create.Number); err == nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Customer with this number already exists")
	} else if !shared.IsNotFound(err) {
		return nil, err
	}

	id, err := s.idGen.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate customer id: %w", err)
	}
	if err := s.customerRepo.Create(ctx, id, create); err != nil {
		return nil, err
	}

	s.logger.Info("Customer created", zap.Int64("customer_id", id), zap.String("number", create.Number))

	return s.load(ctx, id)
}

// Update applies a partial update and returns the stored customer
func (s *CustomerService) Update(ctx context.Context, ac *access.Context, id int64, req UpdateCustomerRequest) (*CustomerResponse, error) {
	if err := s.require(ac, access.Update); err != nil {
		return nil, err
	}

	upd := req.ToDomain()
	upd.Normalize()
	if err := upd.Validate(); err != nil {
		return nil, err
	}

	if upd.Number != nil {
		existing, err := s.customerRepo.FindByNumber(ctx, *upd.Number)
		switch {
		case err == nil && existing.ID != id:
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Customer with this number already exists")
		case err != nil && !shared.IsNotFound(err):
			return nil, err
		}
	}

	if err := s.customerRepo.Update(ctx, id, upd); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Delete soft deletes a customer
func (s *CustomerService) Delete(ctx context.Context, ac *access.Context, id int64) error {
	if err := s.require(ac, access.Delete); err != nil {
		return err
	}
	if err := s.customerRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Customer deleted", zap.Int64("customer_id", id))
	return nil
}

// GetByID returns a live customer
func (s *CustomerService) GetByID(ctx context.Context, ac *access.Context, id int64) (*CustomerResponse, error) {
	if err := s.require(ac, access.Read); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// GetByNumber returns a live customer by its business number
func (s *CustomerService) GetByNumber(ctx context.Context, ac *access.Context, number string) (*CustomerResponse, error) {
	if err := s.require(ac, access.Read); err != nil {
		return nil, err
	}
	customer, err := s.customerRepo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// List returns one page of customers matching the query
func (s *CustomerService) List(ctx context.Context, ac *access.Context, query CustomerListQuery) (*shared.Page[CustomerResponse], error) {
	if err := s.require(ac, access.Read); err != nil {
		return nil, err
	}

	filter, page := query.ToFilter()
	customers, err := s.customerRepo.FindAll(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	total, err := s.customerRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := shared.NewPage(ToCustomerResponses(customers), total, page)
	return &result, nil
}

func (s *CustomerService) load(ctx context.Context, id int64) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(customer)
	return &resp, nil
}
