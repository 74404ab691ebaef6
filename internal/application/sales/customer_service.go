package sales

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/sales"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/logger"
)

// CustomerService manages customers
type CustomerService struct {
	repos  appshared.Repositories
	logger *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(repos appshared.Repositories, l *zap.Logger) *CustomerService {
	if l == nil {
		l = zap.NewNop()
	}
	return &CustomerService{repos: repos, logger: l}
}

// Create adds a customer
func (s *CustomerService) Create(ctx context.Context, tenantID, userID uuid.UUID, req CustomerRequest) (*CustomerResponse, error) {
	exists, err := s.repos.Customers().ExistsByCode(ctx, tenantID, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainErrorf("ALREADY_EXISTS", "Customer code %s already exists", req.Code)
	}
	customer, err := sales.NewCustomer(tenantID, req.Code, req.details())
	if err != nil {
		return nil, err
	}
	customer.SetCreatedBy(userID)
	if err := s.repos.Customers().Save(ctx, customer); err != nil {
		return nil, err
	}
	logger.Enrich(ctx, s.logger).Info("customer created", zap.String("code", customer.Code))
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// Update changes the customer's details and active flag
func (s *CustomerService) Update(ctx context.Context, tenantID, id uuid.UUID, req CustomerRequest) (*CustomerResponse, error) {
	customer, err := s.repos.Customers().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := customer.Update(req.details()); err != nil {
		return nil, err
	}
	if req.IsActive != nil {
		customer.SetActive(*req.IsActive)
	}
	if err := s.repos.Customers().Save(ctx, customer); err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// Get returns one customer with the balance of their open invoices
func (s *CustomerService) Get(ctx context.Context, tenantID, id uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.repos.Customers().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	outstanding, err := s.repos.Invoices().OutstandingForCustomer(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(customer)
	resp.Outstanding = &outstanding
	return &resp, nil
}

// List returns a page of customers ordered by code
func (s *CustomerService) List(ctx context.Context, tenantID uuid.UUID, q CustomerListFilter) (*shared.Paginated[CustomerResponse], error) {
	filter := q.ToFilter()
	if q.OrderBy == "" {
		filter.OrderBy = "code"
		filter.OrderDir = "asc"
	}
	if q.IsActive != nil {
		filter = filter.With("is_active", *q.IsActive)
	}
	customers, err := s.repos.Customers().FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.repos.Customers().CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]CustomerResponse, len(customers))
	for i := range customers {
		out[i] = ToCustomerResponse(&customers[i])
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.PageSize)
	return &page, nil
}
