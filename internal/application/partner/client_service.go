package partner

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gescom/backend/internal/domain/partner"
	"github.com/gescom/backend/internal/domain/shared"
)

// CreateClientRequest creates a client record
type CreateClientRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// UpdateClientRequest mutates a client record; nil fields are unchanged
type UpdateClientRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// ClientService implements the client directory use cases
type ClientService struct {
	clients partner.ClientRepository
	logger  *zap.Logger
}

// NewClientService creates a new client service
func NewClientService(clients partner.ClientRepository, logger *zap.Logger) *ClientService {
	return &ClientService{clients: clients, logger: logger}
}

// Create adds a client to the directory
func (s *ClientService) Create(ctx context.Context, req CreateClientRequest) (*partner.Client, error) {
	client, err := partner.NewClient(req.Name, req.Email, req.Phone, req.Address)
	if err != nil {
		return nil, err
	}
	if err := s.clients.Save(ctx, client); err != nil {
		return nil, err
	}
	s.logger.Info("client created",
		zap.String("client_id", client.ID.String()),
		zap.String("name", client.Name))
	return client, nil
}

// Get retrieves a client by ID
func (s *ClientService) Get(ctx context.Context, id uuid.UUID) (*partner.Client, error) {
	client, err := s.clients.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Client not found")
		}
		return nil, err
	}
	return client, nil
}

// List retrieves clients matching the filter
func (s *ClientService) List(ctx context.Context, filter shared.Filter) (shared.Paginated[*partner.Client], error) {
	return s.clients.FindAll(ctx, filter)
}

// Update applies a partial update to a client
func (s *ClientService) Update(ctx context.Context, id uuid.UUID, req UpdateClientRequest) (*partner.Client, error) {
	client, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := client.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	email, phone, address := client.Email, client.Phone, client.Address
	if req.Email != nil {
		email = *req.Email
	}
	if req.Phone != nil {
		phone = *req.Phone
	}
	if req.Address != nil {
		address = *req.Address
	}
	client.UpdateContact(email, phone, address)

	if err := s.clients.Save(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

// Delete removes a client from the directory
func (s *ClientService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.clients.Delete(ctx, id)
}
