package partner

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gescom/backend/internal/domain/shared"
)

// Client is a customer a quotation or invoice is addressed to
type Client struct {
	shared.BaseAggregateRoot
	Name    string `gorm:"type:varchar(200);not null" json:"name"`
	Email   string `gorm:"type:varchar(200)" json:"email"`
	Phone   string `gorm:"type:varchar(50)" json:"phone"`
	Address string `gorm:"type:text" json:"address"`
	Active  bool   `gorm:"not null;default:true" json:"active"`
}

// TableName returns the database table name
func (Client) TableName() string {
	return "clients"
}

// NewClient creates a validated client
func NewClient(name, email, phone, address string) (*Client, error) {
	if name == "" {
		return nil, shared.NewValidationError("name", "is required")
	}
	return &Client{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Email:             email,
		Phone:             phone,
		Address:           address,
		Active:            true,
	}, nil
}

// UpdateContact updates the contact details
func (c *Client) UpdateContact(email, phone, address string) {
	c.Email = email
	c.Phone = phone
	c.Address = address
	c.UpdatedAt = time.Now()
}

// Rename changes the client name
func (c *Client) Rename(name string) error {
	if name == "" {
		return shared.NewValidationError("name", "is required")
	}
	c.Name = name
	c.UpdatedAt = time.Now()
	return nil
}

// ClientRepository defines persistence for clients
type ClientRepository interface {
	Save(ctx context.Context, client *Client) error
	FindByID(ctx context.Context, id uuid.UUID) (*Client, error)
	FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*Client], error)
	Delete(ctx context.Context, id uuid.UUID) error
}
