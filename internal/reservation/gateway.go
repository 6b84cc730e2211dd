package reservation

import (
	"context"

	"github.com/google/uuid"

	"garagebill/internal/models"
)

// InventoryGateway is the authoritative inventory store. The store offers
// no multi-part transaction, so commits go through it one part at a time.
type InventoryGateway interface {
	ListParts(ctx context.Context, ownerID uuid.UUID) ([]models.Part, error)
	GetPart(ctx context.Context, ownerID, partID uuid.UUID) (*models.Part, error)
	AddPart(ctx context.Context, part *models.Part) error
	UpdateQuantity(ctx context.Context, ownerID, partID uuid.UUID, quantity int) error
	DeletePart(ctx context.Context, ownerID, partID uuid.UUID) error
}
