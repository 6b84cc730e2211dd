package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"garagebill/internal/common"
	"garagebill/internal/models"
)

// PartRepository is the PostgreSQL inventory store. It satisfies
// reservation.InventoryGateway.
type PartRepository interface {
	ListParts(ctx context.Context, ownerID uuid.UUID) ([]models.Part, error)
	GetPart(ctx context.Context, ownerID, partID uuid.UUID) (*models.Part, error)
	AddPart(ctx context.Context, part *models.Part) error
	UpdateQuantity(ctx context.Context, ownerID, partID uuid.UUID, quantity int) error
	DeletePart(ctx context.Context, ownerID, partID uuid.UUID) error
	ListOwners(ctx context.Context) ([]uuid.UUID, error)
}

type partRepo struct {
	db DBTX
}

func NewPartRepo(db DBTX) PartRepository {
	return &partRepo{db: db}
}

const partColumns = `id, owner_id, name, part_number, hsn_code, quantity_on_hand, price_per_unit, tax_percentage, created_at, updated_at`

func scanPart(row pgx.Row, p *models.Part) error {
	return row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.PartNumber, &p.HSNCode, &p.QuantityOnHand, &p.PricePerUnit, &p.TaxPercentage, &p.CreatedAt, &p.UpdatedAt)
}

func (r *partRepo) queryParts(ctx context.Context, query string, args ...any) ([]models.Part, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parts []models.Part
	for rows.Next() {
		var p models.Part
		if err := scanPart(rows, &p); err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

func (r *partRepo) ListParts(ctx context.Context, ownerID uuid.UUID) ([]models.Part, error) {
	query := `
		SELECT ` + partColumns + `
		FROM parts
		WHERE owner_id = $1
		ORDER BY name ASC
	`
	parts, err := r.queryParts(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list parts: %w", err)
	}
	return parts, nil
}

func (r *partRepo) GetPart(ctx context.Context, ownerID, partID uuid.UUID) (*models.Part, error) {
	query := `
		SELECT ` + partColumns + `
		FROM parts
		WHERE owner_id = $1 AND id = $2
	`
	part := &models.Part{}
	if err := scanPart(r.db.QueryRow(ctx, query, ownerID, partID), part); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("part %s: %w", partID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get part: %w", err)
	}
	return part, nil
}

func (r *partRepo) AddPart(ctx context.Context, part *models.Part) error {
	if err := common.ValidateRequiredString(part.Name, "name"); err != nil {
		return err
	}
	if part.QuantityOnHand < 0 {
		return common.NewValidationError("quantity_on_hand", "cannot be negative")
	}
	if part.PricePerUnit.IsNegative() {
		return common.NewValidationError("price_per_unit", "cannot be negative")
	}
	if part.PartNumber != nil && strings.TrimSpace(*part.PartNumber) == "" {
		part.PartNumber = nil
	}
	if part.ID == uuid.Nil {
		part.ID = uuid.New()
	}

	query := `
		INSERT INTO parts (id, owner_id, name, part_number, hsn_code, quantity_on_hand, price_per_unit, tax_percentage, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, part.ID, part.OwnerID, part.Name, part.PartNumber, part.HSNCode, part.QuantityOnHand, part.PricePerUnit, part.TaxPercentage)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.NewValidationError("part_number", "already exists")
		}
		return fmt.Errorf("failed to add part: %w", err)
	}
	return nil
}

func (r *partRepo) UpdateQuantity(ctx context.Context, ownerID, partID uuid.UUID, quantity int) error {
	if quantity < 0 {
		return common.NewValidationError("quantity_on_hand", "cannot be negative")
	}
	query := `
		UPDATE parts
		SET quantity_on_hand = $1, updated_at = NOW()
		WHERE owner_id = $2 AND id = $3
	`
	tag, err := r.db.Exec(ctx, query, quantity, ownerID, partID)
	if err != nil {
		return fmt.Errorf("failed to update part quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("part %s: %w", partID, common.ErrNotFound)
	}
	return nil
}

// DeletePart removes a part only once its stock has run out.
func (r *partRepo) DeletePart(ctx context.Context, ownerID, partID uuid.UUID) error {
	part, err := r.GetPart(ctx, ownerID, partID)
	if err != nil {
		return err
	}
	if part.QuantityOnHand != 0 {
		return common.NewValidationError("quantity_on_hand", "only parts with no stock left can be removed")
	}

	query := `DELETE FROM parts WHERE owner_id = $1 AND id = $2 AND quantity_on_hand = 0`
	if _, err := r.db.Exec(ctx, query, ownerID, partID); err != nil {
		return fmt.Errorf("failed to delete part: %w", err)
	}
	return nil
}

func (r *partRepo) ListOwners(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT owner_id FROM parts`)
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}
	defer rows.Close()

	var owners []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owners = append(owners, id)
	}
	return owners, rows.Err()
}
