package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"garagebill/internal/common"
	"garagebill/internal/models"
)

type JobRepository interface {
	GetByID(ctx context.Context, ownerID, jobID uuid.UUID) (*models.Job, error)
}

type jobRepo struct {
	db DBTX
}

func NewJobRepo(db DBTX) JobRepository {
	return &jobRepo{db: db}
}

func (r *jobRepo) GetByID(ctx context.Context, ownerID, jobID uuid.UUID) (*models.Job, error) {
	query := `
		SELECT id, owner_id, job_number, customer_name, customer_phone, customer_email, vehicle_number, vehicle_model, odometer, status, bill_generated, invoice_id, created_at, updated_at
		FROM jobs
		WHERE owner_id = $1 AND id = $2
	`
	job := &models.Job{}
	err := r.db.QueryRow(ctx, query, ownerID, jobID).Scan(&job.ID, &job.OwnerID, &job.JobNumber, &job.CustomerName, &job.CustomerPhone, &job.CustomerEmail, &job.VehicleNumber, &job.VehicleModel, &job.Odometer, &job.Status, &job.BillGenerated, &job.InvoiceID, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("job %s: %w", jobID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}
