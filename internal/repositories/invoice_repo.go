package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"garagebill/internal/common"
	"garagebill/internal/models"
)

// BuildInvoiceFunc assembles the invoice document once a number has been
// allocated for it.
type BuildInvoiceFunc func(invoiceNumber string) (*models.Invoice, error)

type InvoiceRepository interface {
	// CreateForJob generates the job's one invoice. When the job already has
	// one, the stored document is returned with created == false and build
	// is never called.
	CreateForJob(ctx context.Context, ownerID, jobID uuid.UUID, build BuildInvoiceFunc) (invoice *models.Invoice, created bool, err error)
	GetByJobID(ctx context.Context, ownerID, jobID uuid.UUID) (*models.Invoice, error)
	ListByDateRange(ctx context.Context, ownerID uuid.UUID, startDate, endDate time.Time) ([]*models.Invoice, error)
}

type invoiceRepo struct {
	db     DBTX
	prefix string
}

func NewInvoiceRepo(db DBTX, prefix string) InvoiceRepository {
	if prefix == "" {
		prefix = "INV"
	}
	return &invoiceRepo{db: db, prefix: prefix}
}

func (r *invoiceRepo) CreateForJob(ctx context.Context, ownerID, jobID uuid.UUID, build BuildInvoiceFunc) (*models.Invoice, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			log.Printf("Invoice transaction rollback failed: %v", err)
		}
	}()

	var generated bool
	var invoiceID *uuid.UUID
	lockQuery := `SELECT bill_generated, invoice_id FROM jobs WHERE owner_id = $1 AND id = $2 FOR UPDATE`
	if err := tx.QueryRow(ctx, lockQuery, ownerID, jobID).Scan(&generated, &invoiceID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, fmt.Errorf("job %s: %w", jobID, common.ErrNotFound)
		}
		return nil, false, fmt.Errorf("failed to lock job: %w", err)
	}
	if generated {
		existing, err := r.getByJob(ctx, tx, ownerID, jobID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	number, err := r.generateInvoiceNumber(ctx, tx, ownerID, time.Now())
	if err != nil {
		return nil, false, err
	}
	invoice, err := build(number)
	if err != nil {
		return nil, false, err
	}
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	doc, err := json.Marshal(invoice)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode invoice: %w", err)
	}

	insert := `
		INSERT INTO invoices (id, owner_id, job_id, invoice_number, billing_date, grand_total, document, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := tx.Exec(ctx, insert, invoice.ID, ownerID, jobID, invoice.InvoiceNumber, invoice.BillingDate, invoice.GrandTotal, doc, invoice.GeneratedAt); err != nil {
		return nil, false, fmt.Errorf("failed to store invoice: %w", err)
	}

	mark := `
		UPDATE jobs
		SET bill_generated = TRUE, invoice_id = $1, updated_at = NOW()
		WHERE owner_id = $2 AND id = $3
	`
	if _, err := tx.Exec(ctx, mark, invoice.ID, ownerID, jobID); err != nil {
		return nil, false, fmt.Errorf("failed to mark job billed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit invoice: %w", err)
	}
	return invoice, true, nil
}

func (r *invoiceRepo) GetByJobID(ctx context.Context, ownerID, jobID uuid.UUID) (*models.Invoice, error) {
	return r.getByJob(ctx, r.db, ownerID, jobID)
}

func (r *invoiceRepo) getByJob(ctx context.Context, q rowQuerier, ownerID, jobID uuid.UUID) (*models.Invoice, error) {
	var doc []byte
	query := `SELECT document FROM invoices WHERE owner_id = $1 AND job_id = $2`
	if err := q.QueryRow(ctx, query, ownerID, jobID).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice for job %s: %w", jobID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	invoice := &models.Invoice{}
	if err := json.Unmarshal(doc, invoice); err != nil {
		return nil, fmt.Errorf("failed to decode stored invoice: %w", err)
	}
	return invoice, nil
}

func (r *invoiceRepo) ListByDateRange(ctx context.Context, ownerID uuid.UUID, startDate, endDate time.Time) ([]*models.Invoice, error) {
	query := `
		SELECT document
		FROM invoices
		WHERE owner_id = $1 AND billing_date BETWEEN $2 AND $3
		ORDER BY billing_date ASC, invoice_number ASC
	`
	rows, err := r.db.Query(ctx, query, ownerID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		invoice := &models.Invoice{}
		if err := json.Unmarshal(doc, invoice); err != nil {
			return nil, fmt.Errorf("failed to decode stored invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

// generateInvoiceNumber allocates the next number in the owner's monthly
// sequence: <prefix>-<owner suffix>-YYYY-MM-000001.
func (r *invoiceRepo) generateInvoiceNumber(ctx context.Context, q rowQuerier, ownerID uuid.UUID, issuedDate time.Time) (string, error) {
	yearMonth := issuedDate.Format("2006-01")

	query := `
		WITH upsert AS (
			INSERT INTO invoice_sequences (owner_id, year_month, last_number)
			VALUES ($1, $2, 1)
			ON CONFLICT (owner_id, year_month)
			DO UPDATE SET
				last_number = invoice_sequences.last_number + 1,
				updated_at = NOW()
			RETURNING last_number
		)
		SELECT last_number FROM upsert;
	`

	var sequenceNum int
	if err := q.QueryRow(ctx, query, ownerID, yearMonth).Scan(&sequenceNum); err != nil {
		return "", fmt.Errorf("failed to generate invoice sequence: %w", err)
	}

	owner := ownerID.String()
	return fmt.Sprintf("%s-%s-%s-%06d", r.prefix, owner[len(owner)-8:], yearMonth, sequenceNum), nil
}
