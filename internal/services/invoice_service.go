package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"garagebill/internal/billing"
	"garagebill/internal/caching"
	"garagebill/internal/common"
	"garagebill/internal/invoicing"
	"garagebill/internal/models"
	"garagebill/internal/repositories"
	"garagebill/pkg/money"
)

// SummaryPreview is what the billing screen shows while a bill is being
// edited: the summary plus the rows the invoice would print.
type SummaryPreview struct {
	Summary       models.BillSummary `json:"summary"`
	TaxRows       []models.TaxRow    `json:"tax_rows,omitempty"`
	IsInterState  bool               `json:"is_inter_state"`
	RoundOff      money.Money        `json:"round_off"`
	ShowRoundOff  bool               `json:"show_round_off"`
	GrandTotal    money.Money        `json:"grand_total"`
	AmountInWords string             `json:"amount_in_words"`
}

// InvoiceServiceConfig carries the invoice settings from configuration.
type InvoiceServiceConfig struct {
	Bucket        string
	PresignExpiry time.Duration
	ShareTemplate string
	PDF           invoicing.PDFOptions
	CacheTTL      time.Duration
}

type InvoiceService interface {
	ComputeSummary(ctx context.Context, req models.BillRequest) (*SummaryPreview, error)
	GenerateBill(ctx context.Context, ownerID, jobID uuid.UUID, req models.BillRequest) (*models.InvoiceResult, error)
	GetInvoice(ctx context.Context, ownerID, jobID uuid.UUID) (*models.Invoice, error)
	RenderPDF(ctx context.Context, ownerID, jobID uuid.UUID) (*models.Invoice, []byte, error)
	ShareInvoice(ctx context.Context, ownerID, jobID uuid.UUID) (*models.InvoiceShare, error)
	ExportRegister(ctx context.Context, ownerID uuid.UUID, startDate, endDate time.Time) (*bytes.Buffer, error)
}

type invoiceService struct {
	jobRepo      repositories.JobRepository
	invoiceRepo  repositories.InvoiceRepository
	builder      *invoicing.Builder
	cacheService caching.CacheService
	minio        MinioService
	config       InvoiceServiceConfig
	now          func() time.Time
}

func NewInvoiceService(jobRepo repositories.JobRepository, invoiceRepo repositories.InvoiceRepository, builder *invoicing.Builder, cacheService caching.CacheService, minio MinioService, cfg InvoiceServiceConfig) InvoiceService {
	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = 24 * time.Hour
	}
	return &invoiceService{
		jobRepo:      jobRepo,
		invoiceRepo:  invoiceRepo,
		builder:      builder,
		cacheService: cacheService,
		minio:        minio,
		config:       cfg,
		now:          time.Now,
	}
}

func (s *invoiceService) parse(req models.BillRequest) (billing.Input, error) {
	return billing.ParseRequest(req, common.SafeString(s.builder.Seller.GSTIN))
}

func (s *invoiceService) ComputeSummary(ctx context.Context, req models.BillRequest) (*SummaryPreview, error) {
	in, err := s.parse(req)
	if err != nil {
		return nil, err
	}
	summary, err := billing.ComputeSummary(in)
	if err != nil {
		return nil, err
	}
	rounding := billing.RoundTotal(summary.TotalAmount)
	return &SummaryPreview{
		Summary:       summary,
		TaxRows:       invoicing.TaxRows(summary.GSTAmount, in.GST),
		IsInterState:  in.GST.IsInterState,
		RoundOff:      rounding.RoundOff,
		ShowRoundOff:  rounding.Show,
		GrandTotal:    rounding.GrandTotal,
		AmountInWords: billing.AmountInWords(rounding.GrandTotal),
	}, nil
}

// GenerateBill issues the job's invoice exactly once. Any later call gets
// the stored invoice back unchanged with AlreadyGenerated set, whatever
// the request says.
func (s *invoiceService) GenerateBill(ctx context.Context, ownerID, jobID uuid.UUID, req models.BillRequest) (*models.InvoiceResult, error) {
	job, err := s.jobRepo.GetByID(ctx, ownerID, jobID)
	if err != nil {
		return nil, err
	}

	if job.BillGenerated {
		inv, err := s.GetInvoice(ctx, ownerID, jobID)
		if err != nil {
			return nil, err
		}
		result := inv.Result(true)
		return &result, nil
	}

	in, err := s.parse(req)
	if err != nil {
		return nil, err
	}

	inv, created, err := s.invoiceRepo.CreateForJob(ctx, ownerID, jobID, func(invoiceNumber string) (*models.Invoice, error) {
		return s.builder.Build(invoiceNumber, job, in, req.BillToParty, req.ShiftToParty)
	})
	if err != nil {
		return nil, err
	}

	s.cacheInvoice(ctx, inv)
	if created {
		log.Printf("Generated invoice %s for job %s (grand total %s)", inv.InvoiceNumber, job.JobNumber, inv.GrandTotal)
	}
	result := inv.Result(!created)
	return &result, nil
}

func (s *invoiceService) cacheInvoice(ctx context.Context, inv *models.Invoice) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.SetInvoice(ctx, inv, s.config.CacheTTL); err != nil {
		log.Printf("Failed to cache invoice %s: %v", inv.InvoiceNumber, err)
	}
}

func (s *invoiceService) GetInvoice(ctx context.Context, ownerID, jobID uuid.UUID) (*models.Invoice, error) {
	if s.cacheService != nil {
		inv, err := s.cacheService.GetInvoice(ctx, ownerID, jobID)
		if err != nil {
			log.Printf("Failed to read cached invoice for job %s: %v", jobID, err)
		} else if inv != nil {
			return inv, nil
		}
	}

	inv, err := s.invoiceRepo.GetByJobID(ctx, ownerID, jobID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("invoice for job %s: %w", jobID, common.ErrNotFound)
		}
		return nil, err
	}
	if err := invoicing.Verify(inv); err != nil {
		// Stored documents are never rewritten; flag it and serve as stored.
		log.Printf("WARN: stored invoice does not reconcile: %v", err)
	}
	s.cacheInvoice(ctx, inv)
	return inv, nil
}

func (s *invoiceService) RenderPDF(ctx context.Context, ownerID, jobID uuid.UUID) (*models.Invoice, []byte, error) {
	inv, err := s.GetInvoice(ctx, ownerID, jobID)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := invoicing.RenderPDF(inv, s.config.PDF)
	if err != nil {
		return nil, nil, err
	}
	return inv, pdf, nil
}

// ShareInvoice uploads the PDF and returns a download link together with
// ready-made mail and messaging payloads.
func (s *invoiceService) ShareInvoice(ctx context.Context, ownerID, jobID uuid.UUID) (*models.InvoiceShare, error) {
	if s.minio == nil {
		return nil, fmt.Errorf("invoice sharing is not configured")
	}
	inv, pdf, err := s.RenderPDF(ctx, ownerID, jobID)
	if err != nil {
		return nil, err
	}

	fileName := invoicing.FileName(inv)
	objectName := fmt.Sprintf("%s/%s", ownerID.String(), fileName)
	if err := s.minio.UploadObject(ctx, s.config.Bucket, objectName, bytes.NewReader(pdf), int64(len(pdf)), "application/pdf"); err != nil {
		return nil, fmt.Errorf("failed to upload invoice PDF: %w", err)
	}
	downloadURL, err := s.minio.GetPresignedURL(ctx, s.config.Bucket, objectName, s.config.PresignExpiry)
	if err != nil {
		// nobody can reach the upload without a link
		if derr := s.minio.DeleteObject(context.WithoutCancel(ctx), s.config.Bucket, objectName); derr != nil {
			log.Printf("Failed to remove unshared invoice PDF %s: %v", objectName, derr)
		}
		return nil, fmt.Errorf("failed to create download link: %w", err)
	}

	message, err := invoicing.ShareMessage(s.config.ShareTemplate, inv, downloadURL)
	if err != nil {
		return nil, err
	}

	share := &models.InvoiceShare{
		InvoiceNumber: inv.InvoiceNumber,
		FileName:      fileName,
		DownloadURL:   downloadURL,
		ExpiresAt:     s.now().Add(s.config.PresignExpiry),
		MailtoURI:     invoicing.MailtoURI(inv, downloadURL),
		ShareMessage:  message,
	}
	if inv.BillTo.Phone != "" {
		share.WhatsAppURL = invoicing.WhatsAppURL(inv.BillTo.Phone, message)
	}
	return share, nil
}

func (s *invoiceService) ExportRegister(ctx context.Context, ownerID uuid.UUID, startDate, endDate time.Time) (*bytes.Buffer, error) {
	if err := common.ValidateDateRange(startDate, endDate); err != nil {
		return nil, err
	}
	invoices, err := s.invoiceRepo.ListByDateRange(ctx, ownerID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	return invoicing.GSTRegister(invoices, startDate, endDate)
}
