package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"garagebill/internal/apidocs"
	"garagebill/internal/caching"
	"garagebill/internal/config"
	"garagebill/internal/handlers"
	"garagebill/internal/inventoryapi"
	"garagebill/internal/invoicing"
	"garagebill/internal/jobs"
	"garagebill/internal/jobs/background"
	"garagebill/internal/middleware"
	"garagebill/internal/repositories"
	"garagebill/internal/reservation"
	"garagebill/internal/services"
	"garagebill/internal/websocket"
	"garagebill/pkg/database"
)

const version = "1.0.0"

func main() {
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.toml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}
	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.ClosePool(pool)

	middleware.EnsureSigningKey(&cfg.Auth)
	jwtConfig, stopJWKS, err := middleware.NewJWTConfig(cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to configure JWT: %v", err)
	}
	defer stopJWKS()

	// Create repositories
	partRepo := repositories.NewPartRepo(pool)
	jobRepo := repositories.NewJobRepo(pool)
	invoiceRepo := repositories.NewInvoiceRepo(pool, cfg.Invoice.Prefix)

	registry := reservation.NewRegistry()

	var gateway reservation.InventoryGateway = partRepo
	var owners jobs.OwnerLister = partRepo
	if cfg.Inventory.Backend == config.InventoryBackendREST {
		gateway = inventoryapi.NewClient(&cfg.Inventory)
		owners = jobs.OwnerListerFunc(func(context.Context) ([]uuid.UUID, error) {
			return registry.Owners(), nil
		})
		log.Printf("Using remote inventory service at %s", cfg.Inventory.APIURL)
	}

	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	minioSvc, err := services.NewMinioService(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL)
	if err != nil {
		log.Fatalf("Failed to initialize MinIO service: %v", err)
	}
	if err := minioSvc.EnsureBucketExists(ctx, cfg.Minio.Bucket); err != nil {
		log.Printf("WARNING: invoice bucket %s unavailable, sharing will fail: %v", cfg.Minio.Bucket, err)
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	// Create services
	snapshotTTL := time.Duration(cfg.Redis.SnapshotTTLSeconds) * time.Second
	inventorySvc := services.NewInventoryService(registry, gateway, cacheSvc, hub, snapshotTTL)
	invoiceSvc := services.NewInvoiceService(jobRepo, invoiceRepo,
		invoicing.NewBuilder(cfg.Business.Party(), cfg.Bank),
		cacheSvc, minioSvc,
		services.InvoiceServiceConfig{
			Bucket:        cfg.Minio.Bucket,
			PresignExpiry: time.Duration(cfg.Minio.PresignHours) * time.Hour,
			ShareTemplate: cfg.Invoice.ShareTemplate,
			PDF:           invoicing.PDFOptions{ShowUPIQR: cfg.Invoice.ShowUPIQR, Footer: cfg.Invoice.Footer},
			CacheTTL:      24 * time.Hour,
		})

	// Background jobs
	alertSvc := jobs.NewInventoryAlertService(inventorySvc, cacheSvc, hub, owners, cfg.Inventory.LowStockThreshold)
	scheduler, err := background.NewJobScheduler(inventorySvc, alertSvc, registry.Owners, cfg.Jobs)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	log.Printf("Background jobs: %v", scheduler.GetJobStatus()["jobs"])

	// Create handlers
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, minioSvc, cfg.Minio.Bucket, version)
	partsHandlers := handlers.NewPartsHandlers(inventorySvc, cfg.Inventory.LowStockThreshold)
	selectionHandlers := handlers.NewSelectionHandlers(inventorySvc)
	billHandlers := handlers.NewBillHandlers(invoiceSvc)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	if len(cfg.Server.AllowedOrigins) > 0 {
		e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{AllowOrigins: cfg.Server.AllowedOrigins}))
	} else {
		e.Use(echoMiddleware.CORS())
	}
	e.Pre(echoMiddleware.RemoveTrailingSlash())

	// Version middleware
	versionMiddleware := middleware.NewVersionMiddleware()
	e.Use(versionMiddleware.APIVersionResolver())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Inventory events for open screens; browsers pass the token as ?token=
	e.GET("/ws", hub.Handler, echojwt.WithConfig(jwtConfig), middleware.RequireSession)

	// API routes
	v1 := e.Group("/v1")
	v1.Use(versionMiddleware.VersionHeader("v1"))

	protected := v1.Group("")
	protected.Use(echojwt.WithConfig(jwtConfig), middleware.RequireSession)

	protected.GET("/parts", partsHandlers.ListParts)
	protected.GET("/parts/candidates", partsHandlers.Candidates)
	protected.GET("/parts/low-stock", partsHandlers.LowStock)
	protected.POST("/parts", partsHandlers.CreatePart)
	protected.DELETE("/parts/:id", partsHandlers.DeletePart)

	protected.GET("/selections", selectionHandlers.ListSelections)
	protected.POST("/selections", selectionHandlers.CreateSelection)
	protected.GET("/selections/:id", selectionHandlers.GetSelection)
	protected.DELETE("/selections/:id", selectionHandlers.DiscardSelection)
	protected.POST("/selections/:id/entries", selectionHandlers.AddEntry)
	protected.PUT("/selections/:id/entries/:part_id", selectionHandlers.UpdateEntry)
	protected.POST("/selections/:id/entries/:part_id/step", selectionHandlers.StepEntry)
	protected.DELETE("/selections/:id/entries/:part_id", selectionHandlers.RemoveEntry)
	protected.POST("/selections/:id/commit", selectionHandlers.Commit)

	protected.POST("/bills/summary", billHandlers.ComputeSummary)
	protected.POST("/jobs/:id/generate-bill", billHandlers.GenerateBill)
	protected.GET("/jobs/:id/invoice", billHandlers.GetInvoice)
	protected.GET("/jobs/:id/invoice/pdf", billHandlers.DownloadPDF)
	protected.POST("/jobs/:id/invoice/share", billHandlers.ShareInvoice)
	protected.GET("/invoices/register", billHandlers.ExportRegister)

	if err := apidocs.Publish(e, "garagebill API", version); err != nil {
		log.Printf("Failed to build API docs: %v", err)
	}

	// Start server
	go func() {
		log.Printf("garagebill server v%s starting on port %s (inventory backend: %s)", version, cfg.Server.Port, cfg.Inventory.Backend)
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
	if err := scheduler.Stop(); err != nil {
		log.Printf("Scheduler shutdown failed: %v", err)
	}
}
