package background

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"garagebill/internal/config"
	"garagebill/internal/jobs"
	"garagebill/internal/services"
)

const refreshConcurrency = 5

// JobScheduler runs the periodic inventory jobs: refreshing the cached
// snapshots of active owners and the low stock check.
type JobScheduler struct {
	scheduler    gocron.Scheduler
	inventorySvc services.InventoryService
	alertSvc     *jobs.InventoryAlertService
	activeOwners func() []uuid.UUID
	cfg          config.JobsConfig
	jobJobs      map[string]gocron.Job
	mu           sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

// NewJobScheduler creates the scheduler and registers its jobs. A zero
// interval in cfg disables that job.
func NewJobScheduler(inventorySvc services.InventoryService, alertSvc *jobs.InventoryAlertService,
	activeOwners func() []uuid.UUID, cfg config.JobsConfig) (*JobScheduler, error) {

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	js := &JobScheduler{
		scheduler:    scheduler,
		inventorySvc: inventorySvc,
		alertSvc:     alertSvc,
		activeOwners: activeOwners,
		cfg:          cfg,
		jobJobs:      make(map[string]gocron.Job),
		ctx:          ctx,
		cancel:       cancel,
	}

	if err := js.registerJobs(); err != nil {
		cancel()
		return nil, err
	}

	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop cancels running jobs and waits for them to return.
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	js.cancel()
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() error {
	if js.cfg.SnapshotRefreshMinutes > 0 {
		refreshJob, err := js.scheduler.NewJob(
			gocron.DurationJob(time.Duration(js.cfg.SnapshotRefreshMinutes)*time.Minute),
			gocron.NewTask(js.refreshSnapshots, js.ctx),
			gocron.WithName("snapshot-refresh"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return err
		}
		js.jobJobs["snapshot-refresh"] = refreshJob
	}

	if js.cfg.LowStockCheckMinutes > 0 && js.alertSvc != nil {
		alertsJob, err := js.scheduler.NewJob(
			gocron.DurationJob(time.Duration(js.cfg.LowStockCheckMinutes)*time.Minute),
			gocron.NewTask(js.alertSvc.ScheduledLowStockCheck, js.ctx),
			gocron.WithName("low-stock-check"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return err
		}
		js.jobJobs["low-stock-check"] = alertsJob
	}

	log.Printf("Registered %d background jobs", len(js.jobJobs))
	return nil
}

// refreshSnapshots re-reads inventory for every owner with a ledger in
// memory, so open screens see stock changed elsewhere.
func (js *JobScheduler) refreshSnapshots(ctx context.Context) error {
	owners := js.activeOwners()
	if len(owners) == 0 {
		return nil
	}

	semaphore := make(chan struct{}, refreshConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0

	for _, ownerID := range owners {
		wg.Add(1)
		go func(ownerID uuid.UUID) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if err := js.inventorySvc.RefreshSnapshot(ctx, ownerID); err != nil {
				log.Printf("Failed to refresh parts snapshot for owner %s: %v", ownerID.String(), err)
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(ownerID)
	}

	wg.Wait()
	log.Printf("Refreshed parts snapshots for %d owners (%d failed)", len(owners), failed)
	return nil
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	status := make(map[string]interface{})
	status["total_jobs"] = len(js.jobJobs)
	jobs := make(map[string]string, len(js.jobJobs))

	for name, job := range js.jobJobs {
		next := "not scheduled"
		if run, err := job.NextRun(); err == nil && !run.IsZero() {
			next = run.UTC().Format(time.RFC3339)
		}
		jobs[name] = next
	}

	status["jobs"] = jobs

	return status
}
