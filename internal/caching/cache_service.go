package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"garagebill/internal/models"
)

type CacheService interface {
	// Parts snapshot caching
	GetPartsSnapshot(ctx context.Context, ownerID uuid.UUID) ([]models.Part, error)
	SetPartsSnapshot(ctx context.Context, ownerID uuid.UUID, parts []models.Part, ttl time.Duration) error
	InvalidatePartsSnapshot(ctx context.Context, ownerID uuid.UUID) error

	// Generated invoices never change, so they can be cached without expiry pressure
	GetInvoice(ctx context.Context, ownerID, jobID uuid.UUID) (*models.Invoice, error)
	SetInvoice(ctx context.Context, inv *models.Invoice, ttl time.Duration) error

	// MarkLowStockAlerted reports whether this is the first alert for the
	// part within ttl.
	MarkLowStockAlerted(ctx context.Context, ownerID, partID uuid.UUID, ttl time.Duration) (bool, error)

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis:// and rediss:// addresses as well as bare host:port
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsedAddr = strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	} else {
		log.Printf("DEBUG: Redis connection established at %s", parsedAddr)
	}

	return &redisCacheService{client: client}
}

func partsKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("garagebill:parts:%s", ownerID.String())
}

func invoiceKey(ownerID, jobID uuid.UUID) string {
	return fmt.Sprintf("garagebill:invoice:%s:%s", ownerID.String(), jobID.String())
}

func alertKey(ownerID, partID uuid.UUID) string {
	return fmt.Sprintf("garagebill:alert:lowstock:%s:%s", ownerID.String(), partID.String())
}

func (r *redisCacheService) GetPartsSnapshot(ctx context.Context, ownerID uuid.UUID) ([]models.Part, error) {
	data, err := r.client.Get(ctx, partsKey(ownerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var parts []models.Part
	if err := json.Unmarshal(data, &parts); err != nil {
		return nil, err
	}
	return parts, nil
}

func (r *redisCacheService) SetPartsSnapshot(ctx context.Context, ownerID uuid.UUID, parts []models.Part, ttl time.Duration) error {
	if parts == nil {
		parts = []models.Part{}
	}
	data, err := json.Marshal(parts)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, partsKey(ownerID), data, ttl).Err()
}

func (r *redisCacheService) InvalidatePartsSnapshot(ctx context.Context, ownerID uuid.UUID) error {
	return r.client.Del(ctx, partsKey(ownerID)).Err()
}

func (r *redisCacheService) GetInvoice(ctx context.Context, ownerID, jobID uuid.UUID) (*models.Invoice, error) {
	data, err := r.client.Get(ctx, invoiceKey(ownerID, jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var inv models.Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *redisCacheService) SetInvoice(ctx context.Context, inv *models.Invoice, ttl time.Duration) error {
	data, err := json.Marshal(inv)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, invoiceKey(inv.OwnerID, inv.JobID), data, ttl).Err()
}

func (r *redisCacheService) MarkLowStockAlerted(ctx context.Context, ownerID, partID uuid.UUID, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, alertKey(ownerID, partID), time.Now().Unix(), ttl).Result()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
