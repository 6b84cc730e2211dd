package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"garagebill/internal/common"
	"garagebill/internal/models"
)

const (
	InventoryBackendPostgres = "postgres"
	InventoryBackendREST     = "rest"
)

// Config represents the complete configuration
type Config struct {
	Server    ServerConfig       `toml:"server"`
	Database  DatabaseConfig     `toml:"database"`
	Redis     RedisConfig        `toml:"redis"`
	Minio     MinioConfig        `toml:"minio"`
	Auth      AuthConfig         `toml:"auth"`
	Inventory InventoryConfig    `toml:"inventory"`
	Business  BusinessConfig     `toml:"business"`
	Bank      models.BankDetails `toml:"bank"`
	Invoice   InvoiceConfig      `toml:"invoice"`
	Jobs      JobsConfig         `toml:"jobs"`
}

type ServerConfig struct {
	Port           string   `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type DatabaseConfig struct {
	URL string `toml:"url"`
}

// RedisConfig contains cache connection settings
type RedisConfig struct {
	Addr               string `toml:"addr"`
	Password           string `toml:"password"`
	DB                 int    `toml:"db"`
	SnapshotTTLSeconds int    `toml:"snapshot_ttl_seconds"`
}

type MinioConfig struct {
	Endpoint     string `toml:"endpoint"`
	AccessKey    string `toml:"access_key"`
	SecretKey    string `toml:"secret_key"`
	Bucket       string `toml:"bucket"`
	UseSSL       bool   `toml:"use_ssl"`
	PresignHours int    `toml:"presign_hours"`
}

// AuthConfig selects how bearer tokens are verified: HMAC with JWTSecret,
// or keys fetched from JWKSURL when set.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	JWKSURL   string `toml:"jwks_url"`
}

// InventoryConfig picks the inventory store. "postgres" uses the local
// parts table, "rest" the remote inventory service at APIURL.
type InventoryConfig struct {
	Backend           string `toml:"backend"`
	APIURL            string `toml:"api_url"`
	APIKey            string `toml:"api_key"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	LowStockThreshold int    `toml:"low_stock_threshold"`
}

// BusinessConfig is the seller printed on every invoice.
type BusinessConfig struct {
	Name      string `toml:"name"`
	Address   string `toml:"address"`
	Phone     string `toml:"phone"`
	Email     string `toml:"email"`
	GSTIN     string `toml:"gstin"`
	State     string `toml:"state"`
	StateCode string `toml:"state_code"`
}

func (b BusinessConfig) Party() models.Party {
	p := models.Party{
		Name:      b.Name,
		Address:   b.Address,
		Phone:     b.Phone,
		Email:     b.Email,
		State:     b.State,
		StateCode: b.StateCode,
	}
	if b.GSTIN != "" {
		gstin := b.GSTIN
		p.GSTIN = &gstin
		if p.StateCode == "" {
			p.StateCode = common.GSTINStateCode(gstin)
		}
	}
	return p
}

type InvoiceConfig struct {
	Prefix        string `toml:"prefix"`
	ShareTemplate string `toml:"share_template"`
	Footer        string `toml:"footer"`
	ShowUPIQR     bool   `toml:"show_upi_qr"`
}

// JobsConfig holds background job intervals in minutes.
type JobsConfig struct {
	SnapshotRefreshMinutes int `toml:"snapshot_refresh_minutes"`
	LowStockCheckMinutes   int `toml:"low_stock_check_minutes"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Redis: RedisConfig{
			Addr:               "localhost:6379",
			SnapshotTTLSeconds: 300,
		},
		Minio: MinioConfig{
			Endpoint:     "localhost:9000",
			AccessKey:    "minioadmin",
			SecretKey:    "minioadmin",
			Bucket:       "invoices",
			PresignHours: 24,
		},
		Inventory: InventoryConfig{
			Backend:           InventoryBackendPostgres,
			TimeoutSeconds:    10,
			LowStockThreshold: 2,
		},
		Invoice: InvoiceConfig{
			Prefix:    "INV",
			ShowUPIQR: true,
		},
		Jobs: JobsConfig{
			SnapshotRefreshMinutes: 5,
			LowStockCheckMinutes:   60,
		},
	}
}

// Load reads .env, then the TOML file at filename (optional), then
// environment overrides, and validates the result.
func Load(filename string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Failed to load .env file: %v", err)
	}

	cfg := Default()
	if filename != "" {
		if _, err := toml.DecodeFile(filename, cfg); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
			log.Printf("Config file %s not found, using defaults", filename)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Port, "PORT")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Redis.DB, "REDIS_DB")
	setString(&c.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Minio.Bucket, "MINIO_BUCKET")
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		c.Minio.UseSSL = v == "true"
	}
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Auth.JWKSURL, "JWKS_URL")
	setString(&c.Inventory.Backend, "INVENTORY_BACKEND")
	setString(&c.Inventory.APIURL, "INVENTORY_API_URL")
	setString(&c.Inventory.APIKey, "INVENTORY_API_KEY")
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Ignoring %s=%q: not a number", key, v)
		return
	}
	*dst = n
}

func (c *Config) Validate() error {
	switch c.Inventory.Backend {
	case InventoryBackendPostgres:
	case InventoryBackendREST:
		if c.Inventory.APIURL == "" {
			return common.NewValidationError("inventory.api_url", "is required for the rest backend")
		}
	default:
		return common.NewValidationError("inventory.backend", "must be 'postgres' or 'rest'")
	}
	if c.Business.GSTIN != "" {
		if err := common.ValidateGSTIN(c.Business.GSTIN, "business.gstin"); err != nil {
			return err
		}
	}
	if c.Inventory.LowStockThreshold < 0 {
		return common.NewValidationError("inventory.low_stock_threshold", "cannot be negative")
	}
	if c.Minio.PresignHours <= 0 {
		c.Minio.PresignHours = 24
	}
	return nil
}
