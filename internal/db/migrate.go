package db

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kontorhq/kontor/internal/models"
)

// Models lists every table in migration order. Shared with tests so the
// in-memory schema never drifts from production.
func Models() []any {
	return []any{
		&models.User{},
		&models.Customer{},
		&models.Service{},
		&models.Offer{},
		&models.OfferItem{},
		&models.Invoice{},
		&models.Counter{},
	}
}

// ConnectAndMigrate opens the postgres connection with retries, then brings
// the schema up: explicit SQL migrations when MIGRATIONS=1, AutoMigrate as
// the development fallback.
func ConnectAndMigrate(rawDSN string, log zerolog.Logger) (*gorm.DB, error) {
	dsn := NormalizeDSN(rawDSN)
	if dsn == "" {
		return nil, errors.New("database DSN is empty, check the environment configuration")
	}
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel), TranslateError: true}

	var db *gorm.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
		if err == nil {
			break
		}
		log.Warn().Err(err).Msg("retrying db connection")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	log.Info().Str("dsn", MaskDSN(dsn)).Msg("database connected")

	if v := strings.ToLower(os.Getenv("MIGRATIONS")); v == "1" || v == "true" || v == "yes" {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		for _, m := range Models() {
			if migErr := db.AutoMigrate(m); migErr != nil {
				return nil, fmt.Errorf("automigrate %T: %w", m, migErr)
			}
		}
	}

	for _, table := range []string{"users", "customers", "offers", "invoices", "counters"} {
		if !db.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}
	if v := strings.ToLower(os.Getenv("DB_SEED")); v == "1" || v == "true" || v == "yes" {
		seed(db, log)
	}
	return db, nil
}

// seed inserts a development login and a minimal service catalog. Idempotent.
func seed(db *gorm.DB, log zerolog.Logger) {
	var count int64
	db.Model(&models.User{}).Count(&count)
	if count == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
		if err == nil {
			db.Create(&models.User{Email: "admin@example.com", Password: string(hash), FirstName: "Admin"})
			log.Info().Msg("seeded development user admin@example.com")
		}
	}
	baseServices := []models.Service{
		{Name: "Beratung", Description: "Beratungsleistung", DefaultPrice: decimal.NewFromInt(120), PriceType: models.PriceHourly},
		{Name: "Projektpauschale", Description: "Pauschale Projektleistung", DefaultPrice: decimal.NewFromInt(950), PriceType: models.PriceFixed},
	}
	for _, s := range baseServices {
		var existing models.Service
		if err := db.Where("name = ?", s.Name).First(&existing).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			db.Create(&s)
		}
	}
}

// runSQLMigrations executes migrations in ./migrations via the file source.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = m.Close()
	}()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
