package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/shopspring/decimal"
	entitydomain "github.com/smallbiznis/offerdesk/internal/entity/domain"
	offerdomain "github.com/smallbiznis/offerdesk/internal/offer/domain"
	pricingdomain "github.com/smallbiznis/offerdesk/internal/pricing/domain"
	sequencedomain "github.com/smallbiznis/offerdesk/internal/sequence/domain"
	taxdomain "github.com/smallbiznis/offerdesk/internal/tax/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// Models lists every table owned by the service.
func Models() []any {
	return []any{
		&sequencedomain.Sequence{},
		&entitydomain.Entity{},
		&pricingdomain.ClientRule{},
		&taxdomain.Tax{},
		&offerdomain.Offer{},
		&offerdomain.Line{},
		&offerdomain.TaxTotal{},
		&offerdomain.HistoryEntry{},
	}
}

// AutoMigrate builds the schema from the gorm models for dialects without
// SQL migrations, then seeds the default taxes.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return SeedTaxes(db)
}

// SeedTaxes inserts the French VAT rates unless their codes already exist.
func SeedTaxes(db *gorm.DB) error {
	seeds := []taxdomain.Tax{
		seedTax(1, "TVA20", "TVA 20%", "TVA 20,0%", "20", 1, true),
		seedTax(2, "TVA10", "TVA 10%", "TVA 10,0%", "10", 2, false),
		seedTax(3, "TVA55", "TVA 5,5%", "TVA 5,5%", "5.5", 3, false),
		seedTax(4, "TVA0", "Exonéré", "TVA 0%", "0", 4, false),
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(&seeds).Error
}

func seedTax(id int64, code, name, label, rate string, sequence int, isDefault bool) taxdomain.Tax {
	return taxdomain.Tax{
		ID:        snowflake.ID(id),
		Code:      code,
		Langs:     datatypes.NewJSONSlice([]taxdomain.Lang{{Name: name, Label: label}}),
		Rate:      decimal.RequireFromString(rate),
		Value:     decimal.Zero,
		Sequence:  sequence,
		Country:   taxdomain.DefaultCountry,
		IsDefault: isDefault,
		IsActive:  true,
	}
}
