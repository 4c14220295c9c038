// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/assetgrid/itam-backend/internal/config"
	"github.com/assetgrid/itam-backend/internal/models"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var gormConfig *gorm.Config

	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	err := db.AutoMigrate(
		&models.Product{},
		&models.Vendor{},
		&models.Location{},
		&models.DirectoryUser{},
		&models.Asset{},
		&models.TagSequence{},
		&models.LicensePool{},
		&models.SoftwareInstallation{},
		&models.AuditLog{},
		&models.LabelBatch{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Asset indexes. The unique tag index deliberately covers deleted
		// rows: tags are never reused.
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_assets_tag ON assets(asset_tag)",
		"CREATE INDEX IF NOT EXISTS idx_assets_product ON assets(product_id)",
		"CREATE INDEX IF NOT EXISTS idx_assets_parent ON assets(parent_asset_id)",
		"CREATE INDEX IF NOT EXISTS idx_assets_assignee ON assets(assigned_to)",
		"CREATE INDEX IF NOT EXISTS idx_assets_status_type ON assets(status, asset_type)",
		"CREATE INDEX IF NOT EXISTS idx_assets_live ON assets(deleted_at) WHERE deleted_at IS NULL",

		// Installation indexes; license_id drives the allocation recount.
		"CREATE INDEX IF NOT EXISTS idx_installations_asset ON software_installations(asset_id)",
		"CREATE INDEX IF NOT EXISTS idx_installations_license ON software_installations(license_id)",
		"CREATE INDEX IF NOT EXISTS idx_installations_product ON software_installations(software_product_id)",

		// License pool indexes
		"CREATE INDEX IF NOT EXISTS idx_license_pools_product ON license_pools(software_product_id)",

		// Catalog indexes
		"CREATE INDEX IF NOT EXISTS idx_products_category ON products(category)",
		"CREATE INDEX IF NOT EXISTS idx_directory_users_department ON directory_users(department)",

		// Audit indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
