// internal/services/suite_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/assetgrid/itam-backend/internal/models"
)

// newTestDB opens an in-memory SQLite database capped at one connection, so
// every transaction sees the same store.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
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
	))

	return db
}

// The schema must migrate on SQLite as written; ids come from the
// BeforeCreate hook, not a database default.
func TestSchemaMigratesWithGeneratedIDs(t *testing.T) {
	db := newTestDB(t)

	product := seedHardwareProduct(t, db, "ThinkPad X1")
	require.NotEqual(t, uuid.Nil, product.ID)

	location := seedLocation(t, db, "HQ 3F")
	require.NotEqual(t, uuid.Nil, location.ID)
	require.NotEqual(t, product.ID, location.ID)
}

func seedHardwareProduct(t *testing.T, db *gorm.DB, name string) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     name,
		Category: models.ProductCategoryHardware,
		IsActive: true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func seedSoftwareProduct(t *testing.T, db *gorm.DB, name string, st models.SoftwareType) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:         name,
		Category:     models.ProductCategorySoftware,
		SoftwareType: &st,
		IsActive:     true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func seedLocation(t *testing.T, db *gorm.DB, name string) *models.Location {
	t.Helper()
	location := &models.Location{Name: name, IsActive: true}
	require.NoError(t, db.Create(location).Error)
	return location
}

func seedDirectoryUser(t *testing.T, db *gorm.DB, username string, locationID *uuid.UUID) *models.DirectoryUser {
	t.Helper()
	user := &models.DirectoryUser{
		Username:   username,
		Email:      username + "@example.com",
		LocationID: locationID,
		IsActive:   true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedLicensePool(t *testing.T, db *gorm.DB, productID uuid.UUID, total int, expiration *time.Time) *models.LicensePool {
	t.Helper()
	pool := &models.LicensePool{
		SoftwareProductID: productID,
		LicenseName:       "Test License",
		LicenseType:       models.LicenseTypePerDevice,
		TotalLicenses:     total,
		ExpirationDate:    expiration,
	}
	require.NoError(t, db.Create(pool).Error)
	return pool
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// assertDomainCode fails unless err is a DomainError carrying the code.
func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	de, ok := AsDomainError(err)
	require.True(t, ok, "expected a domain error, got %v", err)
	require.Equal(t, code, de.Code)
}
