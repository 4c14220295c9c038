// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate fills the ID. Ids are generated application-side so the
// schema migrates identically on postgres and the SQLite test database.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type AssetType string

const (
	AssetTypeStandalone AssetType = "standalone"
	AssetTypeComponent  AssetType = "component"
)

type AssetStatus string

const (
	AssetStatusAvailable   AssetStatus = "available"
	AssetStatusAssigned    AssetStatus = "assigned"
	AssetStatusInUse       AssetStatus = "in_use"
	AssetStatusUnderRepair AssetStatus = "under_repair"
	AssetStatusMaintenance AssetStatus = "maintenance"
	AssetStatusDisposed    AssetStatus = "disposed"
	AssetStatusInTransit   AssetStatus = "in_transit"
	AssetStatusLost        AssetStatus = "lost"
	AssetStatusDamaged     AssetStatus = "damaged"
)

type Importance string

const (
	ImportanceCritical Importance = "critical"
	ImportanceHigh     Importance = "high"
	ImportanceMedium   Importance = "medium"
	ImportanceLow      Importance = "low"
)

type ConditionStatus string

const (
	ConditionExcellent ConditionStatus = "excellent"
	ConditionGood      ConditionStatus = "good"
	ConditionFair      ConditionStatus = "fair"
	ConditionPoor      ConditionStatus = "poor"
)

type ProductCategory string

const (
	ProductCategoryHardware   ProductCategory = "hardware"
	ProductCategorySoftware   ProductCategory = "software"
	ProductCategoryPeripheral ProductCategory = "peripheral"
	ProductCategoryConsumable ProductCategory = "consumable"
)

type SoftwareType string

const (
	SoftwareTypeOperatingSystem SoftwareType = "operating_system"
	SoftwareTypeApplication     SoftwareType = "application"
	SoftwareTypeUtility         SoftwareType = "utility"
	SoftwareTypeDriver          SoftwareType = "driver"
)

type LicenseType string

const (
	LicenseTypePerUser    LicenseType = "per_user"
	LicenseTypePerDevice  LicenseType = "per_device"
	LicenseTypeConcurrent LicenseType = "concurrent"
	LicenseTypeSite       LicenseType = "site"
	LicenseTypeVolume     LicenseType = "volume"
)

type UserRole string

const (
	UserRoleAdmin      UserRole = "admin"
	UserRoleTechnician UserRole = "technician"
	UserRoleViewer     UserRole = "viewer"
)

type LabelBatchStatus string

const (
	LabelBatchStatusCompleted LabelBatchStatus = "completed"
	LabelBatchStatusPartial   LabelBatchStatus = "partial"
	LabelBatchStatusCanceled  LabelBatchStatus = "canceled"
)
