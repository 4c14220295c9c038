// internal/models/asset.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Asset is a physical or virtual inventory item. Soft delete is modeled as a
// plain nullable timestamp rather than gorm.DeletedAt: the engine routinely
// reads deleted rows (restore, tag uniqueness, parent checks), so the
// automatic query scoping would get in the way.
type Asset struct {
	BaseModel
	AssetTag     string    `json:"asset_tag" gorm:"size:50;not null;uniqueIndex"`
	SerialNumber string    `json:"serial_number" gorm:"size:255;not null;index"`
	ProductID    uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	AssetType    AssetType `json:"asset_type" gorm:"type:varchar(20);not null;default:'standalone';index"`

	// Component placement. ParentAssetID must be null unless AssetType is
	// component; the referenced asset must be a live standalone asset.
	ParentAssetID     *uuid.UUID `json:"parent_asset_id" gorm:"type:uuid;index"`
	InstallationNotes string     `json:"installation_notes,omitempty" gorm:"type:text"`

	AssignedTo *uuid.UUID  `json:"assigned_to" gorm:"type:uuid;index"`
	LocationID *uuid.UUID  `json:"location_id" gorm:"type:uuid;index"`
	Status     AssetStatus `json:"status" gorm:"type:varchar(20);not null;default:'available';index"`

	Importance      Importance      `json:"importance" gorm:"type:varchar(10);default:'medium'"`
	ConditionStatus ConditionStatus `json:"condition_status" gorm:"type:varchar(10);default:'good'"`

	WarrantyStartDate *time.Time `json:"warranty_start_date"`
	WarrantyEndDate   *time.Time `json:"warranty_end_date"`
	EOLDate           *time.Time `json:"eol_date"`
	EOSDate           *time.Time `json:"eos_date"`

	VendorID      *uuid.UUID `json:"vendor_id" gorm:"type:uuid;index"`
	InvoiceNumber string     `json:"invoice_number" gorm:"size:100"`
	PurchaseCost  float64    `json:"purchase_cost" gorm:"type:decimal(12,2);default:0"`
	PurchaseDate  *time.Time `json:"purchase_date"`

	Specifications JSONB `json:"specifications,omitempty" gorm:"type:jsonb"`

	DeletedAt *time.Time `json:"deleted_at,omitempty" gorm:"index"`

	// Relationships
	Product       *Product               `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	ParentAsset   *Asset                 `json:"parent_asset,omitempty" gorm:"foreignKey:ParentAssetID"`
	Components    []Asset                `json:"components,omitempty" gorm:"foreignKey:ParentAssetID"`
	Assignee      *DirectoryUser         `json:"assignee,omitempty" gorm:"foreignKey:AssignedTo"`
	Location      *Location              `json:"location,omitempty" gorm:"foreignKey:LocationID"`
	Vendor        *Vendor                `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
	Installations []SoftwareInstallation `json:"installations,omitempty" gorm:"foreignKey:AssetID"`
}

func (a *Asset) IsDeleted() bool {
	return a.DeletedAt != nil
}

// TagSequence holds the per-product counter behind asset tag generation.
// Counters only ever grow, so tags are never reused (deleted assets included).
type TagSequence struct {
	ProductID uuid.UUID `gorm:"type:uuid;primary_key"`
	Prefix    string    `gorm:"size:10;not null"`
	LastValue int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

func (TagSequence) TableName() string { return "tag_sequences" }
