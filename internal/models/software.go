// internal/models/software.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// LicensePool is a finite-capacity grant of licenses for one software
// product. AllocatedCount is never stored; it is derived from the active
// installations referencing the pool.
type LicensePool struct {
	BaseModel
	SoftwareProductID uuid.UUID   `json:"software_product_id" gorm:"type:uuid;not null;index"`
	LicenseName       string      `json:"license_name" gorm:"size:255;not null"`
	LicenseType       LicenseType `json:"license_type" gorm:"type:varchar(20);not null"`
	TotalLicenses     int         `json:"total_licenses" gorm:"not null"`
	ExpirationDate    *time.Time  `json:"expiration_date"`
	LicenseKey        string      `json:"license_key,omitempty" gorm:"size:512"`
	Notes             string      `json:"notes,omitempty" gorm:"type:text"`

	// Derived, populated by the ledger on read paths.
	AllocatedCount    int `json:"allocated_count" gorm:"-"`
	AvailableLicenses int `json:"available_licenses" gorm:"-"`

	SoftwareProduct *Product `json:"software_product,omitempty" gorm:"foreignKey:SoftwareProductID"`
}

// SoftwareInstallation links an asset to a software product and, optionally,
// to a license pool seat. SoftwareType is derived from the product at write
// time and never trusted from the caller.
type SoftwareInstallation struct {
	BaseModel
	AssetID           uuid.UUID    `json:"asset_id" gorm:"type:uuid;not null;index"`
	SoftwareProductID uuid.UUID    `json:"software_product_id" gorm:"type:uuid;not null;index"`
	SoftwareType      SoftwareType `json:"software_type" gorm:"type:varchar(20);not null"`
	LicenseID         *uuid.UUID   `json:"license_id" gorm:"type:uuid;index"`
	Version           string       `json:"version,omitempty" gorm:"size:50"`
	InstallationDate  *time.Time   `json:"installation_date"`
	Notes             string       `json:"notes,omitempty" gorm:"type:text"`

	Asset           *Asset       `json:"asset,omitempty" gorm:"foreignKey:AssetID"`
	SoftwareProduct *Product     `json:"software_product,omitempty" gorm:"foreignKey:SoftwareProductID"`
	License         *LicensePool `json:"license,omitempty" gorm:"foreignKey:LicenseID"`
}
