// internal/models/catalog.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product is a catalog entry. Hardware products are instantiated as assets;
// software products are referenced by installations and license pools.
type Product struct {
	BaseModel
	Name         string          `json:"name" gorm:"size:255;not null;index"`
	Category     ProductCategory `json:"category" gorm:"type:varchar(20);not null;index"`
	Manufacturer string          `json:"manufacturer" gorm:"size:255"`
	ModelNumber  string          `json:"model_number" gorm:"size:100"`
	SoftwareType *SoftwareType   `json:"software_type,omitempty" gorm:"type:varchar(20)"`
	Description  string          `json:"description" gorm:"type:text"`
	Tags         pq.StringArray  `json:"tags" gorm:"type:text[]"`
	IsActive     bool            `json:"is_active" gorm:"default:true"`
}

// IsSoftware reports whether the product can back a software installation.
func (p *Product) IsSoftware() bool {
	return p.Category == ProductCategorySoftware
}

type Vendor struct {
	BaseModel
	Name         string `json:"name" gorm:"size:255;not null"`
	ContactEmail string `json:"contact_email" gorm:"size:255"`
	ContactPhone string `json:"contact_phone" gorm:"size:50"`
	Website      string `json:"website" gorm:"size:255"`
	IsActive     bool   `json:"is_active" gorm:"default:true"`
}

type Location struct {
	BaseModel
	Name     string `json:"name" gorm:"size:255;not null"`
	Building string `json:"building" gorm:"size:100"`
	Floor    string `json:"floor" gorm:"size:50"`
	Room     string `json:"room" gorm:"size:50"`
	Address  string `json:"address" gorm:"type:text"`
	IsActive bool   `json:"is_active" gorm:"default:true"`
}

// DirectoryUser is an assignee synced from the upstream directory, not a
// login account. Assigned assets inherit the user's home location.
type DirectoryUser struct {
	BaseModel
	Username   string     `json:"username" gorm:"size:100;not null;uniqueIndex"`
	FullName   string     `json:"full_name" gorm:"size:255"`
	Email      string     `json:"email" gorm:"size:255;uniqueIndex"`
	Department string     `json:"department" gorm:"size:100;index"`
	LocationID *uuid.UUID `json:"location_id" gorm:"type:uuid"`
	IsActive   bool       `json:"is_active" gorm:"default:true"`

	Location *Location `json:"location,omitempty" gorm:"foreignKey:LocationID"`
}
