// internal/models/audit.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:255;not null"`
	ResourceType string     `json:"resource_type" gorm:"size:50;index"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid;index"`
	NewValues    JSONB      `json:"new_values,omitempty" gorm:"type:jsonb"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"size:512"`
}

// LabelBatch records the outcome of one bulk label request. Batches are
// best-effort: per-item failures are counted, not rolled back.
type LabelBatch struct {
	BaseModel
	RequestedBy  *uuid.UUID       `json:"requested_by" gorm:"type:uuid;index"`
	AssetIDs     pq.StringArray   `json:"asset_ids" gorm:"type:text[]"`
	ItemCount    int              `json:"item_count" gorm:"not null"`
	SuccessCount int              `json:"success_count" gorm:"not null;default:0"`
	FailureCount int              `json:"failure_count" gorm:"not null;default:0"`
	Status       LabelBatchStatus `json:"status" gorm:"type:varchar(20);not null"`
	ObjectKey    string           `json:"object_key,omitempty" gorm:"size:512"`
}
