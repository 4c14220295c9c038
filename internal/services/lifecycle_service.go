// internal/services/lifecycle_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/assetgrid/itam-backend/internal/config"
	"github.com/assetgrid/itam-backend/internal/database"
	"github.com/assetgrid/itam-backend/internal/models"
	"github.com/assetgrid/itam-backend/internal/utils"
)

// LifecycleService owns the soft-delete/restore state machine and the bulk
// label guard. Soft delete leaves software installations and license
// allocations in place: a deleted asset may come back, and eagerly freed
// seats could be consumed by someone else in the meantime.
type LifecycleService struct {
	db       *gorm.DB
	locks    *utils.KeyedMutex
	storage  *StorageService
	renderer LabelRenderer
	labels   config.LabelConfig
}

// LabelRenderer produces the printable payload for one asset. The real
// renderer is a downstream collaborator; TextLabelRenderer is the built-in
// fallback.
type LabelRenderer interface {
	Render(ctx context.Context, asset *models.Asset) ([]byte, error)
}

type LabelItemResult struct {
	AssetID uuid.UUID `json:"asset_id"`
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
}

type LabelBatchResult struct {
	BatchID      uuid.UUID         `json:"batch_id"`
	Status       models.LabelBatchStatus `json:"status"`
	SuccessCount int               `json:"success_count"`
	FailureCount int               `json:"failure_count"`
	ObjectKey    string            `json:"object_key,omitempty"`
	Items        []LabelItemResult `json:"items"`
}

func NewLifecycleService(db *gorm.DB, locks *utils.KeyedMutex, storage *StorageService, renderer LabelRenderer, labels config.LabelConfig) *LifecycleService {
	if renderer == nil {
		renderer = &TextLabelRenderer{}
	}
	return &LifecycleService{
		db:       db,
		locks:    locks,
		storage:  storage,
		renderer: renderer,
		labels:   labels,
	}
}

// SoftDelete marks the asset deleted. Its installations and license seats
// stay put; the asset simply leaves default listings, parent eligibility,
// and capacity accounting. Deleting a parent with live components is
// rejected so the components' parent links stay valid.
func (s *LifecycleService) SoftDelete(id uuid.UUID) error {
	unlock := s.locks.Lock(assetLockKey(id))
	defer unlock()

	return database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var asset models.Asset
		if err := tx.First(&asset, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("asset")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if asset.IsDeleted() {
			return NewDomainError(CodeAlreadyDeleted, "asset is already deleted")
		}

		var childCount int64
		if err := tx.Model(&models.Asset{}).
			Where("parent_asset_id = ? AND deleted_at IS NULL", id).
			Count(&childCount).Error; err != nil {
			return fmt.Errorf("failed to count components: %w", err)
		}
		if childCount > 0 {
			return NewDomainError(CodeStructuralViolation,
				"asset has installed components; remove them before deleting")
		}

		now := time.Now()
		asset.DeletedAt = &now
		return tx.Save(&asset).Error
	})
}

// Restore clears the delete marker and re-validates the structural and
// capacity invariants: the world may have changed while the asset was gone.
// A parent that disappeared or a license seat that was re-consumed fails the
// restore; nothing is silently dropped.
func (s *LifecycleService) Restore(id uuid.UUID) (*models.Asset, error) {
	unlockAsset := s.locks.Lock(assetLockKey(id))
	defer unlockAsset()

	// Every pool the asset's installations hold must be locked: restoring
	// re-enters those seats into capacity accounting.
	var held []models.SoftwareInstallation
	if err := s.db.Where("asset_id = ? AND license_id IS NOT NULL", id).
		Find(&held).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	poolKeys := make([]string, 0, len(held))
	for _, inst := range held {
		poolKeys = append(poolKeys, poolLockKey(*inst.LicenseID))
	}
	if len(poolKeys) > 0 {
		unlockPools := s.locks.LockAll(poolKeys)
		defer unlockPools()
	}

	var restored models.Asset
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.First(&restored, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("asset")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if !restored.IsDeleted() {
			return NewDomainError(CodeNotDeleted, "asset is not deleted")
		}

		// A component's parent must still be live and standalone.
		if restored.ParentAssetID != nil {
			if err := validateParent(tx, *restored.ParentAssetID); err != nil {
				if de, ok := AsDomainError(err); ok {
					return NewDomainError(CodeRestoreConflict,
						"parent is no longer valid: "+de.Message)
				}
				return err
			}
		}

		// Backstop in case assignment data drifted while deleted; components
		// are never assigned.
		if restored.AssetType == models.AssetTypeComponent && restored.AssignedTo != nil {
			restored.AssignedTo = nil
		}

		restored.DeletedAt = nil
		if err := tx.Save(&restored).Error; err != nil {
			return fmt.Errorf("failed to restore asset: %w", err)
		}

		// With the asset live again, every held pool must still have
		// room for its seats. The recount includes this asset's own rows
		// because deleted_at is already cleared inside this transaction.
		checked := make(map[uuid.UUID]bool)
		for _, inst := range held {
			poolID := *inst.LicenseID
			if checked[poolID] {
				continue
			}
			checked[poolID] = true

			var pool models.LicensePool
			if err := tx.First(&pool, "id = ?", poolID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return NewDomainError(CodeRestoreConflict,
						"a held license pool no longer exists")
				}
				return fmt.Errorf("database error: %w", err)
			}

			allocated, err := countAllocations(tx, poolID, nil)
			if err != nil {
				return err
			}
			if allocated > int64(pool.TotalLicenses) {
				return NewDomainError(CodeRestoreConflict,
					fmt.Sprintf("license pool %q no longer has capacity for this asset's installations",
						pool.LicenseName))
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &restored, nil
}

// GenerateLabels renders labels for the given assets. The request is capped
// before any work begins; past the guard, items are processed independently
// (a failure on one asset does not roll back the others) with cooperative
// cancellation. The finished sheet is handed to the storage service.
func (s *LifecycleService) GenerateLabels(ctx context.Context, assetIDs []uuid.UUID, requestedBy *uuid.UUID) (*LabelBatchResult, error) {
	if len(assetIDs) == 0 {
		return nil, NewDomainError(CodeValidationFailed, "no assets selected")
	}
	if len(assetIDs) > s.labels.MaxBulkAssets {
		return nil, NewDomainError(CodeTooManyAssets,
			fmt.Sprintf("label generation is capped at %d assets per request (%d requested)",
				s.labels.MaxBulkAssets, len(assetIDs)))
	}

	results := make([]LabelItemResult, len(assetIDs))
	payloads := make([][]byte, len(assetIDs))

	workers := s.labels.Workers
	if workers <= 0 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	for i, assetID := range assetIDs {
		i, assetID := i, assetID
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			item := LabelItemResult{AssetID: assetID}

			var asset models.Asset
			err := s.db.Preload("Product").Preload("Location").
				First(&asset, "id = ?", assetID).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				item.Error = "asset not found"
			case err != nil:
				item.Error = "lookup failed"
			case asset.IsDeleted():
				item.Error = "asset is deleted"
			default:
				payload, rerr := s.renderer.Render(gctx, &asset)
				if rerr != nil {
					item.Error = rerr.Error()
				} else {
					item.Success = true
					mu.Lock()
					payloads[i] = payload
					mu.Unlock()
				}
			}

			mu.Lock()
			results[i] = item
			mu.Unlock()
			return nil
		})
	}

	canceled := false
	if err := g.Wait(); err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("label generation failed: %w", err)
		}
		canceled = true
	}

	var sheet []byte
	successCount, failureCount := 0, 0
	ids := make([]string, len(assetIDs))
	for i, assetID := range assetIDs {
		ids[i] = assetID.String()
		if results[i].Success {
			successCount++
			sheet = append(sheet, payloads[i]...)
		} else {
			failureCount++
			if canceled && results[i].Error == "" {
				results[i] = LabelItemResult{AssetID: assetID, Error: "canceled"}
			}
		}
	}

	status := models.LabelBatchStatusCompleted
	switch {
	case canceled:
		status = models.LabelBatchStatusCanceled
	case failureCount > 0:
		status = models.LabelBatchStatusPartial
	}

	batch := &models.LabelBatch{
		RequestedBy:  requestedBy,
		AssetIDs:     ids,
		ItemCount:    len(assetIDs),
		SuccessCount: successCount,
		FailureCount: failureCount,
		Status:       status,
	}

	if successCount > 0 && s.storage != nil {
		upload, err := s.storage.UploadLabelSheet(sheet)
		if err != nil {
			logrus.WithError(err).Warn("Failed to store label sheet")
		} else {
			batch.ObjectKey = upload.Key
		}
	}

	if err := s.db.Create(batch).Error; err != nil {
		return nil, fmt.Errorf("failed to record label batch: %w", err)
	}

	return &LabelBatchResult{
		BatchID:      batch.ID,
		Status:       status,
		SuccessCount: successCount,
		FailureCount: failureCount,
		ObjectKey:    batch.ObjectKey,
		Items:        results,
	}, nil
}

// ReleaseExpiredHolds frees license seats still held by assets that have
// been soft-deleted for longer than the retention window. This is an
// explicit maintenance operation, not an automatic rule: when and whether to
// reclaim is a policy call.
func (s *LifecycleService) ReleaseExpiredHolds(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)

	var held []models.SoftwareInstallation
	if err := s.db.
		Joins("JOIN assets ON assets.id = software_installations.asset_id").
		Where("software_installations.license_id IS NOT NULL").
		Where("assets.deleted_at IS NOT NULL AND assets.deleted_at < ?", cutoff).
		Find(&held).Error; err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}

	if len(held) == 0 {
		return 0, nil
	}

	poolKeys := make([]string, 0, len(held))
	for _, inst := range held {
		poolKeys = append(poolKeys, poolLockKey(*inst.LicenseID))
	}
	unlockPools := s.locks.LockAll(poolKeys)
	defer unlockPools()

	var released int64
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		for _, inst := range held {
			result := tx.Model(&models.SoftwareInstallation{}).
				Where("id = ? AND license_id = ?", inst.ID, *inst.LicenseID).
				Update("license_id", nil)
			if result.Error != nil {
				return fmt.Errorf("failed to release hold: %w", result.Error)
			}
			released += result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logrus.WithField("released", released).Info("Released expired license holds")
	return released, nil
}

// TextLabelRenderer is the built-in renderer: one plain-text block per
// asset, enough for thermal printers and tests. The production PDF renderer
// lives downstream.
type TextLabelRenderer struct{}

func (r *TextLabelRenderer) Render(ctx context.Context, asset *models.Asset) ([]byte, error) {
	productName := ""
	if asset.Product != nil {
		productName = asset.Product.Name
	}
	locationName := ""
	if asset.Location != nil {
		locationName = asset.Location.Name
	}

	label := fmt.Sprintf("TAG: %s\nSN: %s\nPRODUCT: %s\nLOCATION: %s\n\n",
		asset.AssetTag, asset.SerialNumber, productName, locationName)
	return []byte(label), nil
}
