// internal/services/installation_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/assetgrid/itam-backend/internal/database"
	"github.com/assetgrid/itam-backend/internal/models"
	"github.com/assetgrid/itam-backend/internal/utils"
)

// InstallationService links assets to software products and, through the
// license pool ledger, to finite license capacity. Writes are all-or-nothing:
// an installation with an invalid license reference is never persisted.
type InstallationService struct {
	db      *gorm.DB
	catalog *CatalogService
	pools   *LicensePoolService
	locks   *utils.KeyedMutex
}

type AddInstallationRequest struct {
	SoftwareProductID uuid.UUID  `json:"software_product_id" validate:"required"`
	LicenseID         *uuid.UUID `json:"license_id,omitempty"`
	Version           string     `json:"version,omitempty" validate:"max=50"`
	InstallationDate  *time.Time `json:"installation_date,omitempty"`
	Notes             string     `json:"notes,omitempty"`
}

// UpdateInstallationRequest is a patch. Setting ClearLicense releases the
// held seat; setting LicenseID moves the installation to another pool.
type UpdateInstallationRequest struct {
	LicenseID        *uuid.UUID `json:"license_id,omitempty"`
	ClearLicense     bool       `json:"clear_license,omitempty"`
	Version          *string    `json:"version,omitempty" validate:"omitempty,max=50"`
	InstallationDate *time.Time `json:"installation_date,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
}

func NewInstallationService(db *gorm.DB, catalog *CatalogService, pools *LicensePoolService, locks *utils.KeyedMutex) *InstallationService {
	return &InstallationService{db: db, catalog: catalog, pools: pools, locks: locks}
}

// AddInstallation validates in a fixed order: the asset must exist and be
// live, the product must resolve to an active software product, and any
// license reference must pass the pool guard. Only then is the row written.
func (s *InstallationService) AddInstallation(assetID uuid.UUID, req *AddInstallationRequest) (*models.SoftwareInstallation, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, NewDomainError(CodeValidationFailed, err.Error())
	}

	unlockAsset := s.locks.Lock(assetLockKey(assetID))
	defer unlockAsset()

	if req.LicenseID != nil {
		unlockPool := s.locks.Lock(poolLockKey(*req.LicenseID))
		defer unlockPool()
	}

	// Catalog lookups stay outside the transaction; the allocation path
	// never holds a transaction open across a catalog read.
	product, err := s.catalog.ResolveSoftwareProduct(req.SoftwareProductID)
	if err != nil {
		return nil, err
	}

	// software_type comes from the catalog, never the caller.
	softwareType := models.SoftwareTypeApplication
	if product.SoftwareType != nil {
		softwareType = *product.SoftwareType
	}

	var installation *models.SoftwareInstallation
	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var asset models.Asset
		if err := tx.First(&asset, "id = ?", assetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("asset")
			}
			return fmt.Errorf("database error: %w", err)
		}
		if asset.IsDeleted() {
			return NewDomainError(CodeAlreadyDeleted,
				"cannot install software on a deleted asset")
		}

		installation = &models.SoftwareInstallation{
			AssetID:           assetID,
			SoftwareProductID: req.SoftwareProductID,
			SoftwareType:      softwareType,
			Version:           req.Version,
			InstallationDate:  req.InstallationDate,
			Notes:             req.Notes,
		}

		if req.LicenseID != nil {
			var pool models.LicensePool
			if err := tx.First(&pool, "id = ?", *req.LicenseID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return NewFieldError(CodeValidationFailed,
						"license pool does not exist", "license_id")
				}
				return fmt.Errorf("database error: %w", err)
			}

			if err := guardAllocation(tx, &pool, req.SoftwareProductID,
				req.InstallationDate, nil); err != nil {
				return err
			}
			installation.LicenseID = req.LicenseID
		}

		return tx.Create(installation).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetInstallation(installation.ID)
}

// UpdateInstallation edits an installation. A pool change is committed as a
// single logical operation: the new pool is validated (excluding this
// installation's own seat) before the binding moves, and any failure rolls
// back with the old allocation intact.
func (s *InstallationService) UpdateInstallation(id uuid.UUID, req *UpdateInstallationRequest) (*models.SoftwareInstallation, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, NewDomainError(CodeValidationFailed, err.Error())
	}

	var current models.SoftwareInstallation
	if err := s.db.First(&current, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("software installation")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	unlockAsset := s.locks.Lock(assetLockKey(current.AssetID))
	defer unlockAsset()

	// The binding may have moved between the first read and lock
	// acquisition; re-read under the asset lock so the pool lock set
	// covers the pool actually held.
	if err := s.db.First(&current, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("software installation")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	// Lock every pool this edit can touch, in sorted order.
	var poolKeys []string
	if current.LicenseID != nil {
		poolKeys = append(poolKeys, poolLockKey(*current.LicenseID))
	}
	if req.LicenseID != nil {
		poolKeys = append(poolKeys, poolLockKey(*req.LicenseID))
	}
	if len(poolKeys) > 0 {
		unlockPools := s.locks.LockAll(poolKeys)
		defer unlockPools()
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var installation models.SoftwareInstallation
		if err := tx.First(&installation, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("software installation")
			}
			return fmt.Errorf("database error: %w", err)
		}

		var asset models.Asset
		if err := tx.First(&asset, "id = ?", installation.AssetID).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if asset.IsDeleted() {
			return NewDomainError(CodeAlreadyDeleted,
				"cannot edit installations on a deleted asset")
		}

		if req.Version != nil {
			installation.Version = *req.Version
		}
		if req.InstallationDate != nil {
			installation.InstallationDate = req.InstallationDate
		}
		if req.Notes != nil {
			installation.Notes = *req.Notes
		}

		switch {
		case req.ClearLicense:
			installation.LicenseID = nil

		case req.LicenseID != nil:
			sameKept := installation.LicenseID != nil && *installation.LicenseID == *req.LicenseID
			var pool models.LicensePool
			if err := tx.First(&pool, "id = ?", *req.LicenseID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return NewFieldError(CodeValidationFailed,
						"license pool does not exist", "license_id")
				}
				return fmt.Errorf("database error: %w", err)
			}

			// Re-validation excludes this installation's own seat (it is
			// the one being edited), so keeping the same pool while only
			// changing metadata is not a second consumption.
			if err := guardAllocation(tx, &pool, installation.SoftwareProductID,
				installation.InstallationDate, &installation.ID); err != nil {
				return err
			}
			if !sameKept {
				installation.LicenseID = req.LicenseID
			}

		case installation.LicenseID != nil && req.InstallationDate != nil:
			// Date moved while a pool is held: it must still fall inside
			// the license term.
			var pool models.LicensePool
			if err := tx.First(&pool, "id = ?", *installation.LicenseID).Error; err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			if err := guardAllocation(tx, &pool, installation.SoftwareProductID,
				installation.InstallationDate, &installation.ID); err != nil {
				return err
			}
		}

		return tx.Save(&installation).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetInstallation(id)
}

// RemoveInstallation deletes the record. Any held seat is freed implicitly:
// allocation counts are derived from live installation rows.
func (s *InstallationService) RemoveInstallation(id uuid.UUID) error {
	var installation models.SoftwareInstallation
	if err := s.db.First(&installation, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("software installation")
		}
		return fmt.Errorf("database error: %w", err)
	}

	unlockAsset := s.locks.Lock(assetLockKey(installation.AssetID))
	defer unlockAsset()

	if installation.LicenseID != nil {
		unlockPool := s.locks.Lock(poolLockKey(*installation.LicenseID))
		defer unlockPool()
	}

	if err := s.db.Delete(&models.SoftwareInstallation{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to remove installation: %w", err)
	}
	return nil
}

func (s *InstallationService) GetInstallation(id uuid.UUID) (*models.SoftwareInstallation, error) {
	var installation models.SoftwareInstallation
	if err := s.db.Preload("SoftwareProduct").Preload("License").
		First(&installation, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("software installation")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &installation, nil
}

// ListForAsset returns the asset's installations, including those on a
// soft-deleted asset (they remain visible as historical consumption).
func (s *InstallationService) ListForAsset(assetID uuid.UUID) ([]models.SoftwareInstallation, error) {
	var exists int64
	if err := s.db.Model(&models.Asset{}).Where("id = ?", assetID).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if exists == 0 {
		return nil, notFound("asset")
	}

	var installations []models.SoftwareInstallation
	if err := s.db.Preload("SoftwareProduct").Preload("License").
		Where("asset_id = ?", assetID).
		Order("created_at asc").
		Find(&installations).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch installations: %w", err)
	}

	return installations, nil
}
