// internal/services/license_pool_service.go
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

// LicensePoolService is the ledger for finite license capacity. All
// mutations of a pool's consumption happen under that pool's keyed lock, so
// the recount of allocated_count and the write that consumes a seat form one
// critical section: two installers racing for the last seat cannot both win.
type LicensePoolService struct {
	db    *gorm.DB
	locks *utils.KeyedMutex
}

type CreateLicensePoolRequest struct {
	SoftwareProductID uuid.UUID  `json:"software_product_id" validate:"required"`
	LicenseName       string     `json:"license_name" validate:"required,max=255"`
	LicenseType       string     `json:"license_type" validate:"required,license_type"`
	TotalLicenses     int        `json:"total_licenses" validate:"required,gt=0"`
	ExpirationDate    *time.Time `json:"expiration_date,omitempty"`
	LicenseKey        string     `json:"license_key,omitempty"`
	Notes             string     `json:"notes,omitempty"`
}

type UpdateLicensePoolRequest struct {
	LicenseName    *string    `json:"license_name,omitempty" validate:"omitempty,max=255"`
	TotalLicenses  *int       `json:"total_licenses,omitempty" validate:"omitempty,gt=0"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
}

func NewLicensePoolService(db *gorm.DB, locks *utils.KeyedMutex) *LicensePoolService {
	return &LicensePoolService{db: db, locks: locks}
}

func poolLockKey(id uuid.UUID) string {
	return "pool:" + id.String()
}

// countAllocations counts active seats: installations referencing the pool
// whose asset is not soft-deleted. exclude removes the installation being
// edited from its own count during re-validation.
func countAllocations(tx *gorm.DB, poolID uuid.UUID, exclude *uuid.UUID) (int64, error) {
	query := tx.Model(&models.SoftwareInstallation{}).
		Joins("JOIN assets ON assets.id = software_installations.asset_id").
		Where("software_installations.license_id = ? AND assets.deleted_at IS NULL", poolID)

	if exclude != nil {
		query = query.Where("software_installations.id != ?", *exclude)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count allocations: %w", err)
	}
	return count, nil
}

// guardAllocation applies the allocation invariants against a pool already
// loaded inside the caller's transaction. The caller must hold the pool's
// keyed lock.
func guardAllocation(tx *gorm.DB, pool *models.LicensePool, softwareProductID uuid.UUID, installationDate *time.Time, exclude *uuid.UUID) error {
	if pool.SoftwareProductID != softwareProductID {
		return NewFieldError(CodePoolMismatch,
			"license pool is for a different software product", "license_id")
	}

	if installationDate != nil && pool.ExpirationDate != nil && installationDate.After(*pool.ExpirationDate) {
		return NewFieldError(CodeDateAfterExpiration,
			"installation date is after the license expiration date", "installation_date")
	}

	allocated, err := countAllocations(tx, pool.ID, exclude)
	if err != nil {
		return err
	}
	if allocated >= int64(pool.TotalLicenses) {
		return NewDomainError(CodePoolExhausted,
			fmt.Sprintf("license pool %q has no available licenses (%d/%d allocated)",
				pool.LicenseName, allocated, pool.TotalLicenses))
	}

	return nil
}

// Allocate binds an existing installation to a pool. Re-allocating an
// installation to the pool it already holds is a no-op, not a second seat.
func (s *LicensePoolService) Allocate(poolID, installationID uuid.UUID) error {
	unlock := s.locks.Lock(poolLockKey(poolID))
	defer unlock()

	return database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var installation models.SoftwareInstallation
		if err := tx.First(&installation, "id = ?", installationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("software installation")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if installation.LicenseID != nil && *installation.LicenseID == poolID {
			return nil
		}

		var pool models.LicensePool
		if err := tx.First(&pool, "id = ?", poolID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("license pool")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if err := guardAllocation(tx, &pool, installation.SoftwareProductID,
			installation.InstallationDate, &installation.ID); err != nil {
			return err
		}

		return tx.Model(&installation).Update("license_id", poolID).Error
	})
}

// Release frees the seat held by an installation. Idempotent: releasing an
// installation that does not hold the pool is a no-op.
func (s *LicensePoolService) Release(poolID, installationID uuid.UUID) error {
	unlock := s.locks.Lock(poolLockKey(poolID))
	defer unlock()

	result := s.db.Model(&models.SoftwareInstallation{}).
		Where("id = ? AND license_id = ?", installationID, poolID).
		Update("license_id", nil)
	if result.Error != nil {
		return fmt.Errorf("failed to release allocation: %w", result.Error)
	}
	return nil
}

func (s *LicensePoolService) AvailableCount(poolID uuid.UUID) (int, error) {
	var pool models.LicensePool
	if err := s.db.First(&pool, "id = ?", poolID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, notFound("license pool")
		}
		return 0, fmt.Errorf("database error: %w", err)
	}

	allocated, err := countAllocations(s.db, poolID, nil)
	if err != nil {
		return 0, err
	}

	return pool.TotalLicenses - int(allocated), nil
}

func (s *LicensePoolService) CreateLicensePool(req *CreateLicensePoolRequest) (*models.LicensePool, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, NewDomainError(CodeValidationFailed, err.Error())
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", req.SoftwareProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewFieldError(CodeValidationFailed,
				"software product does not exist", "software_product_id")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !product.IsSoftware() {
		return nil, NewFieldError(CodeValidationFailed,
			"license pools require a software product", "software_product_id")
	}

	pool := &models.LicensePool{
		SoftwareProductID: req.SoftwareProductID,
		LicenseName:       req.LicenseName,
		LicenseType:       models.LicenseType(req.LicenseType),
		TotalLicenses:     req.TotalLicenses,
		ExpirationDate:    req.ExpirationDate,
		LicenseKey:        req.LicenseKey,
		Notes:             req.Notes,
	}

	if err := s.db.Create(pool).Error; err != nil {
		return nil, fmt.Errorf("failed to create license pool: %w", err)
	}

	pool.AvailableLicenses = pool.TotalLicenses
	return pool, nil
}

// UpdateLicensePool adjusts pool metadata. Shrinking total_licenses below
// the current allocated count is rejected, so over-allocation cannot happen
// from the capacity side either.
func (s *LicensePoolService) UpdateLicensePool(id uuid.UUID, req *UpdateLicensePoolRequest) (*models.LicensePool, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, NewDomainError(CodeValidationFailed, err.Error())
	}

	unlock := s.locks.Lock(poolLockKey(id))
	defer unlock()

	var pool models.LicensePool
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.First(&pool, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("license pool")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if req.TotalLicenses != nil {
			allocated, err := countAllocations(tx, id, nil)
			if err != nil {
				return err
			}
			if int64(*req.TotalLicenses) < allocated {
				return NewFieldError(CodeValidationFailed,
					fmt.Sprintf("cannot shrink pool below %d allocated seats", allocated),
					"total_licenses")
			}
			pool.TotalLicenses = *req.TotalLicenses
		}

		if req.LicenseName != nil {
			pool.LicenseName = *req.LicenseName
		}
		if req.ExpirationDate != nil {
			pool.ExpirationDate = req.ExpirationDate
		}
		if req.Notes != nil {
			pool.Notes = *req.Notes
		}

		return tx.Save(&pool).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetLicensePool(id)
}

// GetLicensePool loads a pool with its derived counts filled in.
func (s *LicensePoolService) GetLicensePool(id uuid.UUID) (*models.LicensePool, error) {
	var pool models.LicensePool
	if err := s.db.Preload("SoftwareProduct").First(&pool, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("license pool")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	allocated, err := countAllocations(s.db, id, nil)
	if err != nil {
		return nil, err
	}

	pool.AllocatedCount = int(allocated)
	pool.AvailableLicenses = pool.TotalLicenses - int(allocated)
	return &pool, nil
}

// ListLicensePools returns pools, optionally filtered by software product,
// each with allocated_count / available_licenses derived for display.
func (s *LicensePoolService) ListLicensePools(params utils.PaginationParams, productID *uuid.UUID) ([]models.LicensePool, int64, error) {
	query := s.db.Model(&models.LicensePool{}).Preload("SoftwareProduct")

	if productID != nil {
		query = query.Where("software_product_id = ?", *productID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count license pools: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "license_name", "expiration_date"})
	query = utils.ApplyPagination(query, params)

	var pools []models.LicensePool
	if err := query.Find(&pools).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch license pools: %w", err)
	}

	for i := range pools {
		allocated, err := countAllocations(s.db, pools[i].ID, nil)
		if err != nil {
			return nil, 0, err
		}
		pools[i].AllocatedCount = int(allocated)
		pools[i].AvailableLicenses = pools[i].TotalLicenses - int(allocated)
	}

	return pools, total, nil
}
