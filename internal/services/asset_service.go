// internal/services/asset_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/assetgrid/itam-backend/internal/config"
	"github.com/assetgrid/itam-backend/internal/database"
	"github.com/assetgrid/itam-backend/internal/models"
	"github.com/assetgrid/itam-backend/internal/utils"
)

// AssetService owns asset records, parent/child links, and assignment state.
// Structural mutations of one asset are serialized under the asset's keyed
// lock; edits to different assets do not block each other.
type AssetService struct {
	db      *gorm.DB
	catalog *CatalogService
	locks   *utils.KeyedMutex
	policy  config.PolicyConfig
}

type CreateAssetRequest struct {
	SerialNumber      string     `json:"serial_number" validate:"required,max=255"`
	ProductID         uuid.UUID  `json:"product_id" validate:"required"`
	AssetType         string     `json:"asset_type" validate:"required,asset_type"`
	ParentAssetID     *uuid.UUID `json:"parent_asset_id,omitempty"`
	InstallationNotes string     `json:"installation_notes,omitempty"`
	LocationID        *uuid.UUID `json:"location_id,omitempty"`
	Status            string     `json:"status,omitempty" validate:"omitempty,asset_status"`
	Importance        string     `json:"importance,omitempty" validate:"omitempty,importance"`
	ConditionStatus   string     `json:"condition_status,omitempty" validate:"omitempty,condition_status"`
	WarrantyStartDate *time.Time `json:"warranty_start_date,omitempty"`
	WarrantyEndDate   *time.Time `json:"warranty_end_date,omitempty"`
	EOLDate           *time.Time `json:"eol_date,omitempty"`
	EOSDate           *time.Time `json:"eos_date,omitempty"`
	VendorID          *uuid.UUID `json:"vendor_id,omitempty"`
	InvoiceNumber     string     `json:"invoice_number,omitempty" validate:"max=100"`
	PurchaseCost      float64    `json:"purchase_cost,omitempty" validate:"omitempty,gte=0"`
	PurchaseDate      *time.Time `json:"purchase_date,omitempty"`
	Specifications    map[string]interface{} `json:"specifications,omitempty"`
}

// UpdateAssetRequest is a patch: nil fields are left untouched.
type UpdateAssetRequest struct {
	SerialNumber      *string    `json:"serial_number,omitempty" validate:"omitempty,max=255"`
	AssetType         *string    `json:"asset_type,omitempty" validate:"omitempty,asset_type"`
	ParentAssetID     *uuid.UUID `json:"parent_asset_id,omitempty"`
	ClearParent       bool       `json:"clear_parent,omitempty"`
	InstallationNotes *string    `json:"installation_notes,omitempty"`
	LocationID        *uuid.UUID `json:"location_id,omitempty"`
	Importance        *string    `json:"importance,omitempty" validate:"omitempty,importance"`
	ConditionStatus   *string    `json:"condition_status,omitempty" validate:"omitempty,condition_status"`
	WarrantyStartDate *time.Time `json:"warranty_start_date,omitempty"`
	WarrantyEndDate   *time.Time `json:"warranty_end_date,omitempty"`
	EOLDate           *time.Time `json:"eol_date,omitempty"`
	EOSDate           *time.Time `json:"eos_date,omitempty"`
	VendorID          *uuid.UUID `json:"vendor_id,omitempty"`
	InvoiceNumber     *string    `json:"invoice_number,omitempty" validate:"omitempty,max=100"`
	PurchaseCost      *float64   `json:"purchase_cost,omitempty" validate:"omitempty,gte=0"`
	PurchaseDate      *time.Time `json:"purchase_date,omitempty"`
	Specifications    map[string]interface{} `json:"specifications,omitempty"`
}

type AssignAssetRequest struct {
	UserID     uuid.UUID  `json:"user_id" validate:"required"`
	Status     string     `json:"status,omitempty" validate:"omitempty,oneof=assigned in_use"`
	LocationID *uuid.UUID `json:"location_id,omitempty"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,asset_status"`
}

type AssetSearchParams struct {
	utils.PaginationParams
	Status         *models.AssetStatus
	AssetType      *models.AssetType
	ProductID      *uuid.UUID
	AssignedTo     *uuid.UUID
	ParentAssetID  *uuid.UUID
	IncludeDeleted bool
}

func NewAssetService(db *gorm.DB, catalog *CatalogService, locks *utils.KeyedMutex, policy config.PolicyConfig) *AssetService {
	return &AssetService{db: db, catalog: catalog, locks: locks, policy: policy}
}

func assetLockKey(id uuid.UUID) string {
	return "asset:" + id.String()
}

// Status state machine. disposed and lost are terminal; any transition into
// disposed/lost/damaged clears the assignment as part of the same commit.
var statusTransitions = map[models.AssetStatus][]models.AssetStatus{
	models.AssetStatusAvailable: {
		models.AssetStatusAssigned, models.AssetStatusInUse, models.AssetStatusInTransit,
		models.AssetStatusUnderRepair, models.AssetStatusMaintenance,
		models.AssetStatusDisposed, models.AssetStatusLost, models.AssetStatusDamaged,
	},
	models.AssetStatusAssigned: {
		models.AssetStatusAvailable, models.AssetStatusInUse,
		models.AssetStatusUnderRepair, models.AssetStatusMaintenance,
		models.AssetStatusDisposed, models.AssetStatusLost, models.AssetStatusDamaged,
	},
	models.AssetStatusInUse: {
		models.AssetStatusAvailable, models.AssetStatusAssigned,
		models.AssetStatusUnderRepair, models.AssetStatusMaintenance,
		models.AssetStatusDisposed, models.AssetStatusLost, models.AssetStatusDamaged,
	},
	models.AssetStatusUnderRepair: {
		models.AssetStatusAvailable, models.AssetStatusMaintenance,
		models.AssetStatusDisposed, models.AssetStatusLost, models.AssetStatusDamaged,
	},
	models.AssetStatusMaintenance: {
		models.AssetStatusAvailable, models.AssetStatusUnderRepair,
		models.AssetStatusDisposed, models.AssetStatusLost, models.AssetStatusDamaged,
	},
	models.AssetStatusInTransit: {
		models.AssetStatusAvailable, models.AssetStatusUnderRepair,
		models.AssetStatusMaintenance, models.AssetStatusDisposed,
		models.AssetStatusLost, models.AssetStatusDamaged,
	},
	models.AssetStatusDamaged: {
		models.AssetStatusAvailable, models.AssetStatusUnderRepair,
		models.AssetStatusDisposed, models.AssetStatusLost,
	},
	models.AssetStatusDisposed: {},
	models.AssetStatusLost:     {},
}

func canTransition(from, to models.AssetStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// autoUnassigns reports whether entering the status forces the assignment to
// be cleared in the same commit.
func autoUnassigns(status models.AssetStatus) bool {
	return status == models.AssetStatusDisposed ||
		status == models.AssetStatusLost ||
		status == models.AssetStatusDamaged
}

// tagPrefix derives the tag prefix from a product name: the first three
// alphanumeric characters, uppercased, padded with X.
func tagPrefix(productName string) string {
	var b strings.Builder
	for _, r := range productName {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
			if b.Len() >= 3 {
				break
			}
		}
	}
	prefix := b.String()
	for len(prefix) < 3 {
		prefix += "X"
	}
	return prefix
}

// nextAssetTag reserves the next tag for the product inside tx. The caller
// must hold the product's tag lock; the sequence row only ever increments,
// so tags of deleted assets are never handed out again.
func nextAssetTag(tx *gorm.DB, product *models.Product) (string, error) {
	var seq models.TagSequence
	err := tx.First(&seq, "product_id = ?", product.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seq = models.TagSequence{
			ProductID: product.ID,
			Prefix:    tagPrefix(product.Name),
			LastValue: 0,
		}
		if err := tx.Create(&seq).Error; err != nil {
			return "", fmt.Errorf("failed to create tag sequence: %w", err)
		}
	} else if err != nil {
		return "", fmt.Errorf("database error: %w", err)
	}

	seq.LastValue++
	if err := tx.Save(&seq).Error; err != nil {
		return "", fmt.Errorf("failed to advance tag sequence: %w", err)
	}

	return fmt.Sprintf("%s-%04d", seq.Prefix, seq.LastValue), nil
}

// validateParent checks a parent reference: the parent must exist, be live,
// and be a standalone asset.
func validateParent(tx *gorm.DB, parentID uuid.UUID) error {
	var parent models.Asset
	if err := tx.First(&parent, "id = ?", parentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewFieldError(CodeStructuralViolation,
				"parent asset does not exist", "parent_asset_id")
		}
		return fmt.Errorf("database error: %w", err)
	}

	if parent.IsDeleted() {
		return NewFieldError(CodeStructuralViolation,
			"parent asset has been deleted", "parent_asset_id")
	}
	if parent.AssetType != models.AssetTypeStandalone {
		return NewFieldError(CodeStructuralViolation,
			"parent asset must be a standalone asset", "parent_asset_id")
	}

	return nil
}

func (s *AssetService) CreateAsset(req *CreateAssetRequest) (*models.Asset, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, NewDomainError(CodeValidationFailed, err.Error())
	}

	product, err := s.catalog.GetProduct(req.ProductID)
	if err != nil {
		if _, ok := AsDomainError(err); ok {
			return nil, NewFieldError(CodeValidationFailed, "product does not exist", "product_id")
		}
		return nil, err
	}

	assetType := models.AssetType(req.AssetType)

	// Only components may have parents; components are never assigned.
	if assetType != models.AssetTypeComponent && req.ParentAssetID != nil {
		return nil, NewFieldError(CodeStructuralViolation,
			"only component assets may have a parent asset", "parent_asset_id")
	}
	if assetType != models.AssetTypeComponent && req.InstallationNotes != "" {
		return nil, NewFieldError(CodeValidationFailed,
			"installation notes only apply to component assets", "installation_notes")
	}

	status := models.AssetStatusAvailable
	if req.Status != "" {
		status = models.AssetStatus(req.Status)
	}
	if status == models.AssetStatusAssigned || status == models.AssetStatusInUse {
		return nil, NewFieldError(CodeValidationFailed,
			"new assets cannot start assigned; use the assign operation", "status")
	}

	importance := models.ImportanceMedium
	if req.Importance != "" {
		importance = models.Importance(req.Importance)
	}
	condition := models.ConditionGood
	if req.ConditionStatus != "" {
		condition = models.ConditionStatus(req.ConditionStatus)
	}

	if req.VendorID != nil {
		if _, err := s.catalog.GetVendor(*req.VendorID); err != nil {
			return nil, NewFieldError(CodeValidationFailed, "vendor does not exist", "vendor_id")
		}
	}
	if req.LocationID != nil {
		if _, err := s.catalog.GetLocation(*req.LocationID); err != nil {
			return nil, NewFieldError(CodeValidationFailed, "location does not exist", "location_id")
		}
	}

	asset := &models.Asset{
		SerialNumber:      req.SerialNumber,
		ProductID:         req.ProductID,
		AssetType:         assetType,
		InstallationNotes: req.InstallationNotes,
		LocationID:        req.LocationID,
		Status:            status,
		Importance:        importance,
		ConditionStatus:   condition,
		WarrantyStartDate: req.WarrantyStartDate,
		WarrantyEndDate:   req.WarrantyEndDate,
		EOLDate:           req.EOLDate,
		EOSDate:           req.EOSDate,
		VendorID:          req.VendorID,
		InvoiceNumber:     req.InvoiceNumber,
		PurchaseCost:      req.PurchaseCost,
		PurchaseDate:      req.PurchaseDate,
		Specifications:    models.JSONB(req.Specifications),
	}

	// Tag generation serializes per product so concurrent creates get
	// distinct sequence values.
	unlock := s.locks.Lock("tag:" + req.ProductID.String())
	defer unlock()

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if req.ParentAssetID != nil {
			if err := validateParent(tx, *req.ParentAssetID); err != nil {
				return err
			}
			asset.ParentAssetID = req.ParentAssetID
		}

		tag, err := nextAssetTag(tx, product)
		if err != nil {
			return err
		}
		asset.AssetTag = tag

		return tx.Create(asset).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetAsset(asset.ID, false)
}

func (s *AssetService) UpdateAsset(id uuid.UUID, req *UpdateAssetRequest) (*models.Asset, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, NewDomainError(CodeValidationFailed, err.Error())
	}

	// Catalog references resolve before the transaction opens; write paths
	// never hold a transaction across a catalog read.
	if req.LocationID != nil {
		if _, err := s.catalog.GetLocation(*req.LocationID); err != nil {
			return nil, NewFieldError(CodeValidationFailed, "location does not exist", "location_id")
		}
	}
	if req.VendorID != nil {
		if _, err := s.catalog.GetVendor(*req.VendorID); err != nil {
			return nil, NewFieldError(CodeValidationFailed, "vendor does not exist", "vendor_id")
		}
	}

	unlock := s.locks.Lock(assetLockKey(id))
	defer unlock()

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var asset models.Asset
		if err := tx.First(&asset, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("asset")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if asset.IsDeleted() {
			return NewDomainError(CodeAlreadyDeleted, "asset has been deleted")
		}

		if req.SerialNumber != nil {
			asset.SerialNumber = *req.SerialNumber
		}

		if req.AssetType != nil {
			newType := models.AssetType(*req.AssetType)
			if newType != asset.AssetType {
				if newType == models.AssetTypeComponent && asset.AssignedTo != nil {
					return NewFieldError(CodeStructuralViolation,
						"assigned assets cannot become components; unassign first", "asset_type")
				}
				if newType == models.AssetTypeStandalone {
					// Promotion clears the stale component linkage in the
					// same commit.
					asset.ParentAssetID = nil
					asset.InstallationNotes = ""
				}
				if newType == models.AssetTypeComponent {
					// Demotion to component: it may no longer parent others.
					var childCount int64
					if err := tx.Model(&models.Asset{}).
						Where("parent_asset_id = ? AND deleted_at IS NULL", asset.ID).
						Count(&childCount).Error; err != nil {
						return fmt.Errorf("failed to count components: %w", err)
					}
					if childCount > 0 {
						return NewFieldError(CodeStructuralViolation,
							"asset has installed components and cannot become a component", "asset_type")
					}
				}
				asset.AssetType = newType
			}
		}

		if req.ClearParent {
			asset.ParentAssetID = nil
			asset.InstallationNotes = ""
		} else if req.ParentAssetID != nil {
			if asset.AssetType != models.AssetTypeComponent {
				return NewFieldError(CodeStructuralViolation,
					"only component assets may have a parent asset", "parent_asset_id")
			}
			if *req.ParentAssetID == asset.ID {
				return NewFieldError(CodeStructuralViolation,
					"asset cannot be its own parent", "parent_asset_id")
			}
			if err := validateParent(tx, *req.ParentAssetID); err != nil {
				return err
			}
			asset.ParentAssetID = req.ParentAssetID
		}

		if req.InstallationNotes != nil {
			if asset.AssetType != models.AssetTypeComponent {
				return NewFieldError(CodeValidationFailed,
					"installation notes only apply to component assets", "installation_notes")
			}
			asset.InstallationNotes = *req.InstallationNotes
		}

		if req.LocationID != nil {
			asset.LocationID = req.LocationID
		}
		if req.VendorID != nil {
			asset.VendorID = req.VendorID
		}

		if req.Importance != nil {
			asset.Importance = models.Importance(*req.Importance)
		}
		if req.ConditionStatus != nil {
			asset.ConditionStatus = models.ConditionStatus(*req.ConditionStatus)
		}
		if req.WarrantyStartDate != nil {
			asset.WarrantyStartDate = req.WarrantyStartDate
		}
		if req.WarrantyEndDate != nil {
			asset.WarrantyEndDate = req.WarrantyEndDate
		}
		if req.EOLDate != nil {
			asset.EOLDate = req.EOLDate
		}
		if req.EOSDate != nil {
			asset.EOSDate = req.EOSDate
		}
		if req.InvoiceNumber != nil {
			asset.InvoiceNumber = *req.InvoiceNumber
		}
		if req.PurchaseCost != nil {
			asset.PurchaseCost = *req.PurchaseCost
		}
		if req.PurchaseDate != nil {
			asset.PurchaseDate = req.PurchaseDate
		}
		if req.Specifications != nil {
			asset.Specifications = models.JSONB(req.Specifications)
		}

		return tx.Save(&asset).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetAsset(id, false)
}

// Assign gives a standalone asset to a directory user. The asset's location
// is inherited from the user unless an explicit location is supplied.
func (s *AssetService) Assign(id uuid.UUID, req *AssignAssetRequest) (*models.Asset, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, NewDomainError(CodeValidationFailed, err.Error())
	}

	user, err := s.catalog.GetDirectoryUser(req.UserID)
	if err != nil {
		if _, ok := AsDomainError(err); ok {
			return nil, NewFieldError(CodeValidationFailed, "user does not exist", "user_id")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, NewFieldError(CodeValidationFailed, "user is not active", "user_id")
	}

	unlock := s.locks.Lock(assetLockKey(id))
	defer unlock()

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var asset models.Asset
		if err := tx.First(&asset, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("asset")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if asset.IsDeleted() {
			return NewDomainError(CodeAlreadyDeleted, "asset has been deleted")
		}

		// Component assets are never assigned to users.
		if asset.AssetType == models.AssetTypeComponent {
			return NewDomainError(CodeStructuralViolation,
				"component assets cannot be assigned to users")
		}

		if asset.AssignedTo != nil {
			return NewDomainError(CodeAlreadyAssigned, "asset is already assigned")
		}

		targetStatus := models.AssetStatusAssigned
		if req.Status != "" {
			targetStatus = models.AssetStatus(req.Status)
		}
		if !canTransition(asset.Status, targetStatus) {
			return NewDomainError(CodeInvalidTransition,
				fmt.Sprintf("cannot assign an asset in status %q", asset.Status))
		}

		asset.AssignedTo = &req.UserID
		asset.Status = targetStatus

		// Location inheritance: explicit location wins, otherwise the
		// user's home location.
		if req.LocationID != nil {
			asset.LocationID = req.LocationID
		} else if user.LocationID != nil {
			asset.LocationID = user.LocationID
		}

		return tx.Save(&asset).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetAsset(id, false)
}

// Unassign clears the assignment and returns the asset to available. The
// location is retained unless the clear-on-unassign policy is enabled.
func (s *AssetService) Unassign(id uuid.UUID) (*models.Asset, error) {
	unlock := s.locks.Lock(assetLockKey(id))
	defer unlock()

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var asset models.Asset
		if err := tx.First(&asset, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("asset")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if asset.IsDeleted() {
			return NewDomainError(CodeAlreadyDeleted, "asset has been deleted")
		}

		if asset.AssignedTo == nil {
			return NewDomainError(CodeValidationFailed, "asset is not assigned")
		}

		asset.AssignedTo = nil
		asset.Status = models.AssetStatusAvailable
		if s.policy.ClearLocationOnUnassign {
			asset.LocationID = nil
		}

		return tx.Save(&asset).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetAsset(id, false)
}

// ChangeStatus applies an explicit state-machine transition. Transitions
// into assigned/in_use require an existing assignee (use Assign otherwise);
// transitions into disposed/lost/damaged clear the assignment themselves.
func (s *AssetService) ChangeStatus(id uuid.UUID, req *ChangeStatusRequest) (*models.Asset, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, NewDomainError(CodeValidationFailed, err.Error())
	}

	target := models.AssetStatus(req.Status)

	unlock := s.locks.Lock(assetLockKey(id))
	defer unlock()

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var asset models.Asset
		if err := tx.First(&asset, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("asset")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if asset.IsDeleted() {
			return NewDomainError(CodeAlreadyDeleted, "asset has been deleted")
		}

		if target == asset.Status {
			return nil
		}

		if !canTransition(asset.Status, target) {
			return NewDomainError(CodeInvalidTransition,
				fmt.Sprintf("cannot transition from %q to %q", asset.Status, target))
		}

		if (target == models.AssetStatusAssigned || target == models.AssetStatusInUse) &&
			asset.AssignedTo == nil {
			return NewDomainError(CodeInvalidTransition,
				"asset has no assignee; use the assign operation")
		}

		asset.Status = target
		if autoUnassigns(target) {
			asset.AssignedTo = nil
		}

		return tx.Save(&asset).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetAsset(id, false)
}

func (s *AssetService) GetAsset(id uuid.UUID, includeDeleted bool) (*models.Asset, error) {
	var asset models.Asset
	query := s.db.Preload("Product").Preload("ParentAsset").Preload("Assignee").
		Preload("Location").Preload("Vendor")
	if err := query.First(&asset, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("asset")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if asset.IsDeleted() && !includeDeleted {
		return nil, notFound("asset")
	}

	return &asset, nil
}

func (s *AssetService) SearchAssets(params AssetSearchParams) ([]models.Asset, int64, error) {
	query := s.db.Model(&models.Asset{}).
		Preload("Product").Preload("Assignee").Preload("Location")

	if !params.IncludeDeleted {
		query = query.Where("deleted_at IS NULL")
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.AssetType != nil {
		query = query.Where("asset_type = ?", *params.AssetType)
	}
	if params.ProductID != nil {
		query = query.Where("product_id = ?", *params.ProductID)
	}
	if params.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *params.AssignedTo)
	}
	if params.ParentAssetID != nil {
		query = query.Where("parent_asset_id = ?", *params.ParentAssetID)
	}
	if params.Search != "" {
		query = query.Where("asset_tag ILIKE ? OR serial_number ILIKE ?",
			"%"+params.Search+"%", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count assets: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "asset_tag", "status", "purchase_date"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var assets []models.Asset
	if err := query.Find(&assets).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch assets: %w", err)
	}

	return assets, total, nil
}

// ListComponents returns the live components installed under a parent.
func (s *AssetService) ListComponents(parentID uuid.UUID) ([]models.Asset, error) {
	var components []models.Asset
	if err := s.db.Preload("Product").
		Where("parent_asset_id = ? AND deleted_at IS NULL", parentID).
		Order("created_at asc").
		Find(&components).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch components: %w", err)
	}
	return components, nil
}
