// internal/services/catalog_service.go
package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/assetgrid/itam-backend/internal/models"
	"github.com/assetgrid/itam-backend/internal/utils"
)

// CatalogService serves the read-mostly reference data: products, vendors,
// locations, and the assignee directory. Point lookups go through a small
// TTL cache so the allocation path never blocks on catalog reads; a stale
// entry is a normal validation failure, not a system error.
type CatalogService struct {
	db    *gorm.DB
	ttl   time.Duration
	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

type CreateProductRequest struct {
	Name         string   `json:"name" validate:"required,max=255"`
	Category     string   `json:"category" validate:"required,product_category"`
	Manufacturer string   `json:"manufacturer,omitempty" validate:"max=255"`
	ModelNumber  string   `json:"model_number,omitempty" validate:"max=100"`
	SoftwareType string   `json:"software_type,omitempty" validate:"omitempty,software_type"`
	Description  string   `json:"description,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// UpdateProductRequest edits catalog metadata. Category and software_type
// are fixed at creation because installations derive their kind from them.
type UpdateProductRequest struct {
	Name         *string  `json:"name,omitempty" validate:"omitempty,max=255"`
	Manufacturer *string  `json:"manufacturer,omitempty" validate:"omitempty,max=255"`
	ModelNumber  *string  `json:"model_number,omitempty" validate:"omitempty,max=100"`
	Description  *string  `json:"description,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	IsActive     *bool    `json:"is_active,omitempty"`
}

type CreateVendorRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	ContactEmail string `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone string `json:"contact_phone,omitempty" validate:"max=50"`
	Website      string `json:"website,omitempty" validate:"max=255"`
}

type CreateLocationRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Building string `json:"building,omitempty" validate:"max=100"`
	Floor    string `json:"floor,omitempty" validate:"max=50"`
	Room     string `json:"room,omitempty" validate:"max=50"`
	Address  string `json:"address,omitempty"`
}

type CreateDirectoryUserRequest struct {
	Username   string     `json:"username" validate:"required,max=100"`
	FullName   string     `json:"full_name,omitempty" validate:"max=255"`
	Email      string     `json:"email" validate:"required,email"`
	Department string     `json:"department,omitempty" validate:"max=100"`
	LocationID *uuid.UUID `json:"location_id,omitempty"`
}

func NewCatalogService(db *gorm.DB, cacheTTL time.Duration) *CatalogService {
	return &CatalogService{
		db:    db,
		ttl:   cacheTTL,
		cache: make(map[string]cacheEntry),
	}
}

func (s *CatalogService) cached(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.cache[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

func (s *CatalogService) store(key string, value interface{}) {
	if s.ttl <= 0 {
		return
	}
	s.mu.Lock()
	s.cache[key] = cacheEntry{value: value, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()
}

func (s *CatalogService) invalidate(key string) {
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()
}

// GetProduct resolves a product by id, serving repeated lookups from cache.
func (s *CatalogService) GetProduct(id uuid.UUID) (*models.Product, error) {
	key := "product:" + id.String()
	if v, ok := s.cached(key); ok {
		return v.(*models.Product), nil
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("product")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	s.store(key, &product)
	return &product, nil
}

// ResolveSoftwareProduct returns the product only when it is an active
// software-category entry. This is the source of truth for the derived
// software_type on installations.
func (s *CatalogService) ResolveSoftwareProduct(id uuid.UUID) (*models.Product, error) {
	product, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}

	if !product.IsSoftware() {
		return nil, NewFieldError(CodeValidationFailed,
			"product is not a software product", "software_product_id")
	}
	if !product.IsActive {
		return nil, NewFieldError(CodeValidationFailed,
			"software product is no longer active", "software_product_id")
	}

	return product, nil
}

func (s *CatalogService) GetVendor(id uuid.UUID) (*models.Vendor, error) {
	key := "vendor:" + id.String()
	if v, ok := s.cached(key); ok {
		return v.(*models.Vendor), nil
	}

	var vendor models.Vendor
	if err := s.db.First(&vendor, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("vendor")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	s.store(key, &vendor)
	return &vendor, nil
}

func (s *CatalogService) GetLocation(id uuid.UUID) (*models.Location, error) {
	key := "location:" + id.String()
	if v, ok := s.cached(key); ok {
		return v.(*models.Location), nil
	}

	var location models.Location
	if err := s.db.First(&location, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("location")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	s.store(key, &location)
	return &location, nil
}

func (s *CatalogService) GetDirectoryUser(id uuid.UUID) (*models.DirectoryUser, error) {
	key := "user:" + id.String()
	if v, ok := s.cached(key); ok {
		return v.(*models.DirectoryUser), nil
	}

	var user models.DirectoryUser
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	s.store(key, &user)
	return &user, nil
}

func (s *CatalogService) CreateProduct(req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, NewDomainError(CodeValidationFailed, err.Error())
	}

	product := &models.Product{
		Name:         req.Name,
		Category:     models.ProductCategory(req.Category),
		Manufacturer: req.Manufacturer,
		ModelNumber:  req.ModelNumber,
		Description:  req.Description,
		Tags:         req.Tags,
		IsActive:     true,
	}

	if req.Category == string(models.ProductCategorySoftware) {
		if req.SoftwareType == "" {
			return nil, NewFieldError(CodeValidationFailed,
				"software products require a software_type", "software_type")
		}
		st := models.SoftwareType(req.SoftwareType)
		product.SoftwareType = &st
	} else if req.SoftwareType != "" {
		return nil, NewFieldError(CodeValidationFailed,
			"software_type is only valid for software products", "software_type")
	}

	if err := s.db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// UpdateProduct applies metadata edits and drops the cached entry so the
// allocation path sees the change immediately. Deactivating a product stops
// new installations; existing ones keep their rows.
func (s *CatalogService) UpdateProduct(id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, NewDomainError(CodeValidationFailed, err.Error())
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("product")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Manufacturer != nil {
		product.Manufacturer = *req.Manufacturer
	}
	if req.ModelNumber != nil {
		product.ModelNumber = *req.ModelNumber
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Tags != nil {
		product.Tags = req.Tags
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.db.Save(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.invalidate("product:" + id.String())
	return &product, nil
}

func (s *CatalogService) CreateVendor(req *CreateVendorRequest) (*models.Vendor, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, NewDomainError(CodeValidationFailed, err.Error())
	}

	vendor := &models.Vendor{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Website:      req.Website,
		IsActive:     true,
	}

	if err := s.db.Create(vendor).Error; err != nil {
		return nil, fmt.Errorf("failed to create vendor: %w", err)
	}

	return vendor, nil
}

func (s *CatalogService) CreateLocation(req *CreateLocationRequest) (*models.Location, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, NewDomainError(CodeValidationFailed, err.Error())
	}

	location := &models.Location{
		Name:     req.Name,
		Building: req.Building,
		Floor:    req.Floor,
		Room:     req.Room,
		Address:  req.Address,
		IsActive: true,
	}

	if err := s.db.Create(location).Error; err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}

	return location, nil
}

func (s *CatalogService) CreateDirectoryUser(req *CreateDirectoryUserRequest) (*models.DirectoryUser, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, NewDomainError(CodeValidationFailed, err.Error())
	}

	if req.LocationID != nil {
		if _, err := s.GetLocation(*req.LocationID); err != nil {
			return nil, NewFieldError(CodeValidationFailed, "location does not exist", "location_id")
		}
	}

	user := &models.DirectoryUser{
		Username:   req.Username,
		FullName:   req.FullName,
		Email:      req.Email,
		Department: req.Department,
		LocationID: req.LocationID,
		IsActive:   true,
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create directory user: %w", err)
	}

	return user, nil
}

func (s *CatalogService) ListProducts(params utils.PaginationParams, category string) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{})

	if category != "" {
		query = query.Where("category = ?", category)
	}
	if params.Search != "" {
		query = query.Where("name ILIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "name", "category"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

func (s *CatalogService) ListVendors(params utils.PaginationParams) ([]models.Vendor, int64, error) {
	query := s.db.Model(&models.Vendor{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count vendors: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "name"})
	query = utils.ApplyPagination(query, params)

	var vendors []models.Vendor
	if err := query.Find(&vendors).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch vendors: %w", err)
	}

	return vendors, total, nil
}

func (s *CatalogService) ListLocations(params utils.PaginationParams) ([]models.Location, int64, error) {
	query := s.db.Model(&models.Location{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count locations: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "name", "building"})
	query = utils.ApplyPagination(query, params)

	var locations []models.Location
	if err := query.Find(&locations).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch locations: %w", err)
	}

	return locations, total, nil
}

func (s *CatalogService) ListDirectoryUsers(params utils.PaginationParams, department string) ([]models.DirectoryUser, int64, error) {
	query := s.db.Model(&models.DirectoryUser{})

	if department != "" {
		query = query.Where("department = ?", department)
	}
	if params.Search != "" {
		query = query.Where("username ILIKE ? OR full_name ILIKE ?",
			"%"+params.Search+"%", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "username", "department"})
	query = utils.ApplyPagination(query, params)

	var users []models.DirectoryUser
	if err := query.Preload("Location").Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, total, nil
}
