// internal/services/catalog_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/assetgrid/itam-backend/internal/models"
	"github.com/assetgrid/itam-backend/internal/utils"
)

type CatalogTestSuite struct {
	suite.Suite
	db      *gorm.DB
	catalog *CatalogService
}

func (suite *CatalogTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	suite.catalog = NewCatalogService(suite.db, time.Minute)
}

func (suite *CatalogTestSuite) TestSoftwareProductRequiresType() {
	_, err := suite.catalog.CreateProduct(&CreateProductRequest{
		Name:     "Office Suite",
		Category: "software",
	})
	assertDomainCode(suite.T(), err, CodeValidationFailed)

	product, err := suite.catalog.CreateProduct(&CreateProductRequest{
		Name:         "Office Suite",
		Category:     "software",
		SoftwareType: "application",
	})
	suite.Require().NoError(err)
	suite.Require().NotNil(product.SoftwareType)
	suite.Equal(models.SoftwareTypeApplication, *product.SoftwareType)
}

func (suite *CatalogTestSuite) TestSoftwareTypeRejectedOnHardware() {
	_, err := suite.catalog.CreateProduct(&CreateProductRequest{
		Name:         "ThinkPad X1",
		Category:     "hardware",
		SoftwareType: "application",
	})
	assertDomainCode(suite.T(), err, CodeValidationFailed)
}

func (suite *CatalogTestSuite) TestResolveSoftwareProduct() {
	hardware := seedHardwareProduct(suite.T(), suite.db, "ThinkPad X1")
	_, err := suite.catalog.ResolveSoftwareProduct(hardware.ID)
	assertDomainCode(suite.T(), err, CodeValidationFailed)

	software := seedSoftwareProduct(suite.T(), suite.db, "Office Suite", models.SoftwareTypeApplication)
	product, err := suite.catalog.ResolveSoftwareProduct(software.ID)
	suite.Require().NoError(err)
	suite.Equal(software.ID, product.ID)

	// Deactivated products no longer back new installations. A fresh
	// service avoids the point cache here.
	suite.Require().NoError(suite.db.Model(software).Update("is_active", false).Error)
	uncached := NewCatalogService(suite.db, 0)
	_, err = uncached.ResolveSoftwareProduct(software.ID)
	assertDomainCode(suite.T(), err, CodeValidationFailed)
}

func (suite *CatalogTestSuite) TestPointLookupsAreCached() {
	product := seedHardwareProduct(suite.T(), suite.db, "ThinkPad X1")

	first, err := suite.catalog.GetProduct(product.ID)
	suite.Require().NoError(err)
	suite.Equal("ThinkPad X1", first.Name)

	// A direct row change is invisible until the entry expires.
	suite.Require().NoError(suite.db.Model(product).Update("name", "ThinkPad X2").Error)
	cached, err := suite.catalog.GetProduct(product.ID)
	suite.Require().NoError(err)
	suite.Equal("ThinkPad X1", cached.Name)

	// With caching disabled the change is seen immediately.
	uncached := NewCatalogService(suite.db, 0)
	fresh, err := uncached.GetProduct(product.ID)
	suite.Require().NoError(err)
	suite.Equal("ThinkPad X2", fresh.Name)
}

func (suite *CatalogTestSuite) TestUpdateProductInvalidatesCache() {
	product := seedHardwareProduct(suite.T(), suite.db, "ThinkPad X1")

	// Prime the cache, then update through the service.
	_, err := suite.catalog.GetProduct(product.ID)
	suite.Require().NoError(err)

	name := "ThinkPad X2"
	active := false
	updated, err := suite.catalog.UpdateProduct(product.ID, &UpdateProductRequest{
		Name:     &name,
		IsActive: &active,
	})
	suite.Require().NoError(err)
	suite.Equal("ThinkPad X2", updated.Name)
	suite.False(updated.IsActive)

	// The stale entry is gone; the same service sees the new row.
	fresh, err := suite.catalog.GetProduct(product.ID)
	suite.Require().NoError(err)
	suite.Equal("ThinkPad X2", fresh.Name)
}

func (suite *CatalogTestSuite) TestUpdateProductNotFound() {
	name := "Ghost"
	_, err := suite.catalog.UpdateProduct(uuid.New(), &UpdateProductRequest{Name: &name})
	assertDomainCode(suite.T(), err, CodeNotFound)
}

func (suite *CatalogTestSuite) TestDirectoryUserLocationValidated() {
	missing := uuid.New()
	_, err := suite.catalog.CreateDirectoryUser(&CreateDirectoryUserRequest{
		Username:   "jdoe",
		Email:      "jdoe@example.com",
		LocationID: &missing,
	})
	assertDomainCode(suite.T(), err, CodeValidationFailed)

	location := seedLocation(suite.T(), suite.db, "HQ 3F")
	user, err := suite.catalog.CreateDirectoryUser(&CreateDirectoryUserRequest{
		Username:   "jdoe",
		Email:      "jdoe@example.com",
		LocationID: &location.ID,
	})
	suite.Require().NoError(err)
	suite.Require().NotNil(user.LocationID)
	suite.Equal(location.ID, *user.LocationID)
}

func (suite *CatalogTestSuite) TestListProductsFilters() {
	seedHardwareProduct(suite.T(), suite.db, "ThinkPad X1")
	seedSoftwareProduct(suite.T(), suite.db, "Office Suite", models.SoftwareTypeApplication)

	params := utils.PaginationParams{Page: 1, Limit: 20, Order: "desc"}
	products, total, err := suite.catalog.ListProducts(params, "software")
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Require().Len(products, 1)
	suite.Equal("Office Suite", products[0].Name)
}

func TestCatalogSuite(t *testing.T) {
	suite.Run(t, new(CatalogTestSuite))
}
