// internal/services/license_pool_service_test.go
package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/assetgrid/itam-backend/internal/config"
	"github.com/assetgrid/itam-backend/internal/models"
	"github.com/assetgrid/itam-backend/internal/utils"
)

type LicensePoolTestSuite struct {
	suite.Suite
	db            *gorm.DB
	locks         *utils.KeyedMutex
	catalog       *CatalogService
	pools         *LicensePoolService
	assets        *AssetService
	installations *InstallationService
	lifecycle     *LifecycleService
	office        *models.Product
	laptop        *models.Product
}

func (suite *LicensePoolTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	suite.locks = utils.NewKeyedMutex()
	suite.catalog = NewCatalogService(suite.db, 0)
	suite.pools = NewLicensePoolService(suite.db, suite.locks)
	suite.assets = NewAssetService(suite.db, suite.catalog, suite.locks, config.PolicyConfig{})
	suite.installations = NewInstallationService(suite.db, suite.catalog, suite.pools, suite.locks)
	suite.lifecycle = NewLifecycleService(suite.db, suite.locks, nil, nil, config.LabelConfig{MaxBulkAssets: 100, Workers: 2})
	suite.office = seedSoftwareProduct(suite.T(), suite.db, "Office Suite", models.SoftwareTypeApplication)
	suite.laptop = seedHardwareProduct(suite.T(), suite.db, "ThinkPad X1")
}

func (suite *LicensePoolTestSuite) newAsset(serial string) *models.Asset {
	asset, err := suite.assets.CreateAsset(&CreateAssetRequest{
		SerialNumber: serial,
		ProductID:    suite.laptop.ID,
		AssetType:    "standalone",
	})
	suite.Require().NoError(err)
	return asset
}

func (suite *LicensePoolTestSuite) TestCreatePoolRequiresSoftwareProduct() {
	_, err := suite.pools.CreateLicensePool(&CreateLicensePoolRequest{
		SoftwareProductID: suite.laptop.ID,
		LicenseName:       "Hardware License",
		LicenseType:       "per_device",
		TotalLicenses:     5,
	})
	assertDomainCode(suite.T(), err, CodeValidationFailed)

	pool, err := suite.pools.CreateLicensePool(&CreateLicensePoolRequest{
		SoftwareProductID: suite.office.ID,
		LicenseName:       "Office Volume",
		LicenseType:       "volume",
		TotalLicenses:     5,
	})
	suite.Require().NoError(err)
	suite.Equal(5, pool.AvailableLicenses)
}

func (suite *LicensePoolTestSuite) TestExhaustionSequential() {
	pool := seedLicensePool(suite.T(), suite.db, suite.office.ID, 2, nil)

	for i, serial := range []string{"SN-1", "SN-2"} {
		asset := suite.newAsset(serial)
		_, err := suite.installations.AddInstallation(asset.ID, &AddInstallationRequest{
			SoftwareProductID: suite.office.ID,
			LicenseID:         &pool.ID,
		})
		suite.Require().NoError(err, "installation %d", i)
	}

	available, err := suite.pools.AvailableCount(pool.ID)
	suite.Require().NoError(err)
	suite.Equal(0, available)

	third := suite.newAsset("SN-3")
	_, err = suite.installations.AddInstallation(third.ID, &AddInstallationRequest{
		SoftwareProductID: suite.office.ID,
		LicenseID:         &pool.ID,
	})
	assertDomainCode(suite.T(), err, CodePoolExhausted)
}

func (suite *LicensePoolTestSuite) TestConcurrentLastSeat() {
	pool := seedLicensePool(suite.T(), suite.db, suite.office.ID, 1, nil)
	first := suite.newAsset("SN-1")
	second := suite.newAsset("SN-2")

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, asset := range []*models.Asset{first, second} {
		wg.Add(1)
		go func(asset *models.Asset) {
			defer wg.Done()
			_, err := suite.installations.AddInstallation(asset.ID, &AddInstallationRequest{
				SoftwareProductID: suite.office.ID,
				LicenseID:         &pool.ID,
			})
			errs <- err
		}(asset)
	}
	wg.Wait()
	close(errs)

	var successes, exhausted int
	for err := range errs {
		if err == nil {
			successes++
			continue
		}
		de, ok := AsDomainError(err)
		suite.Require().True(ok, "unexpected error: %v", err)
		suite.Equal(CodePoolExhausted, de.Code)
		exhausted++
	}
	suite.Equal(1, successes)
	suite.Equal(1, exhausted)

	available, err := suite.pools.AvailableCount(pool.ID)
	suite.Require().NoError(err)
	suite.Equal(0, available)
}

func (suite *LicensePoolTestSuite) TestPoolMismatch() {
	other := seedSoftwareProduct(suite.T(), suite.db, "Photo Editor", models.SoftwareTypeApplication)
	pool := seedLicensePool(suite.T(), suite.db, suite.office.ID, 5, nil)
	asset := suite.newAsset("SN-1")

	_, err := suite.installations.AddInstallation(asset.ID, &AddInstallationRequest{
		SoftwareProductID: other.ID,
		LicenseID:         &pool.ID,
	})
	assertDomainCode(suite.T(), err, CodePoolMismatch)
}

func (suite *LicensePoolTestSuite) TestDateAfterExpiration() {
	expired := time.Now().Add(-24 * time.Hour)
	pool := seedLicensePool(suite.T(), suite.db, suite.office.ID, 5, &expired)
	asset := suite.newAsset("SN-1")

	_, err := suite.installations.AddInstallation(asset.ID, &AddInstallationRequest{
		SoftwareProductID: suite.office.ID,
		LicenseID:         &pool.ID,
		InstallationDate:  timePtr(time.Now()),
	})
	assertDomainCode(suite.T(), err, CodeDateAfterExpiration)

	// A date inside the license term is fine.
	_, err = suite.installations.AddInstallation(asset.ID, &AddInstallationRequest{
		SoftwareProductID: suite.office.ID,
		LicenseID:         &pool.ID,
		InstallationDate:  timePtr(time.Now().Add(-48 * time.Hour)),
	})
	suite.NoError(err)
}

func (suite *LicensePoolTestSuite) TestShrinkBelowAllocatedRejected() {
	pool := seedLicensePool(suite.T(), suite.db, suite.office.ID, 3, nil)
	for _, serial := range []string{"SN-1", "SN-2"} {
		asset := suite.newAsset(serial)
		_, err := suite.installations.AddInstallation(asset.ID, &AddInstallationRequest{
			SoftwareProductID: suite.office.ID,
			LicenseID:         &pool.ID,
		})
		suite.Require().NoError(err)
	}

	one := 1
	_, err := suite.pools.UpdateLicensePool(pool.ID, &UpdateLicensePoolRequest{TotalLicenses: &one})
	assertDomainCode(suite.T(), err, CodeValidationFailed)

	two := 2
	updated, err := suite.pools.UpdateLicensePool(pool.ID, &UpdateLicensePoolRequest{TotalLicenses: &two})
	suite.Require().NoError(err)
	suite.Equal(2, updated.TotalLicenses)
	suite.Equal(0, updated.AvailableLicenses)
}

func (suite *LicensePoolTestSuite) TestReleaseIdempotent() {
	pool := seedLicensePool(suite.T(), suite.db, suite.office.ID, 1, nil)
	asset := suite.newAsset("SN-1")
	installation, err := suite.installations.AddInstallation(asset.ID, &AddInstallationRequest{
		SoftwareProductID: suite.office.ID,
		LicenseID:         &pool.ID,
	})
	suite.Require().NoError(err)

	suite.Require().NoError(suite.pools.Release(pool.ID, installation.ID))
	available, err := suite.pools.AvailableCount(pool.ID)
	suite.Require().NoError(err)
	suite.Equal(1, available)

	// Releasing again changes nothing.
	suite.Require().NoError(suite.pools.Release(pool.ID, installation.ID))
	available, err = suite.pools.AvailableCount(pool.ID)
	suite.Require().NoError(err)
	suite.Equal(1, available)
}

func (suite *LicensePoolTestSuite) TestAllocateSamePoolIsNoOp() {
	pool := seedLicensePool(suite.T(), suite.db, suite.office.ID, 1, nil)
	asset := suite.newAsset("SN-1")
	installation, err := suite.installations.AddInstallation(asset.ID, &AddInstallationRequest{
		SoftwareProductID: suite.office.ID,
		LicenseID:         &pool.ID,
	})
	suite.Require().NoError(err)

	// The pool is full, but re-allocating the same installation must not
	// count as a second seat.
	suite.Require().NoError(suite.pools.Allocate(pool.ID, installation.ID))

	loaded, err := suite.pools.GetLicensePool(pool.ID)
	suite.Require().NoError(err)
	suite.Equal(1, loaded.AllocatedCount)
}

func (suite *LicensePoolTestSuite) TestDeletedAssetFreesSeat() {
	pool := seedLicensePool(suite.T(), suite.db, suite.office.ID, 1, nil)
	asset := suite.newAsset("SN-1")
	_, err := suite.installations.AddInstallation(asset.ID, &AddInstallationRequest{
		SoftwareProductID: suite.office.ID,
		LicenseID:         &pool.ID,
	})
	suite.Require().NoError(err)

	suite.Require().NoError(suite.lifecycle.SoftDelete(asset.ID))

	available, err := suite.pools.AvailableCount(pool.ID)
	suite.Require().NoError(err)
	suite.Equal(1, available)

	// Someone else can now take the seat.
	other := suite.newAsset("SN-2")
	_, err = suite.installations.AddInstallation(other.ID, &AddInstallationRequest{
		SoftwareProductID: suite.office.ID,
		LicenseID:         &pool.ID,
	})
	suite.NoError(err)
}

func (suite *LicensePoolTestSuite) TestGetPoolDerivedCounts() {
	pool := seedLicensePool(suite.T(), suite.db, suite.office.ID, 3, nil)
	asset := suite.newAsset("SN-1")
	_, err := suite.installations.AddInstallation(asset.ID, &AddInstallationRequest{
		SoftwareProductID: suite.office.ID,
		LicenseID:         &pool.ID,
	})
	suite.Require().NoError(err)

	loaded, err := suite.pools.GetLicensePool(pool.ID)
	suite.Require().NoError(err)
	suite.Equal(1, loaded.AllocatedCount)
	suite.Equal(2, loaded.AvailableLicenses)
}

func TestLicensePoolSuite(t *testing.T) {
	suite.Run(t, new(LicensePoolTestSuite))
}
